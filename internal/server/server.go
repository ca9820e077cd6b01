package server

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"course-assistant/internal/catalog"
	"course-assistant/internal/session"
)

//go:embed static/index.html
var indexHTMLSrc string

var indexTmpl = template.Must(template.New("index").Parse(indexHTMLSrc))

// Assistant is the exchange surface the HTTP layer drives.
type Assistant interface {
	Answer(ctx context.Context, conversationID, query string) string
	Translate(ctx context.Context, conversationID, text, targetLang string) string
}

type Server struct {
	echo      *echo.Echo
	assistant Assistant
	sessions  *session.Store
	catalog   *catalog.Catalog
	port      string
	startTime time.Time
}

type queryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversationId"`
}

type queryResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLang     string `json:"target_lang"`
	ConversationID string `json:"conversationId"`
}

type translateResponse struct {
	Translation    string `json:"translation"`
	ConversationID string `json:"conversationId"`
}

func New(asst Assistant, sessions *session.Store, cat *catalog.Catalog, port string, allowedOrigins []string) *Server {
	s := &Server{
		assistant: asst,
		sessions:  sessions,
		catalog:   cat,
		port:      port,
		startTime: time.Now(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	e.GET("/", s.handleIndex)
	e.POST("/api/query", s.handleQuery)
	e.POST("/api/translate", s.handleTranslate)
	e.GET("/api/status", s.handleStatus)
	e.GET("/api/conversations/:id", s.handleConversation)

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 90 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	s.echo = e
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("🌐 Starting course assistant server on http://localhost:%s", s.port)
	return s.echo.Start(":" + s.port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	response := s.assistant.Answer(c.Request().Context(), conversationID, req.Query)
	return c.JSON(http.StatusOK, queryResponse{Response: response, ConversationID: conversationID})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	translation := s.assistant.Translate(c.Request().Context(), conversationID, req.Text, req.TargetLang)
	return c.JSON(http.StatusOK, translateResponse{Translation: translation, ConversationID: conversationID})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).Round(time.Second).String(),
		"courses":        len(s.catalog.Courses),
		"instructors":    len(s.catalog.Instructors),
		"activeSessions": s.sessions.Len(),
	})
}

func (s *Server) handleConversation(c echo.Context) error {
	id := c.Param("id")
	sess, ok := s.sessions.Lookup(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	sess.Lock()
	messages := sess.Messages()
	translations := sess.Translations()
	sess.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"conversationId": id,
		"messages":       messages,
		"translations":   translations,
	})
}

func (s *Server) handleIndex(c echo.Context) error {
	data := struct {
		Courses     int
		Instructors int
	}{
		Courses:     len(s.catalog.Courses),
		Instructors: len(s.catalog.Instructors),
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// handleError renders every handler error as {"detail": ...}, matching the
// shape the API has always exposed.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := fmt.Sprintf("An error occurred: %s", err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		detail = fmt.Sprintf("%v", he.Message)
	}

	if writeErr := c.JSON(code, map[string]any{"detail": detail}); writeErr != nil {
		log.Printf("⚠️ failed to write error response: %v", writeErr)
	}
}
