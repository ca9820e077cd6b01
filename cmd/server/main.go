package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"course-assistant/internal/analytics"
	"course-assistant/internal/assistant"
	"course-assistant/internal/catalog"
	"course-assistant/internal/config"
	"course-assistant/internal/embedding"
	"course-assistant/internal/llm"
	"course-assistant/internal/retrieval"
	"course-assistant/internal/scheduler"
	"course-assistant/internal/server"
	"course-assistant/internal/session"
	"course-assistant/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	cat, err := catalog.Load(cfg.CoursesFilePath, cfg.InstructorsFilePath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	log.Printf("📚 Loaded %d courses and %d instructors", len(cat.Courses), len(cat.Instructors))

	encoder, err := embedding.NewEncoder(cfg)
	if err != nil {
		log.Fatalf("failed to create embedding encoder: %v", err)
	}

	buildCtx, cancelBuild := context.WithTimeout(context.Background(), 2*time.Minute)
	index, err := retrieval.BuildIndex(buildCtx, encoder, cat, cfg.RetrievalTopK)
	cancelBuild()
	if err != nil {
		log.Fatalf("failed to build retrieval index: %v", err)
	}
	courseVectors, instructorVectors := index.Sizes()
	log.Printf("🔍 Retrieval index ready (%d course vectors, %d instructor vectors)", courseVectors, instructorVectors)

	llmClient, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider))
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)
	if systemPrompt == "" {
		systemPrompt = assistant.DefaultSystemPrompt
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
			defer fr.Close()
		}
	}

	sessions := session.NewStore(cfg.SessionTTL, systemPrompt)
	defer sessions.Stop()

	asst := assistant.New(index, llmClient, sessions, rec, cfg.MaxHistoryTurns, cfg.MaxTranslations)

	sched := scheduler.New(cfg.ReportSchedule)
	if rec != nil {
		sched.SetReportFunction(func(ctx context.Context) error {
			events, err := rec.LoadInteractions()
			if err != nil {
				return err
			}
			stats := analytics.AnalyzeDailyLogs(events, time.Now().UTC())
			log.Printf("📊 %s", stats.GenerateReportSummary())
			return nil
		})
	}
	if err := sched.Start(); err != nil {
		log.Printf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := server.New(asst, sessions, cat, cfg.Port, cfg.AllowedOrigins)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
