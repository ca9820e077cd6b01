package assistant

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"

	"course-assistant/internal/llm"
	"course-assistant/internal/retrieval"
	"course-assistant/internal/session"
	"course-assistant/internal/storage"
)

const DefaultSystemPrompt = "You are a helpful course enquiry assistant."

const (
	emptyQueryResponse = "Please enter a valid question."
	emptyTextResponse  = "No text to translate"
	defaultTargetLang  = "es"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	contextTmpl   = template.Must(template.ParseFS(templatesFS, "templates/context.tmpl"))
	queryTmpl     = template.Must(template.ParseFS(templatesFS, "templates/query.tmpl"))
	translateTmpl = template.Must(template.ParseFS(templatesFS, "templates/translate.tmpl"))
)

// Retriever finds the catalog records most relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string) (retrieval.Results, error)
}

// Assistant answers course enquiries and translates text through a hosted
// model, keeping per-conversation history in the session store.
type Assistant struct {
	retriever       Retriever
	client          llm.Client
	sessions        *session.Store
	recorder        storage.Recorder
	maxHistoryTurns int
	maxTranslations int
}

func New(retriever Retriever, client llm.Client, sessions *session.Store, rec storage.Recorder, maxHistoryTurns, maxTranslations int) *Assistant {
	return &Assistant{
		retriever:       retriever,
		client:          client,
		sessions:        sessions,
		recorder:        rec,
		maxHistoryTurns: maxHistoryTurns,
		maxTranslations: maxTranslations,
	}
}

// Answer runs one enquiry exchange: retrieve context, compose the prompt
// from context plus conversation history, ask the model, and record both
// turns. Model or retrieval failures come back as an in-band error
// message; the failed exchange keeps only the user turn.
func (a *Assistant) Answer(ctx context.Context, conversationID, query string) string {
	if strings.TrimSpace(query) == "" {
		return emptyQueryResponse
	}

	sess := a.sessions.Get(conversationID)
	sess.Lock()
	defer sess.Unlock()

	sess.AppendUser(query)

	results, err := a.retriever.Search(ctx, query)
	if err != nil {
		return a.failQuery(conversationID, query, err)
	}

	prompt, err := buildQueryPrompt(results, sess.Messages(), query)
	if err != nil {
		return a.failQuery(conversationID, query, err)
	}

	resp, err := a.client.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return a.failQuery(conversationID, query, err)
	}

	sess.AppendAssistant(resp.Content)
	sess.TrimHistory(a.maxHistoryTurns)

	a.record(storage.Event{
		Timestamp:         time.Now().UTC(),
		ConversationID:    conversationID,
		Kind:              storage.KindQuery,
		UserMessage:       query,
		AssistantResponse: resp.Content,
	})
	return resp.Content
}

// Translate renders the translation prompt for the model and logs the
// result on the conversation. Failures come back in-band and leave the
// translation log untouched.
func (a *Assistant) Translate(ctx context.Context, conversationID, text, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return emptyTextResponse
	}
	if targetLang == "" {
		targetLang = defaultTargetLang
	}

	sess := a.sessions.Get(conversationID)
	sess.Lock()
	defer sess.Unlock()

	prompt, err := buildTranslatePrompt(text, targetLang)
	if err != nil {
		return a.failTranslate(conversationID, text, targetLang, err)
	}

	resp, err := a.client.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return a.failTranslate(conversationID, text, targetLang, err)
	}

	sess.AddTranslation(session.Translation{
		Original:    text,
		Translation: resp.Content,
		Language:    targetLang,
		At:          time.Now().UTC(),
	})
	sess.CapTranslations(a.maxTranslations)

	a.record(storage.Event{
		Timestamp:         time.Now().UTC(),
		ConversationID:    conversationID,
		Kind:              storage.KindTranslate,
		UserMessage:       text,
		AssistantResponse: resp.Content,
		TargetLang:        targetLang,
	})
	return resp.Content
}

func (a *Assistant) failQuery(conversationID, query string, err error) string {
	log.Printf("❌ query failed for conversation %s: %v", conversationID, err)
	msg := fmt.Sprintf("I couldn't process that request. Please try again. (Error: %s)", err)
	a.record(storage.Event{
		Timestamp:         time.Now().UTC(),
		ConversationID:    conversationID,
		Kind:              storage.KindQuery,
		UserMessage:       query,
		AssistantResponse: msg,
		Failed:            true,
	})
	return msg
}

func (a *Assistant) failTranslate(conversationID, text, targetLang string, err error) string {
	log.Printf("❌ translation failed for conversation %s: %v", conversationID, err)
	msg := fmt.Sprintf("Translation failed: %s", err)
	a.record(storage.Event{
		Timestamp:         time.Now().UTC(),
		ConversationID:    conversationID,
		Kind:              storage.KindTranslate,
		UserMessage:       text,
		AssistantResponse: msg,
		TargetLang:        targetLang,
		Failed:            true,
	})
	return msg
}

func (a *Assistant) record(ev storage.Event) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.AppendInteraction(ev); err != nil {
		log.Printf("⚠️ failed to record interaction: %v", err)
	}
}

// buildQueryPrompt composes the model prompt: retrieved context, the
// conversation so far (minus the leading system message, which is stored
// but never sent), and the current question.
func buildQueryPrompt(results retrieval.Results, history []llm.Message, question string) (string, error) {
	var ctxBuf bytes.Buffer
	if err := contextTmpl.Execute(&ctxBuf, results); err != nil {
		return "", fmt.Errorf("render context: %w", err)
	}

	if len(history) > 0 && history[0].Role == "system" {
		history = history[1:]
	}

	data := struct {
		Context  string
		History  []llm.Message
		Question string
	}{
		Context:  ctxBuf.String(),
		History:  history,
		Question: question,
	}

	var buf bytes.Buffer
	if err := queryTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func buildTranslatePrompt(text, targetLang string) (string, error) {
	data := struct {
		Text       string
		TargetLang string
	}{
		Text:       text,
		TargetLang: targetLang,
	}

	var buf bytes.Buffer
	if err := translateTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render translate prompt: %w", err)
	}
	return buf.String(), nil
}
