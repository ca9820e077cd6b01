package session

import (
	"sync"
	"time"

	"course-assistant/internal/llm"
)

type Translation struct {
	Original    string    `json:"original"`
	Translation string    `json:"translation"`
	Language    string    `json:"language"`
	At          time.Time `json:"at"`
}

// Session is one conversation. The embedded mutex serializes a whole
// exchange (append user, call the model, append assistant); callers must
// hold it around any method below.
type Session struct {
	sync.Mutex

	id           string
	createdAt    time.Time
	messages     []llm.Message
	translations []Translation
}

func newSession(id, systemPrompt string) *Session {
	s := &Session{id: id, createdAt: time.Now().UTC()}
	if systemPrompt != "" {
		s.messages = append(s.messages, llm.Message{Role: "system", Content: systemPrompt})
	}
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) AppendUser(content string) {
	s.messages = append(s.messages, llm.Message{Role: "user", Content: content})
}

func (s *Session) AppendAssistant(content string) {
	s.messages = append(s.messages, llm.Message{Role: "assistant", Content: content})
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) AddTranslation(t Translation) {
	s.translations = append(s.translations, t)
}

// Translations returns a copy of the translation log.
func (s *Session) Translations() []Translation {
	out := make([]Translation, len(s.translations))
	copy(out, s.translations)
	return out
}

// TrimHistory drops the oldest turns so that at most maxUserTurns user
// messages remain. The leading system message always survives; assistant
// replies ride along with the user message they follow. maxUserTurns <= 0
// disables trimming.
func (s *Session) TrimHistory(maxUserTurns int) {
	if maxUserTurns <= 0 {
		return
	}
	users := 0
	for _, m := range s.messages {
		if m.Role == "user" {
			users++
		}
	}
	if users <= maxUserTurns {
		return
	}

	// Start of the suffix to keep: the first user turn that survives
	skip := users - maxUserTurns
	seen := 0
	start := len(s.messages)
	for i, m := range s.messages {
		if m.Role == "user" {
			if seen == skip {
				start = i
				break
			}
			seen++
		}
	}

	var kept []llm.Message
	for _, m := range s.messages[:start] {
		if m.Role == "system" {
			kept = append(kept, m)
		}
	}
	s.messages = append(kept, s.messages[start:]...)
}

// CapTranslations keeps only the most recent max entries.
func (s *Session) CapTranslations(max int) {
	if max <= 0 || len(s.translations) <= max {
		return
	}
	s.translations = append([]Translation(nil), s.translations[len(s.translations)-max:]...)
}
