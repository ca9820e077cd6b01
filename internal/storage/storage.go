package storage

import "time"

const (
	KindQuery     = "query"
	KindTranslate = "translate"
)

// Event represents a single exchange between a visitor and the assistant.
// It is intentionally simple to allow future DB implementations.
// Events are expected to be appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	ConversationID    string    `json:"conversation_id"`
	Kind              string    `json:"kind"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	TargetLang        string    `json:"target_lang,omitempty"`
	Failed            bool      `json:"failed,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// Implementations can be file-based, database, etc.
// LoadInteractions should return events in chronological order.
// AppendInteraction should atomically append a new event.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
