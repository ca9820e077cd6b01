package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"course-assistant/internal/catalog"
	"course-assistant/internal/llm"
	"course-assistant/internal/retrieval"
	"course-assistant/internal/session"
	"course-assistant/internal/storage"
)

type fakeClient struct {
	calls    int
	lastMsgs []llm.Message
	reply    string
	err      error
}

func (f *fakeClient) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls++
	f.lastMsgs = msgs
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply}, nil
}

type fakeRetriever struct {
	results retrieval.Results
	err     error
}

func (f *fakeRetriever) Search(_ context.Context, _ string) (retrieval.Results, error) {
	if f.err != nil {
		return retrieval.Results{}, f.err
	}
	return f.results, nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []storage.Event
}

func (r *memRecorder) AppendInteraction(ev storage.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) LoadInteractions() ([]storage.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]storage.Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

func mlResults() retrieval.Results {
	return retrieval.Results{
		Courses: []retrieval.CourseMatch{{
			Course: catalog.Course{Name: "Machine Learning Basics", Description: "Introduction to ML", Instructor: "Dr. Sarah Johnson", Duration: "8 weeks"},
			Score:  0.92,
		}},
		Instructors: []retrieval.InstructorMatch{{
			Instructor: catalog.Instructor{Name: "Dr. Sarah Johnson", Bio: "PhD in machine learning"},
			Score:      0.88,
		}},
	}
}

func newTestAssistant(t *testing.T, client *fakeClient, ret Retriever, rec storage.Recorder) (*Assistant, *session.Store) {
	t.Helper()
	st := session.NewStore(time.Hour, DefaultSystemPrompt)
	t.Cleanup(st.Stop)
	return New(ret, client, st, rec, 20, 100), st
}

func TestAnswerEmptyQuery(t *testing.T) {
	client := &fakeClient{reply: "should not be called"}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		got := a.Answer(context.Background(), "conv-a", q)
		if got != "Please enter a valid question." {
			t.Fatalf("empty query %q: got %q", q, got)
		}
	}
	if client.calls != 0 {
		t.Fatalf("model must not be contacted for empty queries, got %d calls", client.calls)
	}
	if _, ok := st.Lookup("conv-a"); ok {
		t.Fatalf("empty query must not create a session")
	}
}

func TestAnswerPromptComposition(t *testing.T) {
	client := &fakeClient{reply: "We offer Machine Learning Basics."}
	a, _ := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	got := a.Answer(context.Background(), "conv-a", "What about machine learning?")
	if got != "We offer Machine Learning Basics." {
		t.Fatalf("unexpected answer: %q", got)
	}

	if len(client.lastMsgs) != 1 || client.lastMsgs[0].Role != "user" {
		t.Fatalf("model must receive a single user message, got %+v", client.lastMsgs)
	}

	want := "Context information:\n" +
		"Relevant Courses:\n" +
		"- Machine Learning Basics: Introduction to ML (Instructor: Dr. Sarah Johnson, Duration: 8 weeks)\n" +
		"\n" +
		"Relevant Instructors:\n" +
		"- Dr. Sarah Johnson: PhD in machine learning\n" +
		"\n\n" +
		"Conversation history:\n" +
		"user: What about machine learning?\n" +
		"\n" +
		"Current question: What about machine learning?\n" +
		"\n" +
		"Please provide a helpful response based on the context and conversation history."
	if client.lastMsgs[0].Content != want {
		t.Fatalf("prompt mismatch:\n--- want ---\n%q\n--- got ---\n%q", want, client.lastMsgs[0].Content)
	}
}

func TestAnswerSystemMessageNeverSent(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	a, _ := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	a.Answer(context.Background(), "conv-a", "first question")
	a.Answer(context.Background(), "conv-a", "second question")

	for _, m := range client.lastMsgs {
		if strings.Contains(m.Content, DefaultSystemPrompt) {
			t.Fatalf("stored system message leaked into the prompt:\n%s", m.Content)
		}
	}
}

func TestAnswerHistoryOrder(t *testing.T) {
	client := &fakeClient{reply: "answer one"}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	a.Answer(context.Background(), "conv-a", "question one")
	client.reply = "answer two"
	a.Answer(context.Background(), "conv-a", "question two")

	sess, ok := st.Lookup("conv-a")
	if !ok {
		t.Fatalf("session missing")
	}
	sess.Lock()
	msgs := sess.Messages()
	sess.Unlock()

	wantRoles := []string{"system", "user", "assistant", "user", "assistant"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("want %d messages, got %d: %+v", len(wantRoles), len(msgs), msgs)
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Fatalf("message %d: want role %s, got %s", i, role, msgs[i].Role)
		}
	}
	if msgs[1].Content != "question one" || msgs[2].Content != "answer one" {
		t.Fatalf("unexpected first turn: %+v", msgs[1:3])
	}
	if msgs[3].Content != "question two" || msgs[4].Content != "answer two" {
		t.Fatalf("unexpected second turn: %+v", msgs[3:5])
	}

	// Second prompt must carry the first turn as history
	if !strings.Contains(client.lastMsgs[0].Content, "user: question one\nassistant: answer one\n") {
		t.Fatalf("second prompt missing first turn:\n%s", client.lastMsgs[0].Content)
	}
}

func TestAnswerModelFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream timeout")}
	rec := &memRecorder{}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, rec)

	got := a.Answer(context.Background(), "conv-a", "question one")
	if !strings.HasPrefix(got, "I couldn't process that request. Please try again. (Error: ") {
		t.Fatalf("unexpected failure response: %q", got)
	}
	if !strings.Contains(got, "upstream timeout") {
		t.Fatalf("failure response should carry the error: %q", got)
	}

	// Only the user turn is recorded for the failed exchange
	sess, ok := st.Lookup("conv-a")
	if !ok {
		t.Fatalf("session missing")
	}
	sess.Lock()
	msgs := sess.Messages()
	sess.Unlock()
	if len(msgs) != 2 || msgs[1].Role != "user" {
		t.Fatalf("failed exchange must keep only the user turn: %+v", msgs)
	}

	events, _ := rec.LoadInteractions()
	if len(events) != 1 || !events[0].Failed || events[0].Kind != storage.KindQuery {
		t.Fatalf("unexpected recorded events: %+v", events)
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	client := &fakeClient{reply: "never"}
	a, _ := newTestAssistant(t, client, &fakeRetriever{err: errors.New("encoder down")}, nil)

	got := a.Answer(context.Background(), "conv-a", "question one")
	if !strings.Contains(got, "encoder down") {
		t.Fatalf("retrieval failure should surface in-band: %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("model must not be called when retrieval fails")
	}
}

func TestAnswerTrimsHistory(t *testing.T) {
	client := &fakeClient{reply: "a"}
	st := session.NewStore(time.Hour, DefaultSystemPrompt)
	t.Cleanup(st.Stop)
	a := New(&fakeRetriever{results: mlResults()}, client, st, nil, 2, 100)

	for i := 0; i < 5; i++ {
		a.Answer(context.Background(), "conv-a", "question")
	}

	sess, _ := st.Lookup("conv-a")
	sess.Lock()
	msgs := sess.Messages()
	sess.Unlock()
	if len(msgs) != 5 {
		t.Fatalf("want system + 2 turns, got %d messages: %+v", len(msgs), msgs)
	}
	if msgs[0].Role != "system" {
		t.Fatalf("system message must survive trimming")
	}
}

func TestTranslate(t *testing.T) {
	client := &fakeClient{reply: "Hola"}
	rec := &memRecorder{}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, rec)

	got := a.Translate(context.Background(), "conv-a", "Hello", "")
	if got != "Hola" {
		t.Fatalf("unexpected translation: %q", got)
	}

	want := "Translate the following English text to es. \n" +
		"Keep the meaning accurate but make the translation sound natural in the target language.\n" +
		"\n" +
		"Text to translate: Hello"
	if client.lastMsgs[0].Content != want {
		t.Fatalf("prompt mismatch:\n--- want ---\n%q\n--- got ---\n%q", want, client.lastMsgs[0].Content)
	}

	sess, ok := st.Lookup("conv-a")
	if !ok {
		t.Fatalf("session missing")
	}
	sess.Lock()
	trs := sess.Translations()
	msgs := sess.Messages()
	sess.Unlock()
	if len(trs) != 1 || trs[0].Original != "Hello" || trs[0].Translation != "Hola" || trs[0].Language != "es" {
		t.Fatalf("unexpected translation log: %+v", trs)
	}
	// Translations never join the chat history
	if len(msgs) != 1 || msgs[0].Role != "system" {
		t.Fatalf("translate must not touch the message history: %+v", msgs)
	}

	events, _ := rec.LoadInteractions()
	if len(events) != 1 || events[0].Kind != storage.KindTranslate || events[0].TargetLang != "es" {
		t.Fatalf("unexpected recorded events: %+v", events)
	}
}

func TestTranslateEmptyText(t *testing.T) {
	client := &fakeClient{reply: "never"}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	got := a.Translate(context.Background(), "conv-a", "   ", "fr")
	if got != "No text to translate" {
		t.Fatalf("unexpected response: %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("model must not be contacted for empty text")
	}
	if _, ok := st.Lookup("conv-a"); ok {
		t.Fatalf("empty text must not create a session")
	}
}

func TestTranslateFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	a, st := newTestAssistant(t, client, &fakeRetriever{results: mlResults()}, nil)

	got := a.Translate(context.Background(), "conv-a", "Hello", "de")
	if !strings.HasPrefix(got, "Translation failed: ") || !strings.Contains(got, "quota exceeded") {
		t.Fatalf("unexpected failure response: %q", got)
	}

	sess, _ := st.Lookup("conv-a")
	sess.Lock()
	trs := sess.Translations()
	sess.Unlock()
	if len(trs) != 0 {
		t.Fatalf("failed translation must not be logged: %+v", trs)
	}
}

func TestAnswerEmptyCatalogContext(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	a, _ := newTestAssistant(t, client, &fakeRetriever{}, nil)

	a.Answer(context.Background(), "conv-a", "anything")
	if !strings.Contains(client.lastMsgs[0].Content, "Relevant Courses:\n\nRelevant Instructors:\n") {
		t.Fatalf("empty catalog should render empty sections:\n%q", client.lastMsgs[0].Content)
	}
}
