package analytics

import (
	"strings"
	"testing"
	"time"

	"course-assistant/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{
			Timestamp:         testDate.Add(2 * time.Hour),
			ConversationID:    "conv-a",
			Kind:              storage.KindQuery,
			UserMessage:       "What courses are available?",
			AssistantResponse: "We offer...",
		},
		{
			Timestamp:         testDate.Add(4 * time.Hour),
			ConversationID:    "conv-a",
			Kind:              storage.KindTranslate,
			UserMessage:       "hello",
			AssistantResponse: "hola",
			TargetLang:        "es",
		},
		{
			Timestamp:         testDate.Add(6 * time.Hour),
			ConversationID:    "conv-b",
			Kind:              storage.KindQuery,
			UserMessage:       "Who teaches ML?",
			AssistantResponse: "I couldn't process that request. Please try again. (Error: timeout)",
			Failed:            true,
		},
		{
			Timestamp:         testDate.Add(7 * time.Hour),
			ConversationID:    "conv-b",
			Kind:              storage.KindTranslate,
			UserMessage:       "bye",
			AssistantResponse: "au revoir",
			TargetLang:        "fr",
		},
		// Next day, must not be counted
		{
			Timestamp:         testDate.AddDate(0, 0, 1),
			ConversationID:    "conv-c",
			Kind:              storage.KindQuery,
			UserMessage:       "tomorrow",
			AssistantResponse: "answer",
		},
	}

	stats := AnalyzeDailyLogs(events, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalQueries != 2 {
		t.Errorf("Expected 2 queries, got %d", stats.TotalQueries)
	}
	if stats.TotalTranslations != 2 {
		t.Errorf("Expected 2 translations, got %d", stats.TotalTranslations)
	}
	if stats.UniqueConversations != 2 {
		t.Errorf("Expected 2 unique conversations, got %d", stats.UniqueConversations)
	}
	if stats.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.Failures)
	}
	if stats.TranslationsByLang["es"] != 1 || stats.TranslationsByLang["fr"] != 1 {
		t.Errorf("Unexpected language breakdown: %v", stats.TranslationsByLang)
	}
}

func TestAnalyzeDailyLogsEmptyData(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	stats := AnalyzeDailyLogs([]storage.Event{}, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalQueries != 0 || stats.TotalTranslations != 0 || stats.UniqueConversations != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:                "2024-01-15",
		TotalQueries:        5,
		TotalTranslations:   2,
		UniqueConversations: 3,
		Failures:            1,
		TranslationsByLang:  map[string]int{"es": 2},
	}

	summary := stats.GenerateReportSummary()

	for _, expected := range []string{"2024-01-15", "Queries answered: 5", "Texts translated: 2", "Unique conversations: 3", "Failed exchanges: 1", "es: 2"} {
		if !strings.Contains(summary, expected) {
			t.Errorf("Expected summary to contain '%s'. Summary: %s", expected, summary)
		}
	}
}

func TestToJSON(t *testing.T) {
	stats := &DailyStats{
		Date:               "2024-01-15",
		TotalQueries:       1,
		TranslationsByLang: map[string]int{"es": 1},
	}

	jsonStr, err := stats.ToJSON()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(jsonStr, "2024-01-15") {
		t.Errorf("Expected JSON to contain date, got: %s", jsonStr)
	}
	if !strings.Contains(jsonStr, "translations_by_lang") {
		t.Errorf("Expected JSON to contain language breakdown, got: %s", jsonStr)
	}
}
