package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"course-assistant/internal/storage"
)

// DailyStats aggregates one day of assistant usage.
type DailyStats struct {
	Date                string         `json:"date"`
	TotalQueries        int            `json:"total_queries"`
	TotalTranslations   int            `json:"total_translations"`
	UniqueConversations int            `json:"unique_conversations"`
	Failures            int            `json:"failures"`
	TranslationsByLang  map[string]int `json:"translations_by_lang"`
}

// AnalyzeDailyLogs filters events down to the given date and aggregates them.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:               startOfDay.Format("2006-01-02"),
		TranslationsByLang: make(map[string]int),
	}

	uniqueConversations := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}

		uniqueConversations[event.ConversationID] = true
		if event.Failed {
			stats.Failures++
		}

		switch event.Kind {
		case storage.KindQuery:
			stats.TotalQueries++
		case storage.KindTranslate:
			stats.TotalTranslations++
			if event.TargetLang != "" {
				stats.TranslationsByLang[event.TargetLang]++
			}
		}
	}

	stats.UniqueConversations = len(uniqueConversations)
	return stats
}

// GenerateReportSummary renders the stats as a short human-readable report.
func (ds *DailyStats) GenerateReportSummary() string {
	summary := fmt.Sprintf(`Course assistant usage for %s:

Overall activity:
- Queries answered: %d
- Texts translated: %d
- Unique conversations: %d
- Failed exchanges: %d

`, ds.Date, ds.TotalQueries, ds.TotalTranslations, ds.UniqueConversations, ds.Failures)

	if len(ds.TranslationsByLang) > 0 {
		summary += "Translations by target language:\n"
		langs := make([]string, 0, len(ds.TranslationsByLang))
		for lang := range ds.TranslationsByLang {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			summary += fmt.Sprintf("- %s: %d\n", lang, ds.TranslationsByLang[lang])
		}
	}

	return summary
}

// ToJSON serializes the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
