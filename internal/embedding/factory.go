package embedding

import (
	"fmt"
	"strings"

	"course-assistant/internal/config"
)

func NewEncoder(cfg *config.Config) (Encoder, error) {
	switch strings.ToLower(string(cfg.EmbeddingProvider)) {
	case string(config.ProviderGemini):
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiEmbeddingModel), nil
	case string(config.ProviderOpenAI):
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIEmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}
