package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"10000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// LLM settings
	LLMProvider   Provider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey  string   `env:"GEMINI_API_KEY"`
	GeminiBaseURL string   `env:"GEMINI_BASE_URL"`
	GeminiModel   string   `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey  string   `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string   `env:"OPENAI_BASE_URL"`
	OpenAIModel   string   `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Embeddings
	EmbeddingProvider    Provider `env:"EMBEDDING_PROVIDER" envDefault:"gemini"`
	GeminiEmbeddingModel string   `env:"GEMINI_EMBEDDING_MODEL" envDefault:"text-embedding-004"`
	OpenAIEmbeddingModel string   `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Datasets
	CoursesFilePath     string `env:"COURSES_FILE_PATH" envDefault:"data/courses.json"`
	InstructorsFilePath string `env:"INSTRUCTORS_FILE_PATH" envDefault:"data/instructors.json"`

	// Retrieval
	RetrievalTopK int `env:"RETRIEVAL_TOP_K" envDefault:"3"`

	// Sessions
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	MaxHistoryTurns  int           `env:"MAX_HISTORY_TURNS" envDefault:"20"`
	MaxTranslations  int           `env:"MAX_TRANSLATIONS" envDefault:"100"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`

	// Reports
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
