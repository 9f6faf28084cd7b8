package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Session  SessionConfig
	Corpus   CorpusConfig
	Sinks    SinkConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RagLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	EmbeddingTimeout  time.Duration

	LLMProvider string // "openai", "anthropic", "openrouter", "ollama"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string
	LLMTimeout  time.Duration

	RewriteModel   string // model used for query rewriting; answers use LLMModel
	RewriteTimeout time.Duration
	BreakerEnabled bool
}

type SessionConfig struct {
	Backend       string // "memory" or "redis"
	TTL           time.Duration
	MaxTurns      int
	SweepInterval time.Duration
}

type CorpusConfig struct {
	ManifestPath     string
	SystemPromptPath string
	IndexBackend     string // "flat" or "pgvector"
	Watch            bool
}

type SinkConfig struct {
	Enabled         []string // any of "file", "sheets", "db", "nats"
	FilePath        string
	SpreadsheetID   string
	CredentialsFile string
	UnansweredSheet string
	ChatSheet       string
	FeedbackSheet   string
}

type AuthConfig struct {
	JWTSecret string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RagLogFilePath:     getEnv("RAG_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", "")),
			EmbeddingTimeout:  getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			RewriteModel:      getEnv("REWRITE_MODEL", "gpt-4o"),
			RewriteTimeout:    getEnvAsDuration("REWRITE_TIMEOUT", 10*time.Second),
			BreakerEnabled:    getEnvAsBool("CIRCUIT_BREAKER_ENABLED", true),
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", "memory"),
			TTL:           getEnvAsDuration("SESSION_TTL", 1800*time.Second),
			MaxTurns:      getEnvAsInt("SESSION_MAX_TURNS", 10),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 0),
		},
		Corpus: CorpusConfig{
			ManifestPath:     getEnv("CORPUS_MANIFEST", "data/corpus.yaml"),
			SystemPromptPath: getEnv("SYSTEM_PROMPT_PATH", "system_prompt.txt"),
			IndexBackend:     getEnv("INDEX_BACKEND", "flat"),
			Watch:            getEnvAsBool("CORPUS_WATCH", false),
		},
		Sinks: SinkConfig{
			Enabled:         getEnvAsList("LOG_SINKS", []string{"file"}),
			FilePath:        getEnv("CHAT_LOG_FILE_PATH", "logs/chat_records.jsonl"),
			SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", "credentials.json"),
			UnansweredSheet: getEnv("SHEET_UNANSWERED", "faq_suggestions_reserve"),
			ChatSheet:       getEnv("SHEET_CHAT", "chat_logs_reserve"),
			FeedbackSheet:   getEnv("SHEET_FEEDBACK", "feedback_log_reserve"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// Accepts Go durations ("90s") or bare seconds ("1800").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
