package bootstrap

import (
	"context"
	"fmt"
	"time"

	"faq-chatbot-be/internal/config"
	"faq-chatbot-be/internal/model"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/repository/implementation"
	"faq-chatbot-be/internal/repository/memory"
	"faq-chatbot-be/internal/repository/rediscache"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/database"
	"faq-chatbot-be/pkg/embedding"
	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/llm/factory"
	"faq-chatbot-be/pkg/logsink"
	pktNats "faq-chatbot-be/pkg/nats"
	"faq-chatbot-be/pkg/store"

	"gorm.io/gorm"
)

func provideEmbedding(cfg *config.Config, log logger.ILogger) (embedding.EmbeddingProvider, error) {
	provider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingBaseURL,
		cfg.Ai.EmbeddingAPIKey,
		cfg.Ai.EmbeddingTimeout,
	)
	if err != nil {
		return nil, err
	}
	log.Info("Bootstrap", "Embedding provider ready", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"model":    cfg.Ai.EmbeddingModel,
	})
	if cfg.Ai.BreakerEnabled {
		return embedding.NewBreakerProvider(provider, log), nil
	}
	return provider, nil
}

func provideLLM(ctx context.Context, cfg *config.Config, log logger.ILogger) (llm.LLMProvider, error) {
	provider, err := factory.NewLLMProvider(ctx, factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider":      cfg.Ai.LLMProvider,
		"model":         cfg.Ai.LLMModel,
		"rewrite_model": cfg.Ai.RewriteModel,
	})
	return provider, nil
}

// guardLLM gives the answer and rewrite stages separate breakers over the
// same provider, so rewrite timeouts never open the answer breaker.
func guardLLM(cfg *config.Config, provider llm.LLMProvider, log logger.ILogger) (answer, rewriter llm.LLMProvider) {
	if !cfg.Ai.BreakerEnabled {
		return provider, provider
	}
	answer = llm.NewBreakerProvider(cfg.Ai.LLMProvider, provider, log)
	rewriter = llm.NewBreakerProvider(cfg.Ai.LLMProvider+"-rewrite", provider, log)
	return answer, rewriter
}

// provideSessions falls back to the in-memory store when redis is unreachable.
// The returned closer releases the redis client and is nil for the memory store.
func provideSessions(ctx context.Context, cfg *config.Config, log logger.ILogger) (store.SessionStore, func()) {
	memoryStore := func() store.SessionStore {
		return memory.NewSessionRepository(
			cfg.Session.SweepInterval,
			memory.WithTTL(cfg.Session.TTL),
			memory.WithMaxTurns(cfg.Session.MaxTurns),
		)
	}

	if cfg.Session.Backend != "redis" {
		return memoryStore(), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := rediscache.NewClient(pingCtx, cfg.App.RedisURL)
	if err != nil {
		_ = client.Close()
		log.Warn("Bootstrap", "Redis unavailable, using in-memory sessions", map[string]interface{}{"error": err.Error()})
		return memoryStore(), nil
	}
	closeClient := func() { _ = client.Close() }
	return rediscache.NewSessionRepository(client, log, cfg.Session.TTL, cfg.Session.MaxTurns), closeClient
}

func needsDatabase(cfg *config.Config) bool {
	return cfg.Corpus.IndexBackend == "pgvector" || wantsSink(cfg, "db")
}

func provideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db, &model.ChatLog{}, &model.CorpusVector{}, &model.CorpusVectorSet{}); err != nil {
		return nil, err
	}
	return db, nil
}

func provideIndexOpener(cfg *config.Config, db *gorm.DB, log logger.ILogger) (corpus.IndexOpener, error) {
	switch cfg.Corpus.IndexBackend {
	case "", "flat":
		return corpus.OpenFlatIndex, nil
	case "pgvector":
		return implementation.PgVectorOpener(implementation.NewCorpusVectorRepository(db), log), nil
	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.Corpus.IndexBackend)
	}
}

// provideSink builds the fan-out of every enabled log sink. Unavailable
// optional sinks are skipped with a warning; the file sink always works.
func provideSink(ctx context.Context, cfg *config.Config, db *gorm.DB, natsPub *pktNats.Publisher, log logger.ILogger) (logsink.Multi, []func()) {
	var sinks logsink.Multi
	var closers []func()

	for _, name := range cfg.Sinks.Enabled {
		switch name {
		case "file":
			fs := logsink.NewFileSink(cfg.Sinks.FilePath)
			sinks = append(sinks, fs)
			closers = append(closers, func() { _ = fs.Close() })
		case "sheets":
			sheets, err := logsink.NewSheetsSinkFromCredentials(ctx, cfg.Sinks.CredentialsFile, logsink.SheetsConfig{
				SpreadsheetID: cfg.Sinks.SpreadsheetID,
				Sheets: map[logsink.Stream]string{
					logsink.StreamUnanswered: cfg.Sinks.UnansweredSheet,
					logsink.StreamChat:       cfg.Sinks.ChatSheet,
					logsink.StreamFeedback:   cfg.Sinks.FeedbackSheet,
				},
			})
			if err != nil {
				log.Warn("Bootstrap", "Sheets sink disabled", map[string]interface{}{"error": err.Error()})
				continue
			}
			sinks = append(sinks, sheets)
		case "db":
			sinks = append(sinks, implementation.NewChatLogSink(implementation.NewChatLogRepository(db)))
		case "nats":
			if natsPub == nil {
				log.Warn("Bootstrap", "NATS sink disabled: no publisher", nil)
				continue
			}
			sinks = append(sinks, pktNats.NewSink(natsPub))
		default:
			log.Warn("Bootstrap", "Unknown log sink ignored", map[string]interface{}{"sink": name})
		}
	}

	return sinks, closers
}

func wantsSink(cfg *config.Config, name string) bool {
	for _, s := range cfg.Sinks.Enabled {
		if s == name {
			return true
		}
	}
	return false
}
