package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"faq-chatbot-be/internal/config"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/repository/memory"
	"faq-chatbot-be/internal/repository/rediscache"
	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/logsink"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsDatabase(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		sinks   []string
		want    bool
	}{
		{"flat with file sink", "flat", []string{"file"}, false},
		{"pgvector backend", "pgvector", []string{"file"}, true},
		{"db sink", "flat", []string{"file", "db"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Corpus: config.CorpusConfig{IndexBackend: tt.backend},
				Sinks:  config.SinkConfig{Enabled: tt.sinks},
			}
			assert.Equal(t, tt.want, needsDatabase(cfg))
		})
	}
}

func TestProvideIndexOpener(t *testing.T) {
	log := logger.NewNopLogger()

	opener, err := provideIndexOpener(&config.Config{}, nil, log)
	require.NoError(t, err)
	assert.NotNil(t, opener)

	_, err = provideIndexOpener(&config.Config{Corpus: config.CorpusConfig{IndexBackend: "faiss"}}, nil, log)
	assert.Error(t, err)
}

func TestProvideSinkSkipsUnavailable(t *testing.T) {
	cfg := &config.Config{
		Sinks: config.SinkConfig{
			Enabled:  []string{"file", "nats", "carrier-pigeon"},
			FilePath: filepath.Join(t.TempDir(), "chat.jsonl"),
		},
	}

	sinks, closers := provideSink(context.Background(), cfg, nil, nil, logger.NewNopLogger())
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	require.Len(t, sinks, 1)
	assert.IsType(t, &logsink.FileSink{}, sinks[0])
	assert.Len(t, closers, 1)
}

func TestProvideSessionsDefaultsToMemory(t *testing.T) {
	cfg := &config.Config{Session: config.SessionConfig{Backend: "memory", MaxTurns: 10}}

	sessions, closer := provideSessions(context.Background(), cfg, logger.NewNopLogger())
	assert.IsType(t, &memory.SessionRepository{}, sessions)
	assert.Nil(t, closer)
}

func TestProvideSessionsRedis(t *testing.T) {
	t.Run("unreachable server falls back to memory", func(t *testing.T) {
		cfg := &config.Config{
			App:     config.AppConfig{RedisURL: "redis://127.0.0.1:1/0"},
			Session: config.SessionConfig{Backend: "redis", MaxTurns: 10},
		}
		sessions, closer := provideSessions(context.Background(), cfg, logger.NewNopLogger())
		assert.IsType(t, &memory.SessionRepository{}, sessions)
		assert.Nil(t, closer)
	})

	t.Run("live server registers a closer", func(t *testing.T) {
		url := os.Getenv("REDIS_URL")
		if url == "" {
			t.Skip("Skipping integration test: REDIS_URL not set")
		}
		cfg := &config.Config{
			App:     config.AppConfig{RedisURL: url},
			Session: config.SessionConfig{Backend: "redis", TTL: time.Minute, MaxTurns: 10},
		}
		sessions, closer := provideSessions(context.Background(), cfg, logger.NewNopLogger())
		assert.IsType(t, &rediscache.SessionRepository{}, sessions)
		require.NotNil(t, closer)
		closer()
	})
}

// countingLLM fails every call and counts how many reached it.
type countingLLM struct{ calls int }

func (c *countingLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	c.calls++
	return "", errors.New("deadline exceeded")
}

func (c *countingLLM) Generate(ctx context.Context, p string, o ...llm.Option) (string, error) {
	return c.Chat(ctx, nil, o...)
}

func TestGuardLLM(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("breaker disabled passes the provider through", func(t *testing.T) {
		inner := &countingLLM{}
		answer, rewriter := guardLLM(&config.Config{}, inner, log)
		assert.Same(t, inner, answer)
		assert.Same(t, inner, rewriter)
	})

	t.Run("rewrite failures leave the answer breaker closed", func(t *testing.T) {
		inner := &countingLLM{}
		cfg := &config.Config{Ai: config.AIConfig{LLMProvider: "openai", BreakerEnabled: true}}
		answer, rewriter := guardLLM(cfg, inner, log)

		require.IsType(t, &llm.BreakerProvider{}, answer)
		require.IsType(t, &llm.BreakerProvider{}, rewriter)
		assert.Equal(t, "llm-openai", answer.(*llm.BreakerProvider).Name())
		assert.Equal(t, "llm-openai-rewrite", rewriter.(*llm.BreakerProvider).Name())

		ctx := context.Background()
		for i := 0; i < 5; i++ {
			_, _ = rewriter.Generate(ctx, "rewrite")
		}
		_, err := rewriter.Generate(ctx, "rewrite")
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 5, inner.calls)

		_, err = answer.Generate(ctx, "answer")
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 6, inner.calls)
	})
}
