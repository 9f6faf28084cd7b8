package llm

import (
	"context"
	"errors"
	"testing"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/rag"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	opts := Apply(Options{Temperature: 0.7, Model: "base"}, WithTemperature(0.2), WithMaxTokens(100))
	assert.Equal(t, Options{Temperature: 0.2, MaxTokens: 100, Model: "base"}, opts)
}

func TestSplitSystem(t *testing.T) {
	history := []Message{
		{Role: RoleSystem, Content: "rule one"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "rule two"},
		{Role: RoleAssistant, Content: "hello"},
	}

	system, rest := SplitSystem(history)
	assert.Equal(t, "rule one\n\nrule two", system)
	assert.Equal(t, []Message{history[1], history[3]}, rest)
}

type failingProvider struct{ err error }

func (f failingProvider) Chat(context.Context, []Message, ...Option) (string, error) {
	return "", f.err
}

func (f failingProvider) Generate(ctx context.Context, p string, o ...Option) (string, error) {
	return f.Chat(ctx, nil, o...)
}

func TestBreakerProviderWrapsServiceError(t *testing.T) {
	p := NewBreakerProvider("test", failingProvider{err: errors.New("503")}, logger.NewNopLogger())

	_, err := p.Generate(context.Background(), "q")
	assert.True(t, rag.IsServiceError(err))

	ok := NewBreakerProvider("ok", failingProvider{}, logger.NewNopLogger())
	out, err := ok.Chat(context.Background(), SystemAndUser("s", "u"))
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestBreakerProviderName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"openai", "llm-openai"},
		{"openai-rewrite", "llm-openai-rewrite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBreakerProvider(tt.name, failingProvider{}, logger.NewNopLogger())
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
