package embedding

import (
	"context"
	"strings"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/rag"
	"faq-chatbot-be/pkg/resilience"

	"github.com/sony/gobreaker"
)

// EmbeddingProvider turns text into a dense vector.
// Blank input yields rag.ErrEmptyInput; transport failures yield *rag.ServiceError.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func checkInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return rag.ErrEmptyInput
	}
	return nil
}

// BreakerProvider guards another provider with a circuit breaker.
type BreakerProvider struct {
	inner EmbeddingProvider
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerProvider(inner EmbeddingProvider, log logger.ILogger) *BreakerProvider {
	return &BreakerProvider{
		inner: inner,
		cb:    resilience.NewBreaker(resilience.DefaultBreakerConfig("embedding"), log),
	}
}

func (p *BreakerProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	// input errors are the caller's fault and must not trip the breaker
	if err := checkInput(text); err != nil {
		return nil, err
	}
	vec, err := resilience.Execute(p.cb, func() ([]float32, error) {
		return p.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, rag.NewServiceError("embedding", err)
	}
	return vec, nil
}
