package llm

import (
	"context"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/rag"
	"faq-chatbot-be/pkg/resilience"

	"github.com/sony/gobreaker"
)

// BreakerProvider guards another provider with a circuit breaker and
// reports every failure as *rag.ServiceError.
type BreakerProvider struct {
	inner LLMProvider
	cb    *gobreaker.CircuitBreaker
}

var _ LLMProvider = (*BreakerProvider)(nil)

func NewBreakerProvider(name string, inner LLMProvider, log logger.ILogger) *BreakerProvider {
	return &BreakerProvider{
		inner: inner,
		cb:    resilience.NewBreaker(resilience.DefaultBreakerConfig("llm-"+name), log),
	}
}

// Name is the breaker name used in state-change logs.
func (p *BreakerProvider) Name() string {
	return p.cb.Name()
}

func (p *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	out, err := resilience.Execute(p.cb, func() (string, error) {
		return p.inner.Chat(ctx, history, options...)
	})
	return out, rag.NewServiceError("chat completion", err)
}

func (p *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}
