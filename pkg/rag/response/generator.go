package response

import (
	"context"
	"strings"
	"time"

	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/rag"
)

const answerTemperature = 0.2

// Generator makes the single grounded completion call of a request.
type Generator struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	model       string
}

func NewGenerator(llmProvider llm.LLMProvider, timeout time.Duration, model string) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{llmProvider: llmProvider, timeout: timeout, model: model}
}

// Generate returns the trimmed answer. Failures are *rag.ServiceError.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := []llm.Option{llm.WithTemperature(answerTemperature)}
	if g.model != "" {
		opts = append(opts, llm.WithModel(g.model))
	}

	out, err := g.llmProvider.Chat(ctx, llm.SystemAndUser(systemPrompt, userPrompt), opts...)
	if err != nil {
		return "", rag.NewServiceError("answer generation", err)
	}
	return strings.TrimSpace(out), nil
}
