package factory

import (
	"context"
	"fmt"
	"time"

	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/llm/fantasy"
	"faq-chatbot-be/pkg/llm/ollama"
	"faq-chatbot-be/pkg/llm/openaicompat"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Timeout), nil
	case "openai", "anthropic", "openrouter":
		return fantasy.NewProvider(ctx, fantasy.Config{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
		})
	case "compatible", "huggingface":
		return openaicompat.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
