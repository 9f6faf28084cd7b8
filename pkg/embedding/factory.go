package embedding

import (
	"fmt"
	"time"
)

// NewProvider picks an implementation by name ("openai", "jina" or "ollama").
func NewProvider(providerType, model, baseURL, apiKey string, timeout time.Duration) (EmbeddingProvider, error) {
	switch providerType {
	case "openai", "":
		return NewOpenAIProvider(OpenAIConfig{APIKey: apiKey, Model: model, BaseURL: baseURL, Timeout: timeout})
	case "jina":
		// Jina serves the OpenAI embeddings wire format.
		if baseURL == "" {
			baseURL = "https://api.jina.ai/v1"
		}
		if model == "" {
			model = "jina-embeddings-v3"
		}
		return NewOpenAIProvider(OpenAIConfig{APIKey: apiKey, Model: model, BaseURL: baseURL, Timeout: timeout})
	case "ollama":
		return NewOllamaProvider(baseURL, model, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
