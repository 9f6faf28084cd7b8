package search

import (
	"context"
	"fmt"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/embedding"
	"faq-chatbot-be/pkg/rag"
)

// Hit is a decoded search result in retrieval order.
type Hit struct {
	Entry    corpus.Entry
	Position int
	Distance float32
}

// Config encapsulates search parameters
type Config struct {
	TopK int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{TopK: 7}
}

// Orchestrator embeds a query, searches the domain index and decodes positions.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
	config            Config
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, log logger.ILogger, config Config) *Orchestrator {
	if config.TopK <= 0 {
		config = DefaultConfig()
	}
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            log,
		config:            config,
	}
}

// Retrieve returns hits ordered by ascending distance. Positions beyond the
// corpus are skipped. Zero raw hits is rag.ErrNoResults.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, domain *corpus.Domain) ([]Hit, error) {
	vec, err := o.embeddingProvider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	raw, err := domain.Index.Search(ctx, vec, o.config.TopK)
	if err != nil {
		return nil, rag.NewServiceError("vector search", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: domain %s", rag.ErrNoResults, domain.Name)
	}

	hits := make([]Hit, 0, len(raw))
	for _, h := range raw {
		entry, ok := domain.Corpus.At(h.Position)
		if !ok {
			o.logger.Debug("SEARCH", "Skipping out-of-range position", map[string]interface{}{
				"domain":      domain.Name,
				"position":    h.Position,
				"corpus_size": domain.Corpus.Len(),
			})
			continue
		}
		hits = append(hits, Hit{Entry: entry, Position: h.Position, Distance: h.Distance})
	}

	o.logger.Debug("SEARCH", "Retrieved candidates", map[string]interface{}{
		"domain":  domain.Name,
		"query":   query,
		"raw":     len(raw),
		"decoded": len(hits),
	})
	return hits, nil
}
