package contract

import (
	"context"

	"faq-chatbot-be/pkg/vectorindex"
)

type CorpusVectorRepository interface {
	// ReplaceDomain deletes the domain's rows, inserts vectors at positions 0..n-1
	// and records fingerprint as the source of the new rows.
	ReplaceDomain(ctx context.Context, domain, fingerprint string, vectors [][]float32) error
	// Fingerprint returns the recorded source of the domain's rows, or "" when unknown.
	Fingerprint(ctx context.Context, domain string) (string, error)
	Count(ctx context.Context, domain string) (int64, error)
	SearchL2(ctx context.Context, domain string, query []float32, limit int) ([]vectorindex.Hit, error)
	// Append adds rows after start and forgets the recorded fingerprint.
	Append(ctx context.Context, domain string, start int, vectors [][]float32) error
}
