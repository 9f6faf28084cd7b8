package implementation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/repository/contract"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/vectorindex"
)

// PgVectorIndex serves one domain's vectors from the corpus_vectors table.
type PgVectorIndex struct {
	repo   contract.CorpusVectorRepository
	domain string
	dim    int

	mu   sync.RWMutex
	rows int
}

func NewPgVectorIndex(repo contract.CorpusVectorRepository, domain string, dim, rows int) *PgVectorIndex {
	return &PgVectorIndex{repo: repo, domain: domain, dim: dim, rows: rows}
}

func (p *PgVectorIndex) Search(ctx context.Context, query []float32, k int) ([]vectorindex.Hit, error) {
	if len(query) != p.dim {
		return nil, fmt.Errorf("%w: index %d, query %d", vectorindex.ErrDimensionMismatch, p.dim, len(query))
	}
	p.mu.RLock()
	n := p.rows
	p.mu.RUnlock()
	if k > n {
		k = n
	}
	return p.repo.SearchL2(ctx, p.domain, query, k)
}

func (p *PgVectorIndex) Add(ctx context.Context, vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != p.dim {
			return fmt.Errorf("%w: index %d, vector %d", vectorindex.ErrDimensionMismatch, p.dim, len(v))
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.repo.Append(ctx, p.domain, p.rows, vectors); err != nil {
		return err
	}
	p.rows += len(vectors)
	return nil
}

func (p *PgVectorIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rows
}

func (p *PgVectorIndex) Dimension() int {
	return p.dim
}

// vectorFingerprint hashes the dimension and every component of the matrix.
func vectorFingerprint(dim int, vectors [][]float32) string {
	h := sha256.New()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(dim))
	h.Write(buf[:])
	for _, v := range vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PgVectorOpener loads the domain's vector file and mirrors it into postgres
// when the stored rows were copied from a different matrix, then serves
// searches from the table.
func PgVectorOpener(repo contract.CorpusVectorRepository, log logger.ILogger) corpus.IndexOpener {
	return func(ctx context.Context, name router.Domain, ds corpus.DomainSpec, _ *corpus.Corpus) (vectorindex.Index, error) {
		flat, err := vectorindex.LoadFile(ds.Index)
		if err != nil {
			return nil, err
		}

		vectors := flat.Vectors()
		fingerprint := vectorFingerprint(flat.Dimension(), vectors)

		stored, err := repo.Fingerprint(ctx, string(name))
		if err != nil {
			return nil, fmt.Errorf("read vector fingerprint %s: %w", name, err)
		}
		count, err := repo.Count(ctx, string(name))
		if err != nil {
			return nil, fmt.Errorf("count vectors %s: %w", name, err)
		}

		if stored != fingerprint || int(count) != flat.Len() {
			log.Info("PgVectorIndex", "Syncing vectors into postgres", map[string]interface{}{
				"domain":      name,
				"stored_rows": count,
				"file_rows":   flat.Len(),
				"fingerprint": fingerprint[:12],
			})
			if err := repo.ReplaceDomain(ctx, string(name), fingerprint, vectors); err != nil {
				return nil, fmt.Errorf("sync vectors %s: %w", name, err)
			}
		}

		return NewPgVectorIndex(repo, string(name), flat.Dimension(), flat.Len()), nil
	}
}
