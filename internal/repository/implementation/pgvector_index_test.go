package implementation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"faq-chatbot-be/internal/model"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/database"
	"faq-chatbot-be/pkg/logsink"
	"faq-chatbot-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVectorRepo struct {
	rows         map[string][][]float32
	fingerprints map[string]string
	replaced     int
	searched     int
}

func newFakeVectorRepo() *fakeVectorRepo {
	return &fakeVectorRepo{rows: map[string][][]float32{}, fingerprints: map[string]string{}}
}

func (f *fakeVectorRepo) ReplaceDomain(_ context.Context, domain, fingerprint string, vectors [][]float32) error {
	f.replaced++
	f.rows[domain] = append([][]float32(nil), vectors...)
	f.fingerprints[domain] = fingerprint
	return nil
}

func (f *fakeVectorRepo) Fingerprint(_ context.Context, domain string) (string, error) {
	return f.fingerprints[domain], nil
}

func (f *fakeVectorRepo) Append(_ context.Context, domain string, _ int, vectors [][]float32) error {
	f.rows[domain] = append(f.rows[domain], vectors...)
	delete(f.fingerprints, domain)
	return nil
}

func (f *fakeVectorRepo) Count(_ context.Context, domain string) (int64, error) {
	return int64(len(f.rows[domain])), nil
}

func (f *fakeVectorRepo) SearchL2(ctx context.Context, domain string, query []float32, limit int) ([]vectorindex.Hit, error) {
	f.searched++
	idx := vectorindex.NewFlatL2(len(query))
	if err := idx.Add(ctx, f.rows[domain]); err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, limit)
}

func writeFlat(t *testing.T, vectors [][]float32) string {
	t.Helper()
	idx := vectorindex.NewFlatL2(len(vectors[0]))
	require.NoError(t, idx.Add(context.Background(), vectors))
	path := filepath.Join(t.TempDir(), "vectors.idx")
	require.NoError(t, idx.Save(path))
	return path
}

func TestPgVectorOpenerSyncsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeVectorRepo()
	path := writeFlat(t, [][]float32{{0, 0}, {1, 0}, {5, 5}})
	open := PgVectorOpener(repo, logger.NewNopLogger())

	idx, err := open(ctx, router.DomainGeneral, corpus.DomainSpec{Index: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.replaced)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	// The stored rows came from the same file, so a second open does not rewrite the table.
	_, err = open(ctx, router.DomainGeneral, corpus.DomainSpec{Index: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.replaced)

	hits, err := idx.Search(ctx, []float32{0.9, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Position)
}

func TestPgVectorOpenerResyncsWhenVectorsChange(t *testing.T) {
	ctx := context.Background()
	repo := newFakeVectorRepo()
	open := PgVectorOpener(repo, logger.NewNopLogger())

	_, err := open(ctx, router.DomainReserve, corpus.DomainSpec{Index: writeFlat(t, [][]float32{{0, 0}, {9, 9}})}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, repo.replaced)

	// Same row count, different rows: the table must follow the file.
	idx, err := open(ctx, router.DomainReserve, corpus.DomainSpec{Index: writeFlat(t, [][]float32{{9, 9}, {0, 0}})}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.replaced)

	hits, err := idx.Search(ctx, []float32{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Position)
}

func TestPgVectorOpenerResyncsAfterAppend(t *testing.T) {
	ctx := context.Background()
	repo := newFakeVectorRepo()
	path := writeFlat(t, [][]float32{{0, 0}, {1, 1}})
	open := PgVectorOpener(repo, logger.NewNopLogger())

	idx, err := open(ctx, router.DomainGeneral, corpus.DomainSpec{Index: path}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, [][]float32{{2, 2}}))

	_, err = open(ctx, router.DomainGeneral, corpus.DomainSpec{Index: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.replaced)
	assert.Len(t, repo.rows[string(router.DomainGeneral)], 2)
}

func TestVectorFingerprint(t *testing.T) {
	tests := []struct {
		name  string
		a, b  [][]float32
		dimA  int
		dimB  int
		equal bool
	}{
		{"identical", [][]float32{{1, 2}, {3, 4}}, [][]float32{{1, 2}, {3, 4}}, 2, 2, true},
		{"swapped rows", [][]float32{{1, 2}, {3, 4}}, [][]float32{{3, 4}, {1, 2}}, 2, 2, false},
		{"changed value", [][]float32{{1, 2}}, [][]float32{{1, 2.5}}, 2, 2, false},
		{"reshaped", [][]float32{{1, 2, 3, 4}}, [][]float32{{1, 2}, {3, 4}}, 4, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := vectorFingerprint(tt.dimA, tt.a)
			b := vectorFingerprint(tt.dimB, tt.b)
			assert.Len(t, a, 64)
			assert.Equal(t, tt.equal, a == b)
		})
	}
}

func TestPgVectorIndexRejectsWrongDimension(t *testing.T) {
	repo := newFakeVectorRepo()
	idx := NewPgVectorIndex(repo, "general", 3, 0)

	_, err := idx.Search(context.Background(), []float32{1, 2}, 1)
	assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
	assert.Zero(t, repo.searched)

	assert.ErrorIs(t, idx.Add(context.Background(), [][]float32{{1}}), vectorindex.ErrDimensionMismatch)
	require.NoError(t, idx.Add(context.Background(), [][]float32{{1, 2, 3}}))
	assert.Equal(t, 1, idx.Len())
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &model.ChatLog{}, &model.CorpusVector{}, &model.CorpusVectorSet{}))

	ctx := context.Background()

	t.Run("vector search orders by L2", func(t *testing.T) {
		repo := NewCorpusVectorRepository(db)
		domain := "itest"
		require.NoError(t, repo.ReplaceDomain(ctx, domain, "fp-1", [][]float32{{0, 0}, {3, 4}, {1, 1}}))

		fp, err := repo.Fingerprint(ctx, domain)
		require.NoError(t, err)
		assert.Equal(t, "fp-1", fp)

		hits, err := repo.SearchL2(ctx, domain, []float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, 0, hits[0].Position)
		assert.Equal(t, 2, hits[1].Position)
		assert.InDelta(t, 2.0, hits[1].Distance, 1e-4)

		require.NoError(t, repo.ReplaceDomain(ctx, domain, "fp-2", nil))
	})

	t.Run("chat log sink", func(t *testing.T) {
		repo := NewChatLogRepository(db)
		before, err := repo.CountByStream(ctx, string(logsink.StreamFeedback))
		require.NoError(t, err)

		sink := NewChatLogSink(repo)
		require.NoError(t, sink.Append(ctx, logsink.NewFeedbackRow(time.Now(), "q", "a", "1", "")))

		after, err := repo.CountByStream(ctx, string(logsink.StreamFeedback))
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})
}
