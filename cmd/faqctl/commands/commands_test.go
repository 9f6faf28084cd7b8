package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/events"
	"faq-chatbot-be/pkg/vectorindex"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStatsTable(t *testing.T) {
	rows, failed := statsTable([]corpus.DomainStats{
		{Domain: router.DomainGeneral, FAQ: 3, Knowledge: 2, Vectors: 5, Dimension: 8},
		{Domain: router.DomainReserve, FAQ: 1, Knowledge: 1, Vectors: 3, Dimension: 8, Drift: 1},
	})

	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"general", "3", "2", "5", "8", "0"}, rows[0])
	assert.Equal(t, "1", rows[1][5])
}

func TestFormatEvent(t *testing.T) {
	event := events.BaseEvent{
		Type: "chat.unanswered",
		Data: map[string]interface{}{
			"values": []interface{}{"2024-01-02 03:04:05", "送料は？", "未回答", "1"},
		},
		OccurredAt: time.Now(),
	}

	assert.Equal(t, "[unanswered] 2024-01-02 03:04:05 | 送料は？ | 未回答 | 1", formatEvent(event))
}

type mapEmbedder map[string][]float32

func (m mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec, ok := m[text]
	if !ok {
		return nil, errors.New("unknown text " + text)
	}
	return vec, nil
}

func TestCheckEmbeddings(t *testing.T) {
	c := corpus.New(
		[]corpus.FaqEntry{{Question: "送料は？", Answer: "無料"}, {Question: "営業時間は？", Answer: "9時"}},
		[]corpus.KnowledgeEntry{{Category: "発送", Text: "翌日"}},
	)
	idx, err := vectorindex.NewFlatL2FromVectors([][]float32{{0, 0}, {5, 5}, {9, 0}})
	require.NoError(t, err)
	d := &corpus.Domain{Name: router.DomainGeneral, Corpus: c, Index: idx}

	tests := []struct {
		name       string
		embedder   mapEmbedder
		n          int
		checked    int
		mismatched []int
		wantErr    bool
	}{
		{
			name:     "all rows match",
			embedder: mapEmbedder{"送料は？": {0.1, 0}, "営業時間は？": {5, 4.9}, "発送：翌日": {8.8, 0}},
			n:        10,
			checked:  3,
		},
		{
			name:       "swapped rows are reported",
			embedder:   mapEmbedder{"送料は？": {5, 5}, "営業時間は？": {0, 0}},
			n:          2,
			checked:    2,
			mismatched: []int{0, 1},
		},
		{
			name:     "embedding failure stops the check",
			embedder: mapEmbedder{},
			n:        1,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := checkEmbeddings(context.Background(), tt.embedder, d, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.checked, res.Checked)
			assert.Equal(t, tt.mismatched, res.Mismatched)
		})
	}
}

func TestEmbedCheckTable(t *testing.T) {
	rows, total := embedCheckTable([]embedCheckResult{
		{Domain: "general", Checked: 5},
		{Domain: "reserve", Checked: 5, Mismatched: []int{3, 4}},
	})
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"general", "5", "0", "-"}, rows[0])
	assert.Equal(t, []string{"reserve", "5", "2", "3"}, rows[1])
}

func TestConvertIndex(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "reserve_vector_data.npy")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, npyio.Write(f, mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})))
	require.NoError(t, f.Close())

	dst := filepath.Join(dir, "reserve.flat")
	idx, err := convertIndex(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	back, err := vectorindex.LoadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Dimension())
	assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, back.Vectors())

	_, err = convertIndex(filepath.Join(dir, "missing.npy"), dst)
	assert.Error(t, err)
}
