package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FlatL2 is an exhaustive index. Distances are squared euclidean, matching
// the flat L2 indices the stored vector dumps were produced for.
type FlatL2 struct {
	mu   sync.RWMutex
	dim  int
	data []float32 // row-major, Len()*dim values
}

var _ Index = (*FlatL2)(nil)

func NewFlatL2(dim int) *FlatL2 {
	return &FlatL2{dim: dim}
}

// NewFlatL2FromVectors builds an index from rows that must all share one dimension.
func NewFlatL2FromVectors(vectors [][]float32) (*FlatL2, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}
	idx := NewFlatL2(len(vectors[0]))
	if err := idx.Add(context.Background(), vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

func (f *FlatL2) Dimension() int {
	return f.dim
}

func (f *FlatL2) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

func (f *FlatL2) Add(_ context.Context, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: row %d has %d, index has %d", ErrDimensionMismatch, i, len(v), f.dim)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

func (f *FlatL2) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.data) / f.dim
	hits := make([]Hit, 0, n)
	for p := 0; p < n; p++ {
		if p%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := f.data[p*f.dim : (p+1)*f.dim]
		hits = append(hits, Hit{Position: p, Distance: squaredL2(query, row)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Vectors returns a copy of every stored row in position order.
func (f *FlatL2) Vectors() [][]float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := 0
	if f.dim > 0 {
		n = len(f.data) / f.dim
	}
	out := make([][]float32, n)
	for p := range out {
		row := make([]float32, f.dim)
		copy(row, f.data[p*f.dim:(p+1)*f.dim])
		out[p] = row
	}
	return out
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
