package vectorindex

import (
	"context"
	"errors"
)

// Hit is one nearest-neighbour result. Position indexes the corpus the index was built from.
type Hit struct {
	Position int
	Distance float32
}

// Index is an exact or approximate kNN index over L2 distance.
// Search returns at most k hits ordered by ascending distance.
type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Add(ctx context.Context, vectors [][]float32) error
	Len() int
	Dimension() int
}

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrBadFormat         = errors.New("unrecognised index file format")
)
