package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/vectorindex"
)

var ErrUnknownDomain = errors.New("domain not loaded")

// Domain pairs one corpus with the index built from it. Instances are never mutated.
type Domain struct {
	Name         router.Domain
	Corpus       *Corpus
	Index        vectorindex.Index
	MetadataNote string
}

// Drift is index size minus corpus size. Non-zero means positions may not decode.
func (d *Domain) Drift() int {
	return d.Index.Len() - d.Corpus.Len()
}

// Set is a consistent snapshot of every loaded domain.
type Set struct {
	domains  map[router.Domain]*Domain
	LoadedAt time.Time
}

func NewSet(domains ...*Domain) *Set {
	s := &Set{domains: make(map[router.Domain]*Domain, len(domains)), LoadedAt: time.Now()}
	for _, d := range domains {
		s.domains[d.Name] = d
	}
	return s
}

// IndexOpener provides the vector index for a freshly loaded corpus.
type IndexOpener func(ctx context.Context, name router.Domain, ds DomainSpec, c *Corpus) (vectorindex.Index, error)

// OpenFlatIndex loads the flat index file of the domain.
func OpenFlatIndex(_ context.Context, _ router.Domain, ds DomainSpec, _ *Corpus) (vectorindex.Index, error) {
	return vectorindex.LoadFile(ds.Index)
}

// LoadFunc builds a complete Set.
type LoadFunc func(ctx context.Context) (*Set, error)

// ManifestLoader returns a LoadFunc reading every domain of m.
func ManifestLoader(m *Manifest, open IndexOpener) LoadFunc {
	return func(ctx context.Context) (*Set, error) {
		var domains []*Domain
		for rawName, ds := range m.Domains {
			name, ok := router.ParseDomain(rawName)
			if !ok {
				return nil, fmt.Errorf("manifest: unknown domain %q", rawName)
			}
			c, err := LoadCorpus(ds)
			if err != nil {
				return nil, fmt.Errorf("domain %s: %w", name, err)
			}
			meta, err := LoadMetadata(ds.Metadata)
			if err != nil {
				return nil, fmt.Errorf("domain %s: %w", name, err)
			}
			idx, err := open(ctx, name, ds, c)
			if err != nil {
				return nil, fmt.Errorf("domain %s index: %w", name, err)
			}
			domains = append(domains, &Domain{Name: name, Corpus: c, Index: idx, MetadataNote: meta.Note()})
		}
		return NewSet(domains...), nil
	}
}

// DomainStats summarises one domain for operators.
type DomainStats struct {
	Domain    router.Domain `json:"domain"`
	FAQ       int           `json:"faq"`
	Knowledge int           `json:"knowledge"`
	Vectors   int           `json:"vectors"`
	Dimension int           `json:"dimension"`
	Drift     int           `json:"drift"`
}

// Registry serves the current Set and swaps a new one in atomically on reload.
type Registry struct {
	current atomic.Pointer[Set]
	load    LoadFunc
}

func NewRegistry(load LoadFunc) *Registry {
	return &Registry{load: load}
}

// NewStaticRegistry serves a fixed set of domains; Reload is a no-op.
func NewStaticRegistry(domains ...*Domain) *Registry {
	set := NewSet(domains...)
	r := &Registry{load: func(context.Context) (*Set, error) { return set, nil }}
	r.current.Store(set)
	return r
}

// Reload builds a new Set and publishes it only when every domain loaded.
func (r *Registry) Reload(ctx context.Context) (*Set, error) {
	set, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.current.Store(set)
	return set, nil
}

// Domain returns the handle for name from the current snapshot.
func (r *Registry) Domain(name router.Domain) (*Domain, error) {
	set := r.current.Load()
	if set == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	d, ok := set.domains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	return d, nil
}

func (r *Registry) Stats() []DomainStats {
	set := r.current.Load()
	if set == nil {
		return nil
	}
	return set.Stats()
}

func (s *Set) Stats() []DomainStats {
	out := make([]DomainStats, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, DomainStats{
			Domain:    d.Name,
			FAQ:       d.Corpus.FAQCount(),
			Knowledge: d.Corpus.KnowledgeCount(),
			Vectors:   d.Index.Len(),
			Dimension: d.Index.Dimension(),
			Drift:     d.Drift(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
