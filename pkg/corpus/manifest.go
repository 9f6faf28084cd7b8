package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest lists the data files of every domain. Paths are relative to the working directory.
type Manifest struct {
	Domains map[string]DomainSpec `yaml:"domains"`
	Matrix  string                `yaml:"matrix"`
}

type DomainSpec struct {
	FAQ       string `yaml:"faq"`
	Knowledge string `yaml:"knowledge"`
	Metadata  string `yaml:"metadata"`
	Index     string `yaml:"index"`
	// EmbedAnswers marks corpora whose FAQ vectors were built from "question answer".
	EmbedAnswers bool `yaml:"embed_answers"`
}

// DefaultManifest mirrors the layout of the data directory shipped with the service.
func DefaultManifest() *Manifest {
	return &Manifest{
		Domains: map[string]DomainSpec{
			"general": {
				FAQ:       "data/faq.json",
				Knowledge: "data/knowledge.json",
				Metadata:  "data/metadata.json",
				Index:     "data/vector_data.npy",
			},
			"reserve": {
				FAQ:       "data/reserve_faq.json",
				Knowledge: "data/reserve_knowledge.json",
				Metadata:  "data/metadata.json",
				Index:     "data/reserve_vector_data.npy",
			},
		},
		Matrix: "data/product_film_color_matrix.json",
	}
}

// LoadManifest reads a YAML manifest. A missing file yields DefaultManifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Domains) == 0 {
		return nil, fmt.Errorf("manifest %s declares no domains", path)
	}
	for name, ds := range m.Domains {
		if ds.FAQ == "" || ds.Knowledge == "" || ds.Index == "" {
			return nil, fmt.Errorf("manifest %s: domain %q needs faq, knowledge and index", path, name)
		}
	}
	return &m, nil
}

// WatchDirs returns the distinct directories holding manifest files.
func (m *Manifest) WatchDirs() []string {
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" {
			seen[filepath.Dir(p)] = true
		}
	}
	for _, ds := range m.Domains {
		add(ds.FAQ)
		add(ds.Knowledge)
		add(ds.Metadata)
		add(ds.Index)
	}
	add(m.Matrix)

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}
