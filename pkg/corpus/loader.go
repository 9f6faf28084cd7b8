package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadFAQ reads a JSON array of {question, answer[, category]}.
func LoadFAQ(path string) ([]FaqEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []FaqEntry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse faq %s: %w", path, err)
	}
	return items, nil
}

// LoadKnowledge reads a JSON object category -> []text, keeping the file's key order.
func LoadKnowledge(path string) ([]KnowledgeEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := decodeKnowledge(raw)
	if err != nil {
		return nil, fmt.Errorf("parse knowledge %s: %w", path, err)
	}
	return entries, nil
}

func decodeKnowledge(raw []byte) ([]KnowledgeEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object of categories")
	}

	var entries []KnowledgeEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		category, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var texts []string
		if err := dec.Decode(&texts); err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
		for _, text := range texts {
			entries = append(entries, KnowledgeEntry{Category: category, Text: text})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadMetadata reads the optional metadata file. A missing file or empty path yields nil.
func LoadMetadata(path string) (*Metadata, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return &m, nil
}

// LoadCorpus reads the FAQ and knowledge files of one domain.
func LoadCorpus(ds DomainSpec) (*Corpus, error) {
	faqs, err := LoadFAQ(ds.FAQ)
	if err != nil {
		return nil, err
	}
	knowledge, err := LoadKnowledge(ds.Knowledge)
	if err != nil {
		return nil, err
	}
	for i := range faqs {
		faqs[i].embedWithAnswer = ds.EmbedAnswers
	}
	return New(faqs, knowledge), nil
}
