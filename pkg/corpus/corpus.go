package corpus

import (
	"fmt"
	"strings"
)

// Kind tags a corpus entry
type Kind int

const (
	KindFAQ Kind = iota
	KindKnowledge
)

func (k Kind) String() string {
	switch k {
	case KindFAQ:
		return "faq"
	case KindKnowledge:
		return "knowledge"
	}
	return "unknown"
}

// Entry is one retrievable item. Ordinal is its index among entries of the same kind.
type Entry interface {
	Kind() Kind
	Ordinal() int
	// EmbeddingText is the text the entry's vector was computed from.
	EmbeddingText() string
}

type FaqEntry struct {
	Index    int `json:"-"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`

	embedWithAnswer bool
}

func (e FaqEntry) Kind() Kind   { return KindFAQ }
func (e FaqEntry) Ordinal() int { return e.Index }

func (e FaqEntry) EmbeddingText() string {
	if e.embedWithAnswer {
		return e.Question + " " + e.Answer
	}
	return e.Question
}

// Render formats the entry as an FAQ snippet.
func (e FaqEntry) Render() string {
	return fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer)
}

type KnowledgeEntry struct {
	Index    int `json:"-"`
	Category string
	Text     string
}

func (e KnowledgeEntry) Kind() Kind   { return KindKnowledge }
func (e KnowledgeEntry) Ordinal() int { return e.Index }

// Content joins category and text with a full-width colon.
func (e KnowledgeEntry) Content() string {
	return e.Category + "：" + e.Text
}

func (e KnowledgeEntry) EmbeddingText() string {
	return e.Content()
}

// Render formats the entry as a reference snippet.
func (e KnowledgeEntry) Render() string {
	return "【参考知識】" + e.Content()
}

// Corpus is an immutable ordered sequence: every FAQ entry, then every knowledge entry.
// Position p in the paired vector index is entry p.
type Corpus struct {
	entries   []Entry
	faqs      int
	knowledge int
}

// New assigns ordinals and freezes the sequence.
func New(faqs []FaqEntry, knowledge []KnowledgeEntry) *Corpus {
	entries := make([]Entry, 0, len(faqs)+len(knowledge))
	for i, f := range faqs {
		f.Index = i
		entries = append(entries, f)
	}
	for i, k := range knowledge {
		k.Index = i
		entries = append(entries, k)
	}
	return &Corpus{entries: entries, faqs: len(faqs), knowledge: len(knowledge)}
}

// At decodes a search position. Positions outside the corpus report false.
func (c *Corpus) At(position int) (Entry, bool) {
	if position < 0 || position >= len(c.entries) {
		return nil, false
	}
	return c.entries[position], true
}

func (c *Corpus) Len() int            { return len(c.entries) }
func (c *Corpus) FAQCount() int       { return c.faqs }
func (c *Corpus) KnowledgeCount() int { return c.knowledge }

// EmbeddingTexts lists the texts to embed, in position order.
func (c *Corpus) EmbeddingTexts() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.EmbeddingText()
	}
	return out
}

// Metadata describes the source file set; rendered as a trailing reference note.
type Metadata struct {
	Title    string      `json:"title"`
	Type     string      `json:"type"`
	Priority interface{} `json:"priority"`
}

// Note renders "title (種類: type, 優先度: priority)".
func (m *Metadata) Note() string {
	if m == nil {
		return ""
	}
	priority := ""
	if m.Priority != nil {
		priority = strings.TrimSpace(fmt.Sprintf("%v", m.Priority))
	}
	return fmt.Sprintf("%s (種類: %s, 優先度: %s)", m.Title, m.Type, priority)
}
