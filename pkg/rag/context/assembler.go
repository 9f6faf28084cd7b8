package context

import (
	"strings"

	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/rag/search"
)

const (
	DefaultMaxFAQ       = 3
	DefaultMaxOtherRefs = 2

	NoFAQText = "該当するFAQは見つかりませんでした。"
	metaLabel = "【参考ファイル情報】"
)

// RefKind tells structured matches apart from the other reference snippets
type RefKind int

const (
	RefStructured RefKind = iota
	RefKnowledge
	RefMetadata
)

type Reference struct {
	Kind RefKind
	Text string
}

// Bundle is the evidence handed to the prompt builder
type Bundle struct {
	FAQSnippets    []string
	References     []Reference
	StructuredText string
	// Fallback is set when nothing at all was found; the caller must not call the model.
	Fallback bool
}

// FAQPart joins the FAQ snippets, or explains that none matched.
func (b Bundle) FAQPart() string {
	if len(b.FAQSnippets) == 0 {
		return NoFAQText
	}
	return strings.Join(b.FAQSnippets, "\n\n")
}

// ReferencePart joins the reference snippets one per line.
func (b Bundle) ReferencePart() string {
	texts := make([]string, len(b.References))
	for i, r := range b.References {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}

// HasFAQ reports whether any FAQ snippet made it into the bundle.
func (b Bundle) HasFAQ() bool {
	return len(b.FAQSnippets) > 0
}

// Assembler partitions hits into FAQ and reference evidence and applies the caps.
type Assembler struct {
	maxFAQ   int
	maxOther int
}

func NewAssembler() *Assembler {
	return &Assembler{maxFAQ: DefaultMaxFAQ, maxOther: DefaultMaxOtherRefs}
}

func (a *Assembler) Assemble(hits []search.Hit, structuredText, metadataNote string) Bundle {
	var faqs []string
	var refs []Reference

	for _, h := range hits {
		switch e := h.Entry.(type) {
		case corpus.FaqEntry:
			faqs = append(faqs, e.Render())
		case corpus.KnowledgeEntry:
			refs = append(refs, Reference{Kind: RefKnowledge, Text: e.Render()})
		}
	}

	structuredBlank := strings.TrimSpace(structuredText) == ""
	if !structuredBlank {
		refs = append([]Reference{{Kind: RefStructured, Text: structuredText}}, refs...)
	}
	if metadataNote != "" {
		refs = append(refs, Reference{Kind: RefMetadata, Text: metaLabel + metadataNote})
	}

	if len(faqs) == 0 && len(refs) == 0 && structuredBlank {
		return Bundle{Fallback: true}
	}

	if len(faqs) > a.maxFAQ {
		faqs = faqs[:a.maxFAQ]
	}

	var structured, other []Reference
	for _, r := range refs {
		if r.Kind == RefStructured {
			structured = append(structured, r)
		} else {
			other = append(other, r)
		}
	}
	if len(other) > a.maxOther {
		other = other[:a.maxOther]
	}

	return Bundle{
		FAQSnippets:    faqs,
		References:     append(structured, other...),
		StructuredText: structuredText,
	}
}
