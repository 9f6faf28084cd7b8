package matcher

import "faq-chatbot-be/pkg/store"

// Marker heads every formatted structured match.
const Marker = "製品フィルム・カラー情報"

// Result of a structured lookup. An empty Products slice means no match.
type Result struct {
	Products []ProductMatch
}

type ProductMatch struct {
	Product string
	Films   []Film
}

func (r Result) Empty() bool {
	return len(r.Products) == 0
}

// Matcher finds structured product data relevant to a question.
type Matcher interface {
	Match(question string, history []store.Turn) Result
	Format(result Result) string
}

// Noop never matches. It stands in when no matrix file is configured.
type Noop struct{}

func (Noop) Match(string, []store.Turn) Result { return Result{} }
func (Noop) Format(Result) string              { return "" }
