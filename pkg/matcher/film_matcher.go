package matcher

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"faq-chatbot-be/pkg/store"
)

// historyTurns is how far back a follow-up question may borrow its product.
const historyTurns = 4

type Film struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
	Note   string   `json:"note,omitempty"`
}

type Product struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Films   []Film   `json:"films"`
}

type matrixFile struct {
	Products []Product `json:"products"`
}

// FilmMatcher looks products and films up in the colour matrix.
type FilmMatcher struct {
	products []Product
}

var _ Matcher = (*FilmMatcher)(nil)

func NewFilmMatcher(products []Product) *FilmMatcher {
	return &FilmMatcher{products: products}
}

// LoadFilmMatcher reads the matrix file. A missing file yields a Noop matcher.
func LoadFilmMatcher(path string) (Matcher, error) {
	if path == "" {
		return Noop{}, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Noop{}, nil
	}
	if err != nil {
		return nil, err
	}
	var m matrixFile
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse film matrix %s: %w", path, err)
	}
	return NewFilmMatcher(m.Products), nil
}

// Match looks for products in the question; when none is named it falls back to
// the most recent user turns so follow-ups like "黒はありますか" still resolve.
func (m *FilmMatcher) Match(question string, history []store.Turn) Result {
	products := m.productsIn(question)
	if len(products) == 0 {
		recent := store.LastTurns(history, historyTurns)
		for i := len(recent) - 1; i >= 0 && len(products) == 0; i-- {
			if recent[i].Role == store.RoleUser {
				products = m.productsIn(recent[i].Content)
			}
		}
	}

	var res Result
	for _, p := range products {
		films := filmsIn(p.Films, question)
		if len(films) == 0 {
			films = p.Films
		}
		res.Products = append(res.Products, ProductMatch{Product: p.Name, Films: films})
	}
	return res
}

func (m *FilmMatcher) Format(res Result) string {
	if res.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("【" + Marker + "】")
	for _, p := range res.Products {
		sb.WriteString("\n■ ")
		sb.WriteString(p.Product)
		for _, f := range p.Films {
			sb.WriteString("\n- ")
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			sb.WriteString(strings.Join(f.Colors, "、"))
			if f.Note != "" {
				sb.WriteString("（" + f.Note + "）")
			}
		}
	}
	return sb.String()
}

func (m *FilmMatcher) productsIn(text string) []Product {
	var out []Product
	for _, p := range m.products {
		if mentions(text, p.Name, p.Aliases...) {
			out = append(out, p)
		}
	}
	return out
}

func filmsIn(films []Film, text string) []Film {
	var out []Film
	for _, f := range films {
		if mentions(text, f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func mentions(text, name string, aliases ...string) bool {
	for _, n := range append([]string{name}, aliases...) {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
