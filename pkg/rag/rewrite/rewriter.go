package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/store"
)

const (
	// ContextTurns is how many trailing history turns the rewrite sees.
	ContextTurns = 4

	temperature = 0.2
	maxTokens   = 100
)

var instructions = map[router.Domain]string{
	router.DomainReserve: "あなたは、予約システムに関するあいまいな質問を、FAQ検索に適した明確な文章に書き換えるアシスタントです。" +
		"意味を変えず、キーワードを補い、予約画面・機能名・操作手順が明確になるようにしてください。" +
		"言い換えた文章は、1文の日本語文で出力してください。",
	router.DomainGeneral: "あなたは、コーヒー製品の委託加工に関するあいまいな質問を、FAQ検索に適した明確な文章に書き換えるアシスタントです。" +
		"意味を変えず、製品名・加工内容・数量・納期などのキーワードを補ってください。" +
		"言い換えた文章は、1文の日本語文で出力してください。",
}

var searchTargets = map[router.Domain]string{
	router.DomainReserve: "予約システムFAQ検索用",
	router.DomainGeneral: "FAQ検索用",
}

// Rewriter turns a context-dependent question into a standalone search query.
// It never fails: every error path returns the original question.
type Rewriter struct {
	llm        llm.LLMProvider
	logger     logger.ILogger
	timeout    time.Duration
	model      string
	onFallback func(domain router.Domain, reason string)
}

type Option func(*Rewriter)

// WithModel overrides the chat model used for rewriting.
func WithModel(model string) Option {
	return func(r *Rewriter) { r.model = model }
}

// WithFallbackHook is called whenever the original question is returned unchanged.
func WithFallbackHook(fn func(domain router.Domain, reason string)) Option {
	return func(r *Rewriter) { r.onFallback = fn }
}

func NewRewriter(llmProvider llm.LLMProvider, log logger.ILogger, timeout time.Duration, opts ...Option) *Rewriter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &Rewriter{llm: llmProvider, logger: log, timeout: timeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rewriter) Rewrite(ctx context.Context, question string, history []store.Turn, domain router.Domain) string {
	if question == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	options := []llm.Option{llm.WithTemperature(temperature), llm.WithMaxTokens(maxTokens)}
	if r.model != "" {
		options = append(options, llm.WithModel(r.model))
	}

	out, err := r.llm.Chat(ctx, BuildMessages(question, history, domain), options...)
	if err != nil {
		return r.fallback(question, domain, "rewrite call failed", err)
	}

	rewritten := Clean(out)
	if rewritten == "" {
		return r.fallback(question, domain, "rewrite returned empty text", nil)
	}

	r.logger.Debug("REWRITE", "Query rewritten", map[string]interface{}{
		"domain":    domain,
		"original":  question,
		"rewritten": rewritten,
	})
	return rewritten
}

func (r *Rewriter) fallback(question string, domain router.Domain, reason string, err error) string {
	details := map[string]interface{}{"domain": domain, "question": question, "reason": reason}
	if err != nil {
		details["error"] = err.Error()
	}
	r.logger.Warn("REWRITE", "Falling back to original question", details)
	if r.onFallback != nil {
		r.onFallback(domain, reason)
	}
	return question
}

// BuildMessages renders the system instruction and the user prompt for domain.
func BuildMessages(question string, history []store.Turn, domain router.Domain) []llm.Message {
	instruction, ok := instructions[domain]
	if !ok {
		instruction = instructions[router.DomainGeneral]
	}
	target, ok := searchTargets[domain]
	if !ok {
		target = searchTargets[router.DomainGeneral]
	}

	lines := make([]string, 0, ContextTurns)
	for _, t := range store.LastTurns(history, ContextTurns) {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}

	user := fmt.Sprintf("以下は最近のやり取りです：\n\n%s\n\nこの流れをふまえ、ユーザーの以下の質問を%sに明確な文に言い換えてください。\n\nユーザーの質問：「%s」\n\n→ 言い換え後：\n",
		strings.Join(lines, "\n"), target, question)

	return llm.SystemAndUser(instruction, user)
}

// Clean trims whitespace and one layer of surrounding quotes.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{"「", "」"}, {"\"", "\""}, {"『", "』"}} {
		if len(s) > len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, pair[0]), pair[1]))
			break
		}
	}
	return s
}
