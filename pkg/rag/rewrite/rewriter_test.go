package rewrite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply    string
	err      error
	delay    time.Duration
	messages []llm.Message
	opts     llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.messages = history
	f.opts = llm.Apply(llm.Options{}, options...)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func TestRewriteSuccess(t *testing.T) {
	fake := &fakeLLM{reply: "  「予約画面で予約日を変更する方法」 \n"}
	r := NewRewriter(fake, logger.NewNopLogger(), time.Second, WithModel("gpt-4o"))

	out := r.Rewrite(context.Background(), "変更できる？", nil, router.DomainReserve)

	assert.Equal(t, "予約画面で予約日を変更する方法", out)
	assert.InDelta(t, 0.2, fake.opts.Temperature, 1e-9)
	assert.Equal(t, 100, fake.opts.MaxTokens)
	assert.Equal(t, "gpt-4o", fake.opts.Model)
	require.Len(t, fake.messages, 2)
	assert.Contains(t, fake.messages[0].Content, "予約システム")
}

func TestRewriteFallsBackToOriginal(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"call error", &fakeLLM{err: errors.New("rate limited")}},
		{"blank reply", &fakeLLM{reply: "   "}},
		{"timeout", &fakeLLM{reply: "late", delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reasons []string
			r := NewRewriter(tt.llm, logger.NewNopLogger(), 20*time.Millisecond,
				WithFallbackHook(func(_ router.Domain, reason string) { reasons = append(reasons, reason) }))

			out := r.Rewrite(context.Background(), "納期は？", nil, router.DomainGeneral)

			assert.Equal(t, "納期は？", out)
			assert.Len(t, reasons, 1)
		})
	}
}

func TestRewriteEmptyQuestion(t *testing.T) {
	fake := &fakeLLM{reply: "should not be used"}
	r := NewRewriter(fake, logger.NewNopLogger(), time.Second)

	assert.Equal(t, "", r.Rewrite(context.Background(), "", nil, router.DomainGeneral))
	assert.Nil(t, fake.messages)
}

func TestBuildMessagesUsesLastFourTurns(t *testing.T) {
	var history []store.Turn
	for i := 0; i < 6; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		history = append(history, store.Turn{Role: role, Content: fmt.Sprintf("turn%d", i)})
	}

	msgs := BuildMessages("質問", history, router.DomainGeneral)
	user := msgs[1].Content

	assert.NotContains(t, user, "turn0")
	assert.NotContains(t, user, "turn1")
	assert.Contains(t, user, "user: turn2\nassistant: turn3\nuser: turn4\nassistant: turn5")
	assert.Contains(t, user, "ユーザーの質問：「質問」")
}

func TestClean(t *testing.T) {
	assert.Equal(t, "abc", Clean(" \"abc\" "))
	assert.Equal(t, "「」", Clean("「」"))
	assert.Equal(t, "a「b」", Clean("a「b」"))
}
