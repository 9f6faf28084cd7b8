package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"faq-chatbot-be/internal/dto"
	"faq-chatbot-be/internal/metrics"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/repository/memory"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/llm"
	"faq-chatbot-be/pkg/logsink"
	"faq-chatbot-be/pkg/matcher"
	"faq-chatbot-be/pkg/rag"
	ragcontext "faq-chatbot-be/pkg/rag/context"
	"faq-chatbot-be/pkg/rag/prompt"
	"faq-chatbot-be/pkg/rag/response"
	"faq-chatbot-be/pkg/rag/rewrite"
	"faq-chatbot-be/pkg/rag/search"
	"faq-chatbot-be/pkg/store"
	"faq-chatbot-be/pkg/vectorindex"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers rewrite calls (max 100 tokens) and answer calls separately.
type scriptedLLM struct {
	mu          sync.Mutex
	rewrite     string
	rewriteErr  error
	answer      string
	answerErr   error
	answerCalls int
	lastUser    string
	lastSystem  string
}

func (s *scriptedLLM) Chat(_ context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := llm.Apply(llm.Options{}, options...)
	if opts.MaxTokens == 100 {
		return s.rewrite, s.rewriteErr
	}

	s.answerCalls++
	system, rest := llm.SplitSystem(history)
	s.lastSystem = system
	if len(rest) > 0 {
		s.lastUser = rest[len(rest)-1].Content
	}
	return s.answer, s.answerErr
}

func (s *scriptedLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, options...)
}

type staticEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (e *staticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, rag.ErrEmptyInput
	}
	e.texts = append(e.texts, text)
	return e.vec, e.err
}

type capturingRecorder struct {
	mu   sync.Mutex
	rows []logsink.Row
	err  error
}

func (c *capturingRecorder) Publish(_ context.Context, row logsink.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, row)
	return c.err
}

func (c *capturingRecorder) streams() []logsink.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]logsink.Stream, len(c.rows))
	for i, r := range c.rows {
		out[i] = r.Stream
	}
	return out
}

func flatIndex(t *testing.T, vectors ...[]float32) vectorindex.Index {
	t.Helper()
	idx, err := vectorindex.NewFlatL2FromVectors(vectors)
	require.NoError(t, err)
	return idx
}

func sampleDomain(t *testing.T, name router.Domain, prefix string) *corpus.Domain {
	c := corpus.New(
		[]corpus.FaqEntry{
			{Question: prefix + "営業時間は？", Answer: "平日9時から18時です。"},
			{Question: prefix + "送料は？", Answer: "全国一律です。"},
		},
		[]corpus.KnowledgeEntry{{Category: "発送", Text: "3営業日以内に出荷します。"}},
	)
	return &corpus.Domain{
		Name:   name,
		Corpus: c,
		Index:  flatIndex(t, []float32{0, 0}, []float32{10, 10}, []float32{20, 20}),
	}
}

type harness struct {
	svc      IChatbotService
	llm      *scriptedLLM
	embedder *staticEmbedder
	recorder *capturingRecorder
	sessions *memory.SessionRepository
	metrics  *metrics.Collector
}

func newHarness(t *testing.T, domains ...*corpus.Domain) *harness {
	t.Helper()
	if len(domains) == 0 {
		domains = []*corpus.Domain{
			sampleDomain(t, router.DomainGeneral, ""),
			sampleDomain(t, router.DomainReserve, "予約:"),
		}
	}

	h := &harness{
		llm:      &scriptedLLM{rewrite: "書き換え後の質問", answer: "平日9時から18時までです。"},
		embedder: &staticEmbedder{vec: []float32{0, 0}},
		recorder: &capturingRecorder{},
		sessions: memory.NewSessionRepository(0),
		metrics:  metrics.NewCollector("test"),
	}
	log := logger.NewNopLogger()
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	h.svc = NewChatbotService(ChatbotDependencies{
		Sessions: h.sessions,
		Router:   router.NewDomainRouter(),
		Rewriter: rewrite.NewRewriter(h.llm, log, time.Second, rewrite.WithFallbackHook(func(router.Domain, string) {
			h.metrics.ObserveRewriteFallback()
		})),
		Registry:  corpus.NewStaticRegistry(domains...),
		Retriever: search.NewOrchestrator(h.embedder, log, search.DefaultConfig()),
		Assembler: ragcontext.NewAssembler(),
		Matcher:   matcher.Noop{},
		Prompts:   prompt.NewBuilder("BASE"),
		Generator: response.NewGenerator(h.llm, time.Second, "gpt-5"),
		Recorder:  h.recorder,
		Logger:    log,
		Metrics:   h.metrics,
		Clock:     func() time.Time { return fixed },
	})
	return h
}

func TestAnswerGreetingShortCircuits(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Answer(context.Background(), "こんにちは、よろしく", "s1")
	require.NoError(t, err)

	assert.Equal(t, response.GreetingReply, resp.Response)
	assert.Equal(t, "こんにちは、よろしく", resp.ExpandedQuestion)
	assert.Empty(t, h.embedder.texts)
	assert.Zero(t, h.llm.answerCalls)
	assert.Empty(t, h.recorder.streams())

	history := h.sessions.GetHistory(context.Background(), "s1")
	require.Len(t, history, 1)
	assert.Equal(t, store.RoleAssistant, history[0].Role)
}

func TestAnswerGeneralQuestion(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Answer(context.Background(), "  営業時間を教えて  ", "s1")
	require.NoError(t, err)

	assert.Equal(t, "平日9時から18時までです。", resp.Response)
	assert.Equal(t, "営業時間を教えて", resp.OriginalQuestion)
	assert.Equal(t, "書き換え後の質問", resp.ExpandedQuestion)
	assert.Equal(t, []string{"書き換え後の質問"}, h.embedder.texts)

	assert.Contains(t, h.llm.lastUser, "Q: 営業時間は？\nA: 平日9時から18時です。")
	assert.Contains(t, h.llm.lastUser, "【参考知識】発送：3営業日以内に出荷します。")
	assert.Contains(t, h.llm.lastUser, "ユーザーの質問: 営業時間を教えて")
	assert.True(t, strings.HasPrefix(h.llm.lastSystem, "BASE"))

	require.Equal(t, []logsink.Stream{logsink.StreamChat}, h.recorder.streams())
	assert.Equal(t,
		[]string{"2024-05-01 09:30:00", "営業時間を教えて", "平日9時から18時までです。", "faq", "false"},
		h.recorder.rows[0].Values())

	history := h.sessions.GetHistory(context.Background(), "s1")
	require.Len(t, history, 2)
	assert.Equal(t, store.Turn{Role: store.RoleUser, Content: "営業時間を教えて"}, history[0])
	assert.Equal(t, store.RoleAssistant, history[1].Role)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Answers.WithLabelValues("general", OutcomeAnswered)))
}

// recordingIndex remembers how many hits the last search returned.
type recordingIndex struct {
	vectorindex.Index
	lastHits int
}

func (r *recordingIndex) Search(ctx context.Context, query []float32, k int) ([]vectorindex.Hit, error) {
	hits, err := r.Index.Search(ctx, query, k)
	r.lastHits = len(hits)
	return hits, err
}

func TestAnswerRoutesReserveQuestions(t *testing.T) {
	faqs := make([]corpus.FaqEntry, 10)
	vectors := make([][]float32, 10)
	for i := range faqs {
		faqs[i] = corpus.FaqEntry{Question: fmt.Sprintf("予約:質問%d", i), Answer: fmt.Sprintf("回答%d", i)}
		vectors[i] = []float32{float32(i), 0}
	}
	idx := &recordingIndex{Index: flatIndex(t, vectors...)}
	reserve := &corpus.Domain{Name: router.DomainReserve, Corpus: corpus.New(faqs, nil), Index: idx}
	h := newHarness(t, sampleDomain(t, router.DomainGeneral, ""), reserve)

	resp, err := h.svc.Answer(context.Background(), "予約方法を教えてください", "s1")
	require.NoError(t, err)

	assert.Equal(t, "予約方法を教えてください", resp.OriginalQuestion)
	assert.NotEqual(t, resp.OriginalQuestion, resp.ExpandedQuestion)
	assert.Equal(t, []string{"書き換え後の質問"}, h.embedder.texts)
	assert.LessOrEqual(t, idx.lastHits, 7)
	assert.Equal(t, 7, idx.lastHits)

	assert.Contains(t, h.llm.lastUser, "Q: 予約:質問0")
	require.Len(t, h.recorder.rows, 1)
	assert.Equal(t, "reserve_faq", h.recorder.rows[0].Fields[2])
}

func TestAnswerRewriteFailureKeepsOriginalQuestion(t *testing.T) {
	h := newHarness(t)
	h.llm.rewriteErr = errors.New("upstream 503")

	resp, err := h.svc.Answer(context.Background(), "送料は？", "s1")
	require.NoError(t, err)

	assert.Equal(t, "送料は？", resp.ExpandedQuestion)
	assert.Equal(t, []string{"送料は？"}, h.embedder.texts)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RewriteFallbacks))
}

func TestAnswerUnansweredIsLogged(t *testing.T) {
	h := newHarness(t)
	h.llm.answer = "申し訳ございませんが、その情報はございません。"

	_, err := h.svc.Answer(context.Background(), "社長の誕生日は？", "s1")
	require.NoError(t, err)

	assert.Equal(t, []logsink.Stream{logsink.StreamUnanswered, logsink.StreamChat}, h.recorder.streams())
	assert.Equal(t, []string{"社長の誕生日は？", "未回答", "1"}, h.recorder.rows[0].Fields)
	assert.Equal(t, "true", h.recorder.rows[1].Fields[3])
}

func TestAnswerFallbackSkipsModelAndLogs(t *testing.T) {
	empty := &corpus.Domain{
		Name:   router.DomainGeneral,
		Corpus: corpus.New(nil, nil),
		Index:  flatIndex(t, []float32{0, 0}),
	}
	h := newHarness(t, empty)

	resp, err := h.svc.Answer(context.Background(), "天気は？", "s1")
	require.NoError(t, err)

	assert.Equal(t, response.OutOfScopeReply, resp.Response)
	assert.Zero(t, h.llm.answerCalls)
	assert.Empty(t, h.recorder.streams())

	history := h.sessions.GetHistory(context.Background(), "s1")
	require.Len(t, history, 2)
	assert.Equal(t, response.OutOfScopeReply, history[1].Content)
}

func TestAnswerMetadataNotePreventsFallback(t *testing.T) {
	empty := &corpus.Domain{
		Name:         router.DomainGeneral,
		Corpus:       corpus.New(nil, nil),
		Index:        flatIndex(t, []float32{0, 0}),
		MetadataNote: "FAQ集（優先度: 高）",
	}
	h := newHarness(t, empty)

	resp, err := h.svc.Answer(context.Background(), "天気は？", "s1")
	require.NoError(t, err)

	assert.NotEqual(t, response.OutOfScopeReply, resp.Response)
	assert.Equal(t, 1, h.llm.answerCalls)
	assert.Contains(t, h.llm.lastUser, ragcontext.NoFAQText)
	assert.Equal(t, "knowledge", h.recorder.rows[0].Fields[2])
}

func TestAnswerGenerationFailureSurfaces(t *testing.T) {
	h := newHarness(t)
	h.llm.answerErr = errors.New("timeout")

	_, err := h.svc.Answer(context.Background(), "送料は？", "s1")
	require.Error(t, err)
	assert.True(t, rag.IsServiceError(err))
	assert.Empty(t, h.recorder.streams())

	history := h.sessions.GetHistory(context.Background(), "s1")
	require.Len(t, history, 1)
	assert.Equal(t, store.RoleUser, history[0].Role)
}

func TestAnswerEmbeddingFailureSurfaces(t *testing.T) {
	h := newHarness(t)
	h.embedder.err = rag.NewServiceError("embed", errors.New("connection refused"))

	_, err := h.svc.Answer(context.Background(), "送料は？", "s1")
	assert.True(t, rag.IsServiceError(err))
	assert.Zero(t, h.llm.answerCalls)
}

func TestAnswerFailuresAreClassified(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *harness)
		question string
		domains  func(t *testing.T) []*corpus.Domain
		kind     string
	}{
		{
			name:     "embedding backend down",
			setup:    func(h *harness) { h.embedder.err = rag.NewServiceError("embed", errors.New("connection refused")) },
			question: "送料は？",
			kind:     FailureUpstream,
		},
		{
			name:     "answer model timeout",
			setup:    func(h *harness) { h.llm.answerErr = errors.New("timeout") },
			question: "送料は？",
			kind:     FailureUpstream,
		},
		{
			name:     "domain not loaded",
			setup:    func(*harness) {},
			question: "予約方法を教えてください",
			domains: func(t *testing.T) []*corpus.Domain {
				return []*corpus.Domain{sampleDomain(t, router.DomainGeneral, "")}
			},
			kind: FailureInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domains []*corpus.Domain
			if tt.domains != nil {
				domains = tt.domains(t)
			}
			h := newHarness(t, domains...)
			tt.setup(h)

			_, err := h.svc.Answer(context.Background(), tt.question, "s1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, failureKind(err))
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Failures.WithLabelValues(tt.kind)))
		})
	}
}

func TestAnswerEmptyIndexIsNoResults(t *testing.T) {
	d := sampleDomain(t, router.DomainGeneral, "")
	d.Index = vectorindex.NewFlatL2(2)
	h := newHarness(t, d)

	_, err := h.svc.Answer(context.Background(), "送料は？", "s1")
	assert.ErrorIs(t, err, rag.ErrNoResults)
}

func TestAnswerBlankQuestion(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Answer(context.Background(), "   ", "s1")
	assert.ErrorIs(t, err, rag.ErrEmptyInput)
}

func TestAnswerDefaultSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Answer(context.Background(), "送料は？", "")
	require.NoError(t, err)
	assert.Len(t, h.sessions.GetHistory(context.Background(), store.DefaultSessionID), 2)
}

func TestAnswerRecorderFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t)
	h.recorder.err = errors.New("bus closed")

	_, err := h.svc.Answer(context.Background(), "送料は？", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SinkFailures.WithLabelValues("chat")))
}

func TestRecordFeedback(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.FeedbackRequest
		wantErr bool
	}{
		{"complete", &dto.FeedbackRequest{Question: "q", Answer: "a", Feedback: "1", Reason: "助かった"}, false},
		{"zero feedback is still feedback", &dto.FeedbackRequest{Question: "q", Answer: "a", Feedback: "0"}, false},
		{"missing answer", &dto.FeedbackRequest{Question: "q", Feedback: "1"}, true},
		{"blank feedback", &dto.FeedbackRequest{Question: "q", Answer: "a", Feedback: " "}, true},
		{"nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			err := h.svc.RecordFeedback(context.Background(), tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIncompleteFeedback)
				assert.Empty(t, h.recorder.streams())
				return
			}
			require.NoError(t, err)
			require.Equal(t, []logsink.Stream{logsink.StreamFeedback}, h.recorder.streams())
			assert.Equal(t, []string{"q", "a", string(tt.req.Feedback), tt.req.Reason}, h.recorder.rows[0].Fields)
		})
	}
}

func TestSourceType(t *testing.T) {
	withFAQ := ragcontext.Bundle{FAQSnippets: []string{"Q: x\nA: y"}}
	without := ragcontext.Bundle{}

	assert.Equal(t, "faq", SourceType(router.DomainGeneral, withFAQ))
	assert.Equal(t, "knowledge", SourceType(router.DomainGeneral, without))
	assert.Equal(t, "reserve_faq", SourceType(router.DomainReserve, withFAQ))
	assert.Equal(t, "reserve_knowledge", SourceType(router.DomainReserve, without))
}

func TestReloadCorpus(t *testing.T) {
	h := newHarness(t)

	stats, err := h.svc.ReloadCorpus(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats, 2)
	assert.Equal(t, stats, h.svc.CorpusStatus())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CorpusReloads.WithLabelValues("ok")))
}
