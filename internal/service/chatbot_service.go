package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"faq-chatbot-be/internal/dto"
	"faq-chatbot-be/internal/metrics"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/logsink"
	"faq-chatbot-be/pkg/matcher"
	"faq-chatbot-be/pkg/rag"
	ragcontext "faq-chatbot-be/pkg/rag/context"
	"faq-chatbot-be/pkg/rag/prompt"
	"faq-chatbot-be/pkg/rag/response"
	"faq-chatbot-be/pkg/rag/rewrite"
	"faq-chatbot-be/pkg/rag/search"
	"faq-chatbot-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrIncompleteFeedback = errors.New("incomplete feedback")

const (
	OutcomeGreeting   = "greeting"
	OutcomeFallback   = "fallback"
	OutcomeAnswered   = "answered"
	OutcomeUnanswered = "unanswered"
)

const (
	FailureUpstream = "upstream"
	FailureInternal = "internal"
)

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	Answer(ctx context.Context, question, sessionId string) (*dto.ChatResponse, error)
	RecordFeedback(ctx context.Context, request *dto.FeedbackRequest) error
	CorpusStatus() []corpus.DomainStats
	ReloadCorpus(ctx context.Context) ([]corpus.DomainStats, error)
}

// ChatbotDependencies groups the pipeline stages the service drives.
type ChatbotDependencies struct {
	Sessions  store.SessionStore
	Router    *router.DomainRouter
	Rewriter  *rewrite.Rewriter
	Registry  *corpus.Registry
	Retriever *search.Orchestrator
	Assembler *ragcontext.Assembler
	Matcher   matcher.Matcher
	Prompts   *prompt.Builder
	Generator *response.Generator
	Recorder  IPublisherService
	Logger    logger.ILogger
	Metrics   *metrics.Collector
	Clock     func() time.Time
}

type chatbotService struct {
	ChatbotDependencies
	tracer trace.Tracer
}

func NewChatbotService(deps ChatbotDependencies) IChatbotService {
	if deps.Matcher == nil {
		deps.Matcher = matcher.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &chatbotService{
		ChatbotDependencies: deps,
		tracer:              otel.Tracer("faq-chatbot-be/chatbot"),
	}
}

func (s *chatbotService) Answer(ctx context.Context, question, sessionId string) (*dto.ChatResponse, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, rag.ErrEmptyInput
	}
	if sessionId == "" {
		sessionId = store.DefaultSessionID
	}

	ctx, span := s.tracer.Start(ctx, "chatbot.Answer")
	defer span.End()

	reply := &dto.ChatResponse{OriginalQuestion: q, ExpandedQuestion: q}

	if router.IsGreeting(q) {
		s.Sessions.Append(ctx, sessionId, store.RoleAssistant, response.GreetingReply)
		s.Metrics.ObserveAnswer("", OutcomeGreeting)
		span.SetAttributes(attribute.String("chat.outcome", OutcomeGreeting))
		reply.Response = response.GreetingReply
		return reply, nil
	}

	s.Sessions.Append(ctx, sessionId, store.RoleUser, q)
	history := s.Sessions.GetHistory(ctx, sessionId)

	domainName := s.Router.Route(q)
	span.SetAttributes(attribute.String("chat.domain", string(domainName)))

	domain, err := s.Registry.Domain(domainName)
	if err != nil {
		return nil, s.fail(span, err)
	}

	expanded := s.rewrite(ctx, q, history, domainName)
	reply.ExpandedQuestion = expanded

	hits, err := s.retrieve(ctx, expanded, domain)
	if err != nil {
		return nil, s.fail(span, err)
	}

	structured := s.Matcher.Format(s.Matcher.Match(q, history))
	bundle := s.Assembler.Assemble(hits, structured, domain.MetadataNote)

	if bundle.Fallback {
		s.Sessions.Append(ctx, sessionId, store.RoleAssistant, response.OutOfScopeReply)
		s.Metrics.ObserveEvidenceFallback(string(domainName))
		s.Metrics.ObserveAnswer(string(domainName), OutcomeFallback)
		span.SetAttributes(attribute.String("chat.outcome", OutcomeFallback))
		reply.Response = response.OutOfScopeReply
		return reply, nil
	}

	answer, err := s.generate(ctx, q, bundle)
	if err != nil {
		return nil, s.fail(span, err)
	}
	reply.Response = answer

	now := s.Clock()
	unanswered := response.IsUnanswered(answer)
	if unanswered {
		s.record(ctx, logsink.NewUnansweredRow(now, q))
		s.Metrics.ObserveUnanswered(string(domainName))
	}

	s.Sessions.Append(ctx, sessionId, store.RoleAssistant, answer)

	source := SourceType(domainName, bundle)
	s.record(ctx, logsink.NewChatRow(now, q, answer, source, unanswered))

	outcome := OutcomeAnswered
	if unanswered {
		outcome = OutcomeUnanswered
	}
	s.Metrics.ObserveAnswer(string(domainName), outcome)
	span.SetAttributes(
		attribute.String("chat.outcome", outcome),
		attribute.String("chat.source_type", source),
		attribute.Int("chat.hits", len(hits)),
	)

	s.Logger.Info("Chatbot", "Answered question", map[string]interface{}{
		"session_id":  sessionId,
		"domain":      domainName,
		"expanded":    expanded,
		"hits":        len(hits),
		"source_type": source,
		"unanswered":  unanswered,
	})

	return reply, nil
}

func (s *chatbotService) rewrite(ctx context.Context, q string, history []store.Turn, domain router.Domain) string {
	defer s.Metrics.ObserveStage("rewrite", time.Now())
	ctx, span := s.tracer.Start(ctx, "chatbot.rewrite")
	defer span.End()

	expanded := s.Rewriter.Rewrite(ctx, q, history, domain)
	span.SetAttributes(attribute.Bool("rewrite.changed", expanded != q))
	return expanded
}

func (s *chatbotService) retrieve(ctx context.Context, query string, domain *corpus.Domain) ([]search.Hit, error) {
	defer s.Metrics.ObserveStage("retrieve", time.Now())
	ctx, span := s.tracer.Start(ctx, "chatbot.retrieve")
	defer span.End()

	hits, err := s.Retriever.Retrieve(ctx, query, domain)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieve.hits", len(hits)))
	return hits, nil
}

func (s *chatbotService) generate(ctx context.Context, q string, bundle ragcontext.Bundle) (string, error) {
	defer s.Metrics.ObserveStage("generate", time.Now())
	ctx, span := s.tracer.Start(ctx, "chatbot.generate")
	defer span.End()

	mode := response.SelectMode(q)
	span.SetAttributes(attribute.String("generate.mode", string(mode)))

	answer, err := s.Generator.Generate(ctx, s.Prompts.System(mode), s.Prompts.User(bundle, q))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return answer, nil
}

// failureKind separates model and index backend errors from local ones.
func failureKind(err error) string {
	if rag.IsServiceError(err) {
		return FailureUpstream
	}
	return FailureInternal
}

func (s *chatbotService) fail(span trace.Span, err error) error {
	kind := failureKind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.Metrics.ObserveFailure(kind)
	s.Logger.Error("Chatbot", "Answer pipeline failed", map[string]interface{}{
		"error": err.Error(),
		"kind":  kind,
	})
	return err
}

// record hands the row to the recorder; failures never reach the caller.
func (s *chatbotService) record(ctx context.Context, row logsink.Row) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Publish(ctx, row); err != nil {
		s.Metrics.ObserveSinkFailure(string(row.Stream))
		s.Logger.Error("Chatbot", "Failed to queue log row", map[string]interface{}{
			"error": (&rag.LogSinkError{Stream: string(row.Stream), Err: err}).Error(),
		})
	}
}

func (s *chatbotService) RecordFeedback(ctx context.Context, request *dto.FeedbackRequest) error {
	if request == nil ||
		strings.TrimSpace(request.Question) == "" ||
		strings.TrimSpace(request.Answer) == "" ||
		strings.TrimSpace(string(request.Feedback)) == "" {
		return ErrIncompleteFeedback
	}

	s.record(ctx, logsink.NewFeedbackRow(
		s.Clock(),
		request.Question,
		request.Answer,
		string(request.Feedback),
		request.Reason,
	))
	return nil
}

func (s *chatbotService) CorpusStatus() []corpus.DomainStats {
	return s.Registry.Stats()
}

func (s *chatbotService) ReloadCorpus(ctx context.Context) ([]corpus.DomainStats, error) {
	set, err := s.Registry.Reload(ctx)
	s.Metrics.ObserveReload(err)
	if err != nil {
		s.Logger.Error("Chatbot", "Corpus reload failed, keeping previous snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	s.Logger.Info("Chatbot", "Corpus reloaded", map[string]interface{}{
		"loaded_at": set.LoadedAt,
	})
	return set.Stats(), nil
}

// SourceType labels where an answer's evidence came from.
func SourceType(domain router.Domain, bundle ragcontext.Bundle) string {
	kind := "knowledge"
	if bundle.HasFAQ() {
		kind = "faq"
	}
	if domain == router.DomainReserve {
		return "reserve_" + kind
	}
	return kind
}
