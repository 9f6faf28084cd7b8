package bootstrap

import (
	"context"
	"fmt"

	"faq-chatbot-be/internal/config"
	"faq-chatbot-be/internal/constant"
	"faq-chatbot-be/internal/controller"
	"faq-chatbot-be/internal/handler"
	"faq-chatbot-be/internal/metrics"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/service"
	"faq-chatbot-be/pkg/ai/router"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/matcher"
	pktNats "faq-chatbot-be/pkg/nats"
	ragcontext "faq-chatbot-be/pkg/rag/context"
	"faq-chatbot-be/pkg/rag/prompt"
	"faq-chatbot-be/pkg/rag/response"
	"faq-chatbot-be/pkg/rag/rewrite"
	"faq-chatbot-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	ChatSocketHandler *handler.ChatSocketHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	ChatbotService service.IChatbotService
	Registry       *corpus.Registry
	Manifest       *corpus.Manifest
	Metrics        *metrics.Collector
	Logger         logger.ILogger

	closers []func()
}

// NewContainer wires the whole answer pipeline. The corpus is loaded eagerly;
// a service that cannot load its data refuses to start.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}
	ready := false
	defer func() {
		if !ready {
			c.Close()
		}
	}()

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	ragLogger := logger.NewIsolatedLogger(cfg.App.RagLogFilePath)
	c.Logger = sysLogger
	c.Metrics = metrics.NewCollector(constant.MetricsNamespace)
	c.closers = append(c.closers, func() {
		_ = ragLogger.Sync()
		_ = sysLogger.Sync()
	})

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var natsPub *pktNats.Publisher
	if wantsSink(cfg, "nats") {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			natsPub = pub
			c.closers = append(c.closers, pub.Close)
		}
	}

	// 3. Infrastructure
	embeddingProvider, err := provideEmbedding(cfg, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	llmProvider, err := provideLLM(ctx, cfg, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	answerLLM, rewriteLLM := guardLLM(cfg, llmProvider, sysLogger)

	sessions, closeSessions := provideSessions(ctx, cfg, sysLogger)
	if closeSessions != nil {
		c.closers = append(c.closers, closeSessions)
	}

	var db *gorm.DB
	if needsDatabase(cfg) {
		db, err = provideDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
	}

	// 4. Corpus
	manifest, err := corpus.LoadManifest(cfg.Corpus.ManifestPath)
	if err != nil {
		return nil, err
	}
	opener, err := provideIndexOpener(cfg, db, sysLogger)
	if err != nil {
		return nil, err
	}
	registry := corpus.NewRegistry(corpus.ManifestLoader(manifest, opener))
	set, err := registry.Reload(ctx)
	c.Metrics.ObserveReload(err)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	for _, st := range set.Stats() {
		fields := map[string]interface{}{
			"domain":    st.Domain,
			"faq":       st.FAQ,
			"knowledge": st.Knowledge,
			"vectors":   st.Vectors,
		}
		if st.Drift != 0 {
			fields["drift"] = st.Drift
			sysLogger.Warn("Bootstrap", "Index size does not match corpus", fields)
			continue
		}
		sysLogger.Info("Bootstrap", "Domain loaded", fields)
	}
	c.Registry = registry
	c.Manifest = manifest

	filmMatcher, err := matcher.LoadFilmMatcher(manifest.Matrix)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Structured matcher disabled", map[string]interface{}{"error": err.Error()})
		filmMatcher = matcher.Noop{}
	}

	basePrompt, err := prompt.LoadBasePrompt(cfg.Corpus.SystemPromptPath)
	if err != nil {
		return nil, fmt.Errorf("system prompt: %w", err)
	}

	// 5. Log sinks
	sink, sinkClosers := provideSink(ctx, cfg, db, natsPub, sysLogger)
	c.closers = append(c.closers, sinkClosers...)

	// 6. Services
	publisherService := service.NewPublisherService(constant.ChatLogTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		constant.ChatLogTopic,
		sink,
		sysLogger,
		c.Metrics,
	)

	rewriter := rewrite.NewRewriter(
		rewriteLLM,
		ragLogger,
		cfg.Ai.RewriteTimeout,
		rewrite.WithModel(cfg.Ai.RewriteModel),
		rewrite.WithFallbackHook(func(router.Domain, string) {
			c.Metrics.ObserveRewriteFallback()
		}),
	)

	c.ChatbotService = service.NewChatbotService(service.ChatbotDependencies{
		Sessions:  sessions,
		Router:    router.NewDomainRouter(),
		Rewriter:  rewriter,
		Registry:  registry,
		Retriever: search.NewOrchestrator(embeddingProvider, ragLogger, search.DefaultConfig()),
		Assembler: ragcontext.NewAssembler(),
		Matcher:   filmMatcher,
		Prompts:   prompt.NewBuilder(basePrompt),
		Generator: response.NewGenerator(answerLLM, cfg.Ai.LLMTimeout, cfg.Ai.LLMModel),
		Recorder:  publisherService,
		Logger:    ragLogger,
		Metrics:   c.Metrics,
	})

	// 7. Controllers
	c.ChatbotController = controller.NewChatbotController(c.ChatbotService)
	c.ChatSocketHandler = handler.NewChatSocketHandler(c.ChatbotService, sysLogger)

	ready = true
	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
