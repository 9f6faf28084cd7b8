package fantasy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"faq-chatbot-be/pkg/llm"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
)

type Config struct {
	Provider string // "openai", "anthropic" or "openrouter"
	APIKey   string
	BaseURL  string
	Model    string
}

// Provider adapts a fantasy language model to llm.LLMProvider.
type Provider struct {
	provider fantasy.Provider
	model    string

	mu     sync.Mutex
	models map[string]fantasy.LanguageModel
}

var _ llm.LLMProvider = (*Provider)(nil)

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	var provider fantasy.Provider
	var err error

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		provider, err = openrouter.New(openrouter.WithAPIKey(cfg.APIKey))

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	p := &Provider{provider: provider, model: cfg.Model, models: map[string]fantasy.LanguageModel{}}
	// resolve the default model eagerly so misconfiguration fails at startup
	if _, err := p.languageModel(ctx, cfg.Model); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) languageModel(ctx context.Context, name string) (fantasy.LanguageModel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.models[name]; ok {
		return m, nil
	}
	m, err := p.provider.LanguageModel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get language model %s: %w", name, err)
	}
	p.models[name] = m
	return m, nil
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	model, err := p.languageModel(ctx, opts.Model)
	if err != nil {
		return "", err
	}

	system, turns := llm.SplitSystem(history)
	var agentOpts []fantasy.AgentOption
	if system != "" {
		agentOpts = append(agentOpts, fantasy.WithSystemPrompt(system))
	}
	agent := fantasy.NewAgent(model, agentOpts...)

	temperature := opts.Temperature
	call := fantasy.AgentCall{
		Prompt:      flatten(turns),
		Temperature: &temperature,
	}
	if opts.MaxTokens > 0 {
		maxTokens := int64(opts.MaxTokens)
		call.MaxOutputTokens = &maxTokens
	}

	result, err := agent.Generate(ctx, call)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return result.Response.Content.Text(), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

// flatten keeps a lone user turn verbatim and renders longer exchanges as "role: content" lines.
func flatten(turns []llm.Message) string {
	if len(turns) == 1 {
		return turns[0].Content
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Role + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}
