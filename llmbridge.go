// Package llmbridge provides a top-level convenience entry point for
// creating a provider client with minimal boilerplate.
//
// Usage:
//
//	import "github.com/tensorlane/llmbridge"
//
//	c, err := llmbridge.New(llmbridge.WithOpenAI("gpt-4o-mini"))
//	c, err := llmbridge.New(llmbridge.WithAnthropic("claude-sonnet-4-20250514"))
//	c, err := llmbridge.New(llmbridge.WithOpenAIResponses("gpt-4o"))
//
// This is a thin wrapper around [factory.NewClient]; both produce identical
// results. Use this package when you prefer the shorter import path.
package llmbridge

import (
	"os"

	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/factory"
)

type setup struct {
	cfg    *llm.Config
	logger *zap.Logger
	opts   []llm.Option
}

// Option configures the client created by [New].
type Option func(*setup)

// WithOpenAI selects the chat-completions adapter against the OpenAI API.
// API key from OPENAI_API_KEY env unless overridden by [WithAPIKey].
func WithOpenAI(model string) Option {
	return func(s *setup) {
		s.cfg.Provider = factory.ProviderOpenAI
		s.cfg.BaseURL = "https://api.openai.com"
		s.cfg.ChatModel = model
		s.cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// WithOpenAIResponses selects the responses-API adapter against the OpenAI
// API. API key from OPENAI_API_KEY env unless overridden by [WithAPIKey].
func WithOpenAIResponses(model string) Option {
	return func(s *setup) {
		s.cfg.Provider = factory.ProviderOpenAIResponses
		s.cfg.BaseURL = "https://api.openai.com"
		s.cfg.ChatModel = model
		s.cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// WithAnthropic selects the Anthropic messages adapter. API key from
// ANTHROPIC_API_KEY env unless overridden by [WithAPIKey].
func WithAnthropic(model string) Option {
	return func(s *setup) {
		s.cfg.Provider = factory.ProviderAnthropic
		s.cfg.BaseURL = "https://api.anthropic.com"
		s.cfg.ChatModel = model
		s.cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// WithConfig replaces the whole configuration, for callers that loaded one
// through [llm.LoadConfig].
func WithConfig(cfg *llm.Config) Option {
	return func(s *setup) { s.cfg = cfg }
}

// WithAPIKey overrides the API key picked up from the environment.
func WithAPIKey(key string) Option {
	return func(s *setup) { s.cfg.APIKey = key }
}

// WithBaseURL overrides the provider base URL, for OpenAI-compatible
// gateways and test servers.
func WithBaseURL(url string) Option {
	return func(s *setup) { s.cfg.BaseURL = url }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *setup) { s.logger = logger }
}

// WithClientOptions forwards additional low-level options to the client.
func WithClientOptions(opts ...llm.Option) Option {
	return func(s *setup) { s.opts = append(s.opts, opts...) }
}

// New creates a fully wired [llm.Client]. At minimum a provider must be
// selected via [WithOpenAI], [WithOpenAIResponses], [WithAnthropic], or
// [WithConfig].
func New(opts ...Option) (*llm.Client, error) {
	s := &setup{cfg: llm.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return factory.NewClient(s.cfg, s.logger, s.opts...)
}
