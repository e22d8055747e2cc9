// Package factory builds a configured Client. The adapter variant set is
// closed and selected here, once, from configuration; nothing downstream
// inspects response shapes to guess a provider.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/internal/tlsutil"
	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/providers/anthropic"
	"github.com/tensorlane/llmbridge/llm/providers/openaicompat"
	"github.com/tensorlane/llmbridge/llm/providers/responses"
)

// Provider identifiers accepted in Config.Provider.
const (
	ProviderOpenAI          = "openai"
	ProviderOpenAIResponses = "openai-responses"
	ProviderAnthropic       = "anthropic"
)

// NewAdapter builds the adapter variant named by cfg.Provider.
func NewAdapter(cfg *llm.Config) (llm.Adapter, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return openaicompat.New(openaicompat.Config{}, cfg.ProviderConfig), nil
	case ProviderOpenAIResponses:
		return responses.New(cfg.ProviderConfig), nil
	case ProviderAnthropic:
		return anthropic.New(cfg.ProviderConfig), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewClient builds a fully wired Client from configuration: the selected
// adapter, a hardened HTTP client carrying the configured deadline, the
// retry policy, and the optional rate limit.
func NewClient(cfg *llm.Config, logger *zap.Logger, opts ...llm.Option) (*llm.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	adapter, err := NewAdapter(cfg)
	if err != nil {
		return nil, err
	}

	base := []llm.Option{
		llm.WithLogger(logger),
		llm.WithHTTPClient(tlsutil.SecureHTTPClient(cfg.Timeout)),
		llm.WithRetryPolicy(cfg.Retry),
		llm.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
	return llm.NewClient(adapter, cfg.ProviderConfig, append(base, opts...)...), nil
}
