package llm

import (
	"net/http"

	"github.com/tensorlane/llmbridge/types"
)

// WireRequest is one fully shaped provider HTTP request, produced by an
// Adapter and executed by the Executor. The body is rebuilt into a fresh
// reader on every retry attempt.
type WireRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Stream marks a request whose response body is a sequence of
	// server-sent delta events rather than a single JSON document.
	Stream bool
}

// Capabilities declares what a given adapter variant can serve. The
// Normalizer consults it before any payload is built, so an impossible
// model/API-mode combination is rejected without a network call.
type Capabilities struct {
	Streaming       bool
	ReasoningModels bool
	Embeddings      bool
}

// Adapter translates between the canonical shapes and one provider wire
// format. Variants form a closed set (see llm/providers); one is selected
// at construction time from configuration, never by runtime type
// inspection of responses.
//
// Adapters are pure translators: they never perform I/O. Transport and
// resilience belong to the Executor.
type Adapter interface {
	// Name returns the provider identifier ("openai", "anthropic", ...).
	Name() string

	// AllowedRoles returns the message roles this provider accepts.
	AllowedRoles() []types.Role

	// Capabilities reports the API modes this variant supports.
	Capabilities() Capabilities

	// BuildPayload shapes a normalized chat request into the wire request.
	BuildPayload(req *ChatRequest) (*WireRequest, error)

	// ParseResponse reconstructs the canonical response from a
	// non-streaming response body.
	ParseResponse(body []byte) (*ChatResponse, error)

	// ParseDelta translates one server-sent event payload into canonical
	// stream chunks (one per choice, or a single usage-only chunk).
	ParseDelta(data []byte) ([]StreamChunk, error)

	// BuildEmbeddingPayload shapes a normalized embedding request.
	// Variants without embedding support return a validation error.
	BuildEmbeddingPayload(req *EmbeddingRequest) (*WireRequest, error)

	// ParseEmbeddingResponse reconstructs the canonical embedding response.
	ParseEmbeddingResponse(body []byte) (*EmbeddingResponse, error)
}

// ProviderDefaults are the configured default parameter values merged into
// every request between the schema defaults and the caller's own values.
type ProviderDefaults struct {
	Temperature *float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	TopP        *float32 `yaml:"top_p,omitempty" json:"top_p,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	N           *int     `yaml:"n,omitempty" json:"n,omitempty"`
}

// ProviderConfig is the per-adapter configuration: credentials, endpoints,
// default models per capability, configured parameter defaults, and the
// fields this adapter ignores. Read-only after construction.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url"`

	// ChatModel and EmbeddingModel are the defaults used when a request
	// names no model.
	ChatModel      string `yaml:"chat_model,omitempty" json:"chat_model,omitempty"`
	EmbeddingModel string `yaml:"embedding_model,omitempty" json:"embedding_model,omitempty"`

	Defaults ProviderDefaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// IgnoredFields names canonical parameters this adapter silently drops
	// from the wire payload even when supplied (see schema.go for names).
	IgnoredFields []string `yaml:"ignored_fields,omitempty" json:"ignored_fields,omitempty"`
}

// ignoredSet returns IgnoredFields as a lookup set.
func (c ProviderConfig) ignoredSet() map[string]bool {
	if len(c.IgnoredFields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.IgnoredFields))
	for _, f := range c.IgnoredFields {
		set[f] = true
	}
	return set
}
