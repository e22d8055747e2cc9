package openaicompat

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/providers"
	"github.com/tensorlane/llmbridge/types"
)

// Config tunes the variant for one concrete OpenAI-compatible provider.
// Zero values select the stock OpenAI endpoints and Bearer auth, so hosted
// compatibles only need a name and base URL in their ProviderConfig.
type Config struct {
	// ProviderName identifies the provider in errors and logs ("openai"
	// when empty).
	ProviderName string

	// EndpointPath is the chat completions path, "/v1/chat/completions"
	// when empty.
	EndpointPath string

	// EmbeddingPath is the embeddings path, "/v1/embeddings" when empty.
	EmbeddingPath string

	// BuildHeaders overrides the default Bearer token header set.
	BuildHeaders func(apiKey string) http.Header
}

// Adapter is the chat-completions translator. It is stateless and pure:
// transport and resilience live in the executor.
type Adapter struct {
	cfg      Config
	provider llm.ProviderConfig
}

// New creates the adapter over one provider configuration.
func New(cfg Config, provider llm.ProviderConfig) *Adapter {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openai"
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.EmbeddingPath == "" {
		cfg.EmbeddingPath = "/v1/embeddings"
	}
	return &Adapter{cfg: cfg, provider: provider}
}

// Name implements llm.Adapter.
func (a *Adapter) Name() string { return a.cfg.ProviderName }

// AllowedRoles implements llm.Adapter. The chat-completions wire accepts
// the full canonical role set.
func (a *Adapter) AllowedRoles() []types.Role {
	return []types.Role{types.RoleSystem, types.RoleUser, types.RoleAssistant, types.RoleTool}
}

// Capabilities implements llm.Adapter.
func (a *Adapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{Streaming: true, ReasoningModels: true, Embeddings: true}
}

func (a *Adapter) headers() http.Header {
	if a.cfg.BuildHeaders != nil {
		return a.cfg.BuildHeaders(a.provider.APIKey)
	}
	return providers.BearerHeaders(a.provider.APIKey)
}

// BuildPayload implements llm.Adapter.
func (a *Adapter) BuildPayload(req *llm.ChatRequest) (*llm.WireRequest, error) {
	stream := req.OnDelta != nil
	payload := providers.BuildChatPayload(req, stream)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrValidation,
			fmt.Sprintf("failed to marshal request: %v", err)).WithProvider(a.Name())
	}
	return &llm.WireRequest{
		Method: http.MethodPost,
		URL:    providers.JoinURL(a.provider.BaseURL, a.cfg.EndpointPath),
		Header: a.headers(),
		Body:   body,
		Stream: stream,
	}, nil
}

// ParseResponse implements llm.Adapter.
func (a *Adapter) ParseResponse(body []byte) (*llm.ChatResponse, error) {
	var parsed providers.ChatBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode response: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}
	resp := providers.ToChatResponse(parsed)
	return resp, nil
}

// ParseDelta implements llm.Adapter.
func (a *Adapter) ParseDelta(data []byte) ([]llm.StreamChunk, error) {
	chunks, err := providers.ParseChunks(data)
	if err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode stream event: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}
	return chunks, nil
}

// BuildEmbeddingPayload implements llm.Adapter.
func (a *Adapter) BuildEmbeddingPayload(req *llm.EmbeddingRequest) (*llm.WireRequest, error) {
	payload := providers.EmbeddingPayload{
		Model:          req.Model,
		Input:          req.Input,
		EncodingFormat: req.EncodingFormat,
		Dimensions:     req.Dimensions,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrValidation,
			fmt.Sprintf("failed to marshal request: %v", err)).WithProvider(a.Name())
	}
	return &llm.WireRequest{
		Method: http.MethodPost,
		URL:    providers.JoinURL(a.provider.BaseURL, a.cfg.EmbeddingPath),
		Header: a.headers(),
		Body:   body,
	}, nil
}

// ParseEmbeddingResponse implements llm.Adapter.
func (a *Adapter) ParseEmbeddingResponse(body []byte) (*llm.EmbeddingResponse, error) {
	var parsed providers.EmbeddingBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode embedding response: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}
	return providers.ToEmbeddingResponse(parsed), nil
}
