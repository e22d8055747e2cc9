package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/types"
)

// Normalizer turns a caller-supplied request into a validated, wire-ready
// one: defaults merged through the Schema, required fields checked, model
// capability rules enforced. All failures here are raised before any
// network call is attempted.
type Normalizer struct {
	schema       *Schema
	cfg          ProviderConfig
	provider     string
	caps         Capabilities
	allowedRoles []types.Role
	logger       *zap.Logger
}

// NewNormalizer builds a Normalizer bound to one adapter variant.
func NewNormalizer(adapter Adapter, cfg ProviderConfig, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema := DefaultSchema()
	for _, f := range cfg.IgnoredFields {
		if !schema.known(f) {
			logger.Warn("ignored_fields names an unknown parameter",
				zap.String("field", f))
		}
	}
	return &Normalizer{
		schema:       schema,
		cfg:          cfg,
		provider:     adapter.Name(),
		caps:         adapter.Capabilities(),
		allowedRoles: adapter.AllowedRoles(),
		logger:       logger,
	}
}

// NormalizeChat validates and resolves a chat request. The input is never
// mutated; the returned request is a private copy.
func (n *Normalizer) NormalizeChat(req *ChatRequest) (*ChatRequest, error) {
	if req == nil {
		return nil, types.NewError(types.ErrValidation, "request must not be nil").WithProvider(n.provider)
	}
	if len(req.Messages) == 0 {
		return nil, types.NewError(types.ErrValidation, "messages must not be empty").WithProvider(n.provider)
	}
	if req.ToolChoice != "" && len(req.Tools) == 0 {
		return nil, types.NewError(types.ErrValidation, "tool_choice requires a non-empty tools list").WithProvider(n.provider)
	}

	norm := req.Clone()
	if norm.Model == "" {
		norm.Model = n.cfg.ChatModel
	}
	if norm.Model == "" {
		return nil, types.NewError(types.ErrValidation, "model is required and no default chat model is configured").WithProvider(n.provider)
	}

	for i, msg := range norm.Messages {
		if err := msg.Validate(n.allowedRoles); err != nil {
			if e, ok := err.(*types.Error); ok {
				e.Message = fmt.Sprintf("messages[%d]: %s", i, e.Message)
				return nil, e.WithProvider(n.provider)
			}
			return nil, err
		}
	}

	callerTemperature := req.Temperature
	n.schema.resolve(norm, n.cfg)

	if err := n.applyCapabilityRules(norm, callerTemperature); err != nil {
		return nil, err
	}

	if norm.OnDelta != nil && !n.caps.Streaming {
		return nil, types.NewError(types.ErrCapabilityConflict,
			fmt.Sprintf("provider %s does not support streaming responses", n.provider)).WithProvider(n.provider)
	}

	return norm, nil
}

// applyCapabilityRules enforces the reasoning-family restrictions: a fixed
// sampling temperature and no parallel-tool-calls field on the wire. A
// reasoning model combined with an API mode that cannot serve it is a
// capability conflict, not a parameter to fix up.
func (n *Normalizer) applyCapabilityRules(norm *ChatRequest, callerTemperature *float32) error {
	if !IsReasoningModel(norm.Model) {
		return nil
	}

	if !n.caps.ReasoningModels {
		return types.NewError(types.ErrCapabilityConflict,
			fmt.Sprintf("model %q is a reasoning model and cannot be served through the %s API mode; use the chat completions adapter", norm.Model, n.provider)).
			WithProvider(n.provider)
	}
	if norm.OnDelta != nil {
		return types.NewError(types.ErrCapabilityConflict,
			fmt.Sprintf("model %q does not support streaming responses", norm.Model)).WithProvider(n.provider)
	}

	if callerTemperature != nil && *callerTemperature != ReasoningTemperature {
		n.logger.Warn("overriding caller temperature for reasoning model",
			zap.String("model", norm.Model),
			zap.Float32("requested", *callerTemperature),
			zap.Float32("forced", ReasoningTemperature))
	}
	norm.Temperature = Float32Ptr(ReasoningTemperature)

	// The field must be absent from the payload, not defaulted: its mere
	// presence is rejected by the reasoning families.
	norm.ParallelToolCalls = nil

	return nil
}

// NormalizeEmbedding validates and resolves an embedding request, injecting
// the model's default dimensionality when the caller supplies none.
func (n *Normalizer) NormalizeEmbedding(req *EmbeddingRequest) (*EmbeddingRequest, error) {
	if req == nil || len(req.Input) == 0 {
		return nil, types.NewError(types.ErrValidation, "embedding input must not be empty").WithProvider(n.provider)
	}
	if !n.caps.Embeddings {
		return nil, types.NewError(types.ErrValidation,
			fmt.Sprintf("provider %s has no embeddings endpoint", n.provider)).WithProvider(n.provider)
	}

	norm := *req
	norm.Input = append([]string(nil), req.Input...)
	if norm.Model == "" {
		norm.Model = n.cfg.EmbeddingModel
	}
	if norm.Model == "" {
		return nil, types.NewError(types.ErrValidation, "model is required and no default embedding model is configured").WithProvider(n.provider)
	}

	if !SupportsCustomDimensions(norm.Model) {
		if norm.Dimensions != 0 {
			n.logger.Warn("dropping dimensions for legacy embedding model",
				zap.String("model", norm.Model),
				zap.Int("requested", norm.Dimensions))
		}
		norm.Dimensions = 0
	} else if norm.Dimensions == 0 {
		if d, ok := DefaultEmbeddingDimensions(norm.Model); ok {
			norm.Dimensions = d
		}
	}
	if n.cfg.ignoredSet()[ParamDimensions] {
		norm.Dimensions = 0
	}

	return &norm, nil
}
