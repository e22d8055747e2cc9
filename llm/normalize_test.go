package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/types"
)

// stubAdapter lets tests pick an arbitrary capability surface.
type stubAdapter struct {
	name  string
	roles []types.Role
	caps  Capabilities
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) AllowedRoles() []types.Role {
	if s.roles != nil {
		return s.roles
	}
	return []types.Role{types.RoleSystem, types.RoleUser, types.RoleAssistant, types.RoleTool}
}
func (s *stubAdapter) Capabilities() Capabilities { return s.caps }
func (s *stubAdapter) BuildPayload(*ChatRequest) (*WireRequest, error) {
	return &WireRequest{}, nil
}
func (s *stubAdapter) ParseResponse([]byte) (*ChatResponse, error)   { return &ChatResponse{}, nil }
func (s *stubAdapter) ParseDelta([]byte) ([]StreamChunk, error)      { return nil, nil }
func (s *stubAdapter) BuildEmbeddingPayload(*EmbeddingRequest) (*WireRequest, error) {
	return &WireRequest{}, nil
}
func (s *stubAdapter) ParseEmbeddingResponse([]byte) (*EmbeddingResponse, error) {
	return &EmbeddingResponse{}, nil
}

func fullCaps() Capabilities {
	return Capabilities{Streaming: true, ReasoningModels: true, Embeddings: true}
}

func newTestNormalizer(cfg ProviderConfig, caps Capabilities) *Normalizer {
	return NewNormalizer(&stubAdapter{name: "test", caps: caps}, cfg, zap.NewNop())
}

func TestNormalizeChat_Validation(t *testing.T) {
	n := newTestNormalizer(ProviderConfig{}, fullCaps())

	tests := []struct {
		name string
		req  *ChatRequest
	}{
		{"nil request", nil},
		{"empty messages", &ChatRequest{Model: "gpt-4o"}},
		{
			"tool_choice without tools",
			&ChatRequest{
				Model:      "gpt-4o",
				Messages:   []types.Message{types.NewUserMessage("hi")},
				ToolChoice: "auto",
			},
		},
		{
			"no model anywhere",
			&ChatRequest{Messages: []types.Message{types.NewUserMessage("hi")}},
		},
		{
			"tool_call_id on a user message",
			&ChatRequest{
				Model: "gpt-4o",
				Messages: []types.Message{
					{Role: types.RoleUser, Content: "hi", ToolCallID: "c1"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.NormalizeChat(tt.req)
			require.Error(t, err)
			assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
		})
	}
}

func TestNormalizeChat_RejectsRoleOutsideAllowedSet(t *testing.T) {
	adapter := &stubAdapter{
		name:  "narrow",
		roles: []types.Role{types.RoleUser, types.RoleAssistant},
		caps:  fullCaps(),
	}
	n := NewNormalizer(adapter, ProviderConfig{}, zap.NewNop())

	_, err := n.NormalizeChat(&ChatRequest{
		Model:    "m",
		Messages: []types.Message{types.NewSystemMessage("be terse")},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "messages[0]")
}

func TestNormalizeChat_DefaultModelFromConfig(t *testing.T) {
	n := newTestNormalizer(ProviderConfig{ChatModel: "gpt-4o-mini"}, fullCaps())

	norm, err := n.NormalizeChat(&ChatRequest{
		Messages: []types.Message{types.NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", norm.Model)
}

func TestNormalizeChat_InputNeverMutated(t *testing.T) {
	n := newTestNormalizer(ProviderConfig{}, fullCaps())

	req := &ChatRequest{
		Model:             "o3",
		Messages:          []types.Message{types.NewUserMessage("hi")},
		Temperature:       Float32Ptr(0.5),
		ParallelToolCalls: BoolPtr(true),
	}
	norm, err := n.NormalizeChat(req)
	require.NoError(t, err)

	assert.Equal(t, float32(0.5), *req.Temperature, "caller's request must stay untouched")
	assert.NotNil(t, req.ParallelToolCalls)
	assert.Equal(t, float32(1), *norm.Temperature)
	assert.Nil(t, norm.ParallelToolCalls)
}

func TestNormalizeChat_ReasoningModelRules(t *testing.T) {
	n := newTestNormalizer(ProviderConfig{}, fullCaps())

	norm, err := n.NormalizeChat(&ChatRequest{
		Model:             "o3-mini",
		Messages:          []types.Message{types.NewUserMessage("hi")},
		Temperature:       Float32Ptr(0.2),
		ParallelToolCalls: BoolPtr(false),
	})
	require.NoError(t, err)
	require.NotNil(t, norm.Temperature)
	assert.Equal(t, ReasoningTemperature, *norm.Temperature)
	assert.Nil(t, norm.ParallelToolCalls, "field must be absent, not defaulted")
}

func TestNormalizeChat_ReasoningModelConflicts(t *testing.T) {
	t.Run("API mode without reasoning support", func(t *testing.T) {
		n := newTestNormalizer(ProviderConfig{}, Capabilities{Streaming: true, ReasoningModels: false})
		_, err := n.NormalizeChat(&ChatRequest{
			Model:    "o3",
			Messages: []types.Message{types.NewUserMessage("hi")},
		})
		require.Error(t, err)
		assert.Equal(t, types.ErrCapabilityConflict, types.GetErrorCode(err))
		assert.Contains(t, err.Error(), "o3")
	})

	t.Run("streaming a reasoning model", func(t *testing.T) {
		n := newTestNormalizer(ProviderConfig{}, fullCaps())
		_, err := n.NormalizeChat(&ChatRequest{
			Model:    "o1",
			Messages: []types.Message{types.NewUserMessage("hi")},
			OnDelta:  func(StreamChunk) {},
		})
		require.Error(t, err)
		assert.Equal(t, types.ErrCapabilityConflict, types.GetErrorCode(err))
	})
}

func TestNormalizeChat_StreamingUnsupported(t *testing.T) {
	n := newTestNormalizer(ProviderConfig{}, Capabilities{ReasoningModels: true})
	_, err := n.NormalizeChat(&ChatRequest{
		Model:    "gpt-4o",
		Messages: []types.Message{types.NewUserMessage("hi")},
		OnDelta:  func(StreamChunk) {},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrCapabilityConflict, types.GetErrorCode(err))
}

func TestNormalizeEmbedding(t *testing.T) {
	cfg := ProviderConfig{EmbeddingModel: "text-embedding-3-small"}
	n := newTestNormalizer(cfg, fullCaps())

	t.Run("empty input", func(t *testing.T) {
		_, err := n.NormalizeEmbedding(&EmbeddingRequest{})
		require.Error(t, err)
		assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
	})

	t.Run("no embeddings capability", func(t *testing.T) {
		bare := newTestNormalizer(cfg, Capabilities{Streaming: true})
		_, err := bare.NormalizeEmbedding(&EmbeddingRequest{Input: []string{"x"}})
		require.Error(t, err)
		assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
	})

	t.Run("default dimensions injected", func(t *testing.T) {
		norm, err := n.NormalizeEmbedding(&EmbeddingRequest{Input: []string{"x"}})
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", norm.Model)
		assert.Equal(t, 1536, norm.Dimensions)
	})

	t.Run("caller dimensions kept", func(t *testing.T) {
		norm, err := n.NormalizeEmbedding(&EmbeddingRequest{Input: []string{"x"}, Dimensions: 256})
		require.NoError(t, err)
		assert.Equal(t, 256, norm.Dimensions)
	})

	t.Run("legacy model strips dimensions", func(t *testing.T) {
		norm, err := n.NormalizeEmbedding(&EmbeddingRequest{
			Model:      "text-embedding-ada-002",
			Input:      []string{"x"},
			Dimensions: 512,
		})
		require.NoError(t, err)
		assert.Zero(t, norm.Dimensions, "legacy model rejects the field's mere presence")
	})

	t.Run("ignored dimensions dropped", func(t *testing.T) {
		ign := newTestNormalizer(ProviderConfig{
			EmbeddingModel: "text-embedding-3-large",
			IgnoredFields:  []string{ParamDimensions},
		}, fullCaps())
		norm, err := ign.NormalizeEmbedding(&EmbeddingRequest{Input: []string{"x"}})
		require.NoError(t, err)
		assert.Zero(t, norm.Dimensions)
	})
}
