package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/types"
)

func testAdapter() *Adapter {
	return New(llm.ProviderConfig{APIKey: "ak-test", BaseURL: "https://api.anthropic.com"})
}

func TestBuildPayload_HeadersAndShape(t *testing.T) {
	a := testAdapter()
	wire, err := a.BuildPayload(&llm.ChatRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []types.Message{
			types.NewSystemMessage("be terse"),
			types.NewUserMessage("hi"),
		},
		MaxTokens:   256,
		Temperature: llm.Float32Ptr(0.4),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.anthropic.com/v1/messages", wire.URL)
	assert.Equal(t, "ak-test", wire.Header.Get("X-Api-Key"))
	assert.Equal(t, apiVersion, wire.Header.Get("Anthropic-Version"))
	assert.Empty(t, wire.Header.Get("Authorization"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(wire.Body, &payload))
	assert.Equal(t, "be terse", payload["system"], "system prompt travels in its own field")
	assert.Equal(t, 256.0, payload["max_tokens"])
	assert.Equal(t, 0.4, payload["temperature"])

	messages := payload["messages"].([]any)
	require.Len(t, messages, 1, "system message is not in the message list")
}

func TestBuildPayload_MaxTokensRequired(t *testing.T) {
	a := testAdapter()
	wire, err := a.BuildPayload(&llm.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []types.Message{types.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(wire.Body, &payload))
	assert.Equal(t, float64(defaultMaxTokens), payload["max_tokens"])
}

func TestConvertMessages_ToolFlow(t *testing.T) {
	msgs := []types.Message{
		types.NewUserMessage("weather in oslo?"),
		types.NewAssistantMessage("checking").WithToolCalls([]types.ToolCall{
			{ID: "tc1", Name: "get_weather", Arguments: `{"city":"Oslo"}`},
		}),
		types.NewToolMessage("tc1", "get_weather", `{"temp":-3}`),
	}
	system, wire := convertMessages(msgs)
	assert.Empty(t, system)
	require.Len(t, wire, 3)

	assistant := wire[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 2)
	assert.Equal(t, "text", assistant.Content[0].Type)
	use := assistant.Content[1]
	assert.Equal(t, "tool_use", use.Type)
	assert.Equal(t, "tc1", use.ID)
	assert.Equal(t, "get_weather", use.Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, string(use.Input))

	result := wire[2]
	assert.Equal(t, "user", result.Role, "tool results are rewrapped as user messages")
	require.Len(t, result.Content, 1)
	assert.Equal(t, "tool_result", result.Content[0].Type)
	assert.Equal(t, "tc1", result.Content[0].ToolUseID)
	assert.Equal(t, `{"temp":-3}`, result.Content[0].Content)
}

func TestConvertToolChoice(t *testing.T) {
	assert.Nil(t, convertToolChoice(""))
	assert.Equal(t, &toolChoice{Type: "auto"}, convertToolChoice("auto"))
	assert.Equal(t, &toolChoice{Type: "none"}, convertToolChoice("none"))
	assert.Equal(t, &toolChoice{Type: "any"}, convertToolChoice("required"))
	assert.Equal(t, &toolChoice{Type: "tool", Name: "get_weather"}, convertToolChoice("get_weather"))
}

func TestParseResponse(t *testing.T) {
	a := testAdapter()
	body := []byte(`{
		"id": "msg_1",
		"model": "claude-sonnet-4-20250514",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "Using the tool."},
			{"type": "tool_use", "id": "tu1", "name": "get_weather", "input": {"city": "Oslo"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 20, "output_tokens": 6}
	}`)

	resp, err := a.ParseResponse(body)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	choice := resp.Choices[0]

	assert.Equal(t, "Using the tool.", choice.Message.Content)
	require.Len(t, choice.Message.ToolCalls, 1)
	assert.JSONEq(t, `{"city":"Oslo"}`, choice.Message.ToolCalls[0].Arguments)
	assert.Equal(t, "tool_calls", choice.FinishReason)
	assert.Equal(t, 26, resp.Usage.TotalTokens)
}

func TestMapStopReason(t *testing.T) {
	tests := []struct{ in, want string }{
		{"end_turn", "stop"},
		{"stop_sequence", "stop"},
		{"max_tokens", "length"},
		{"tool_use", "tool_calls"},
		{"weird_future_reason", "weird_future_reason"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStopReason(tt.in))
	}
}

func TestParseDelta_EventSequence(t *testing.T) {
	a := testAdapter()

	t.Run("message_start", func(t *testing.T) {
		chunks, err := a.ParseDelta([]byte(`{"type":"message_start","message":
			{"id":"msg_1","model":"claude-sonnet-4-20250514","usage":{"input_tokens":15}}}`))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "msg_1", chunks[0].ID)
		assert.Equal(t, types.RoleAssistant, chunks[0].Role)
		require.NotNil(t, chunks[0].Usage)
		assert.Equal(t, 15, chunks[0].Usage.PromptTokens)
	})

	t.Run("text delta", func(t *testing.T) {
		chunks, err := a.ParseDelta([]byte(`{"type":"content_block_delta","index":0,
			"delta":{"type":"text_delta","text":"Hel"}}`))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Hel", chunks[0].Content)
	})

	t.Run("tool_use block start", func(t *testing.T) {
		chunks, err := a.ParseDelta([]byte(`{"type":"content_block_start","index":1,
			"content_block":{"type":"tool_use","id":"tu1","name":"get_weather"}}`))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		require.Len(t, chunks[0].ToolCalls, 1)
		call := chunks[0].ToolCalls[0]
		assert.Equal(t, 1, call.Index)
		assert.Equal(t, "tu1", call.ID)
		assert.Equal(t, "get_weather", call.Name)
	})

	t.Run("input json delta", func(t *testing.T) {
		chunks, err := a.ParseDelta([]byte(`{"type":"content_block_delta","index":1,
			"delta":{"type":"input_json_delta","partial_json":"{\"city\""}}`))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, `{"city"`, chunks[0].ToolCalls[0].Arguments)
	})

	t.Run("message_delta", func(t *testing.T) {
		chunks, err := a.ParseDelta([]byte(`{"type":"message_delta",
			"delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":9}}`))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "stop", chunks[0].FinishReason)
		require.NotNil(t, chunks[0].Usage)
		assert.Equal(t, 9, chunks[0].Usage.CompletionTokens)
	})

	t.Run("housekeeping events fold to nothing", func(t *testing.T) {
		for _, event := range []string{
			`{"type":"ping"}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_stop"}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		} {
			chunks, err := a.ParseDelta([]byte(event))
			require.NoError(t, err)
			assert.Empty(t, chunks)
		}
	})
}

func TestEmbeddingsUnsupported(t *testing.T) {
	a := testAdapter()
	_, err := a.BuildEmbeddingPayload(&llm.EmbeddingRequest{Input: []string{"x"}})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}
