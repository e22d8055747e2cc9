package responses

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/types"
)

func testAdapter() *Adapter {
	return New(llm.ProviderConfig{APIKey: "sk-test", BaseURL: "https://api.openai.com"})
}

func TestCapabilities(t *testing.T) {
	a := testAdapter()
	assert.Equal(t, "openai-responses", a.Name())
	caps := a.Capabilities()
	assert.True(t, caps.Streaming)
	assert.False(t, caps.ReasoningModels, "reasoning families cannot be served in this API mode")
	assert.False(t, caps.Embeddings)
}

func TestBuildPayload(t *testing.T) {
	a := testAdapter()
	wire, err := a.BuildPayload(&llm.ChatRequest{
		Model: "gpt-4o",
		Messages: []types.Message{
			types.NewSystemMessage("be brief"),
			types.NewUserMessage("hi"),
		},
		MaxTokens:   64,
		Temperature: llm.Float32Ptr(0.3),
		Tools: []types.ToolSchema{{
			Name:       "lookup",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/responses", wire.URL)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(wire.Body, &payload))
	assert.Equal(t, "gpt-4o", payload["model"])
	assert.Equal(t, 64.0, payload["max_output_tokens"])
	assert.Equal(t, 0.3, payload["temperature"])

	input := payload["input"].([]any)
	require.Len(t, input, 2)
	first := input[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be brief", first["content"])

	tools := payload["tools"].([]any)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "function", tool["type"])
	assert.Equal(t, "lookup", tool["name"], "tool declarations are flattened in this mode")
}

func TestParseResponse_MessageAndFunctionCalls(t *testing.T) {
	a := testAdapter()
	body := []byte(`{
		"id": "resp_1",
		"model": "gpt-4o",
		"status": "completed",
		"output": [
			{"type": "reasoning"},
			{"type": "message", "role": "assistant", "content": [
				{"type": "output_text", "text": "It is sunny."},
				{"type": "output_text", "text": "ignored second part"}
			]},
			{"type": "function_call", "call_id": "call_1", "name": "get_weather", "arguments": "{\"city\":\"Oslo\"}"},
			{"type": "function_call", "id": "fc_2", "name": "get_time"}
		],
		"usage": {"input_tokens": 12, "output_tokens": 4}
	}`)

	resp, err := a.ParseResponse(body)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	msg := resp.Choices[0].Message

	assert.Equal(t, "It is sunny.", msg.Content, "first output_text of the first message item")
	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.JSONEq(t, `{"city":"Oslo"}`, msg.ToolCalls[0].Arguments)
	assert.Equal(t, "fc_2", msg.ToolCalls[1].ID, "item id used when call_id is absent")
	assert.Equal(t, "{}", msg.ToolCalls[1].Arguments, "absent arguments default to an empty object")
	assert.Equal(t, "stop", resp.Choices[0].FinishReason, "completed status wins over collected calls")

	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 4, resp.Usage.CompletionTokens)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
}

func TestParseResponse_FinishReasons(t *testing.T) {
	a := testAdapter()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "completed text",
			body: `{"id":"r","status":"completed","output":[
				{"type":"message","content":[{"type":"output_text","text":"done"}]}]}`,
			want: "stop",
		},
		{
			name: "completed with calls",
			body: `{"id":"r","status":"completed","output":[
				{"type":"function_call","call_id":"c1","name":"f"}]}`,
			want: "stop",
		},
		{
			name: "calls pending",
			body: `{"id":"r","status":"in_progress","output":[
				{"type":"function_call","call_id":"c1","name":"f"}]}`,
			want: "tool_calls",
		},
		{
			name: "incomplete without calls",
			body: `{"id":"r","status":"incomplete","output":[
				{"type":"message","content":[{"type":"output_text","text":"par"}]}]}`,
			want: "stop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.ParseResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Choices[0].FinishReason)
		})
	}
}

func TestParseResponse_ChatCompletionsUsageKeys(t *testing.T) {
	a := testAdapter()
	body := []byte(`{"id":"r","status":"completed","output":[],
		"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)

	resp, err := a.ParseResponse(body)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Usage.PromptTokens)
	assert.Equal(t, 2, resp.Usage.CompletionTokens)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestParseDelta_TraditionalShape(t *testing.T) {
	a := testAdapter()
	chunks, err := a.ParseDelta([]byte(`{"id":"c1","choices":[{"index":0,"delta":{"content":"Hi"}}]}`))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hi", chunks[0].Content)
}

func TestEmbeddingsUnsupported(t *testing.T) {
	a := testAdapter()
	_, err := a.BuildEmbeddingPayload(&llm.EmbeddingRequest{Input: []string{"x"}})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}
