package responses

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/providers"
	"github.com/tensorlane/llmbridge/types"
)

const endpointPath = "/v1/responses"

// Adapter is the responses-API translator.
type Adapter struct {
	provider llm.ProviderConfig
}

// New creates the adapter over one provider configuration.
func New(provider llm.ProviderConfig) *Adapter {
	return &Adapter{provider: provider}
}

// Name implements llm.Adapter.
func (a *Adapter) Name() string { return "openai-responses" }

// AllowedRoles implements llm.Adapter.
func (a *Adapter) AllowedRoles() []types.Role {
	return []types.Role{types.RoleSystem, types.RoleUser, types.RoleAssistant, types.RoleTool}
}

// Capabilities implements llm.Adapter.
func (a *Adapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{Streaming: true, ReasoningModels: false, Embeddings: false}
}

// inputItem is one element of the request's input list.
type inputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toolDef is a function declaration on the responses wire, flattened
// rather than nested under a "function" key.
type toolDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatPayload struct {
	Model           string            `json:"model"`
	Input           []inputItem       `json:"input"`
	Tools           []toolDef         `json:"tools,omitempty"`
	ToolChoice      string            `json:"tool_choice,omitempty"`
	MaxOutputTokens int               `json:"max_output_tokens,omitempty"`
	Temperature     *float32          `json:"temperature,omitempty"`
	TopP            *float32          `json:"top_p,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Stream          bool              `json:"stream,omitempty"`
}

// BuildPayload implements llm.Adapter.
func (a *Adapter) BuildPayload(req *llm.ChatRequest) (*llm.WireRequest, error) {
	stream := req.OnDelta != nil

	payload := chatPayload{
		Model:           req.Model,
		Input:           make([]inputItem, 0, len(req.Messages)),
		ToolChoice:      req.ToolChoice,
		MaxOutputTokens: req.MaxTokens,
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		Metadata:        req.Metadata,
		Stream:          stream,
	}
	for _, m := range req.Messages {
		payload.Input = append(payload.Input, inputItem{
			Role:    string(m.Role),
			Content: m.Text(),
		})
	}
	for _, t := range req.Tools {
		payload.Tools = append(payload.Tools, toolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrValidation,
			fmt.Sprintf("failed to marshal request: %v", err)).WithProvider(a.Name())
	}
	return &llm.WireRequest{
		Method: http.MethodPost,
		URL:    providers.JoinURL(a.provider.BaseURL, endpointPath),
		Header: providers.BearerHeaders(a.provider.APIKey),
		Body:   body,
		Stream: stream,
	}, nil
}

// outputItem is one typed item of the response's output list. Message
// items carry content parts; function-call items carry the call fields.
type outputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content,omitempty"`

	ID        string `json:"id,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// usageBody reads both responses-API and chat-completions usage key
// spellings; providers are not consistent about which pair they send.
type usageBody struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type responseBody struct {
	ID        string       `json:"id"`
	Model     string       `json:"model,omitempty"`
	Status    string       `json:"status,omitempty"`
	CreatedAt int64        `json:"created_at,omitempty"`
	Output    []outputItem `json:"output"`
	Usage     *usageBody   `json:"usage,omitempty"`
}

// ParseResponse implements llm.Adapter. The completion text is the first
// output-text part of the first message item; every function-call item
// becomes a tool call, with absent arguments defaulted to an empty object.
func (a *Adapter) ParseResponse(body []byte) (*llm.ChatResponse, error) {
	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode response: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}

	msg := types.Message{Role: types.RoleAssistant}
	textFound := false
	for _, item := range parsed.Output {
		switch item.Type {
		case "message":
			if textFound {
				continue
			}
			for _, part := range item.Content {
				if part.Type == "output_text" {
					msg.Content = part.Text
					textFound = true
					break
				}
			}
		case "function_call":
			args := item.Arguments
			if args == "" {
				args = "{}"
			}
			id := item.CallID
			if id == "" {
				id = item.ID
			}
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:        id,
				Type:      "function",
				Name:      item.Name,
				Arguments: args,
			})
		}
	}

	// A completed response is "stop" even when it carried function calls;
	// only a non-completed status with calls pending maps to "tool_calls".
	finish := "stop"
	if parsed.Status != "completed" && len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	resp := &llm.ChatResponse{
		ID:    parsed.ID,
		Model: parsed.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: finish,
			Message:      msg,
		}},
	}
	if parsed.Usage != nil {
		resp.Usage = convertUsage(parsed.Usage)
	}
	return resp, nil
}

func convertUsage(u *usageBody) llm.ChatUsage {
	prompt := u.InputTokens
	if prompt == 0 {
		prompt = u.PromptTokens
	}
	completion := u.OutputTokens
	if completion == 0 {
		completion = u.CompletionTokens
	}
	total := u.TotalTokens
	if total == 0 {
		total = prompt + completion
	}
	return llm.ChatUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
	}
}

// ParseDelta implements llm.Adapter. Stream events arrive in the
// chat-completions incremental shape regardless of API mode.
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
func (a *Adapter) BuildEmbeddingPayload(*llm.EmbeddingRequest) (*llm.WireRequest, error) {
	return nil, types.NewError(types.ErrValidation,
		"the responses API mode has no embeddings endpoint").WithProvider(a.Name())
}

// ParseEmbeddingResponse implements llm.Adapter.
func (a *Adapter) ParseEmbeddingResponse([]byte) (*llm.EmbeddingResponse, error) {
	return nil, types.NewError(types.ErrValidation,
		"the responses API mode has no embeddings endpoint").WithProvider(a.Name())
}
