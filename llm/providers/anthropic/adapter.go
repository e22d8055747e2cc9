package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/providers"
	"github.com/tensorlane/llmbridge/types"
)

const (
	endpointPath = "/v1/messages"
	apiVersion   = "2023-06-01"

	// defaultMaxTokens fills the wire field when the caller set none; the
	// messages API requires it.
	defaultMaxTokens = 4096
)

// Adapter is the Anthropic messages-API translator.
type Adapter struct {
	provider llm.ProviderConfig
}

// New creates the adapter over one provider configuration.
func New(provider llm.ProviderConfig) *Adapter {
	return &Adapter{provider: provider}
}

// Name implements llm.Adapter.
func (a *Adapter) Name() string { return "anthropic" }

// AllowedRoles implements llm.Adapter. Tool messages are accepted and
// rewrapped as user-role tool_result blocks on the wire.
func (a *Adapter) AllowedRoles() []types.Role {
	return []types.Role{types.RoleSystem, types.RoleUser, types.RoleAssistant, types.RoleTool}
}

// Capabilities implements llm.Adapter.
func (a *Adapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{Streaming: true, ReasoningModels: true, Embeddings: false}
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// image fields
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type toolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type chatPayload struct {
	Model         string        `json:"model"`
	System        string        `json:"system,omitempty"`
	Messages      []wireMessage `json:"messages"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   *float32      `json:"temperature,omitempty"`
	TopP          *float32      `json:"top_p,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Tools         []toolDef     `json:"tools,omitempty"`
	ToolChoice    *toolChoice   `json:"tool_choice,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

func (a *Adapter) headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-Api-Key", a.provider.APIKey)
	h.Set("Anthropic-Version", apiVersion)
	return h
}

// convertMessages rewraps canonical messages into the block-list shape:
// system messages move to the dedicated field, tool messages become
// user-role tool_result blocks, assistant tool calls become tool_use
// blocks.
func convertMessages(msgs []types.Message) (string, []wireMessage) {
	var system string
	out := make([]wireMessage, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Text()
			continue

		case types.RoleTool:
			out = append(out, wireMessage{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Text(),
				}},
			})
			continue
		}

		wm := wireMessage{Role: string(m.Role)}
		for _, p := range m.ContentParts() {
			switch p.Type {
			case types.PartImage:
				wm.Content = append(wm.Content, contentBlock{
					Type:   "image",
					Source: &imageSource{Type: "url", URL: p.ImageURL},
				})
			case types.PartText:
				wm.Content = append(wm.Content, contentBlock{Type: "text", Text: p.Text})
			}
		}
		for _, tc := range m.ToolCalls {
			input := json.RawMessage(tc.Arguments)
			if tc.Arguments == "" {
				input = json.RawMessage("{}")
			}
			wm.Content = append(wm.Content, contentBlock{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Name,
				Input: input,
			})
		}
		if len(wm.Content) > 0 {
			out = append(out, wm)
		}
	}
	return system, out
}

func convertToolChoice(choice string) *toolChoice {
	switch choice {
	case "":
		return nil
	case "auto":
		return &toolChoice{Type: "auto"}
	case "none":
		return &toolChoice{Type: "none"}
	case "required":
		return &toolChoice{Type: "any"}
	default:
		// A specific tool name.
		return &toolChoice{Type: "tool", Name: choice}
	}
}

// BuildPayload implements llm.Adapter.
func (a *Adapter) BuildPayload(req *llm.ChatRequest) (*llm.WireRequest, error) {
	stream := req.OnDelta != nil
	system, messages := convertMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	payload := chatPayload{
		Model:         req.Model,
		System:        system,
		Messages:      messages,
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
		ToolChoice:    convertToolChoice(req.ToolChoice),
		Stream:        stream,
	}
	for _, t := range req.Tools {
		payload.Tools = append(payload.Tools, toolDef{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
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
		Header: a.headers(),
		Body:   body,
		Stream: stream,
	}, nil
}

type usageBody struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type responseBody struct {
	ID         string         `json:"id"`
	Model      string         `json:"model,omitempty"`
	Role       string         `json:"role,omitempty"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason,omitempty"`
	Usage      *usageBody     `json:"usage,omitempty"`
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}

// ParseResponse implements llm.Adapter.
func (a *Adapter) ParseResponse(body []byte) (*llm.ChatResponse, error) {
	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode response: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}

	msg := types.Message{Role: types.RoleAssistant}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:        block.ID,
				Type:      "function",
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	resp := &llm.ChatResponse{
		ID:    parsed.ID,
		Model: parsed.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: mapStopReason(parsed.StopReason),
			Message:      msg,
		}},
	}
	if parsed.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		}
	}
	return resp, nil
}

type streamEvent struct {
	Type         string        `json:"type"`
	Index        int           `json:"index,omitempty"`
	Message      *responseBody `json:"message,omitempty"`
	ContentBlock *contentBlock `json:"content_block,omitempty"`
	Delta        *streamDelta  `json:"delta,omitempty"`
	Usage        *usageBody    `json:"usage,omitempty"`
}

type streamDelta struct {
	Type        string `json:"type"` // text_delta, input_json_delta
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// ParseDelta implements llm.Adapter. Every event maps independently onto
// the canonical chunk shape; the aggregator reassembles across events. The
// wire block index doubles as the tool-call index, which keeps argument
// fragments of concurrent tool calls apart.
func (a *Adapter) ParseDelta(data []byte) ([]llm.StreamChunk, error) {
	var event streamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, types.NewError(types.ErrAPI,
			fmt.Sprintf("failed to decode stream event: %v", err)).
			WithCause(err).WithProvider(a.Name())
	}

	choice := 0
	chunk := llm.StreamChunk{ChoiceIndex: &choice}

	switch event.Type {
	case "message_start":
		if event.Message == nil {
			return nil, nil
		}
		chunk.ID = event.Message.ID
		chunk.Model = event.Message.Model
		chunk.Role = types.RoleAssistant
		if event.Message.Usage != nil {
			chunk.Usage = &llm.ChatUsage{PromptTokens: event.Message.Usage.InputTokens}
		}

	case "content_block_start":
		if event.ContentBlock == nil || event.ContentBlock.Type != "tool_use" {
			return nil, nil
		}
		chunk.ToolCalls = []llm.ToolCallDelta{{
			Index: event.Index,
			ID:    event.ContentBlock.ID,
			Type:  "function",
			Name:  event.ContentBlock.Name,
		}}

	case "content_block_delta":
		if event.Delta == nil {
			return nil, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			chunk.Content = event.Delta.Text
		case "input_json_delta":
			chunk.ToolCalls = []llm.ToolCallDelta{{
				Index:     event.Index,
				Arguments: event.Delta.PartialJSON,
			}}
		default:
			return nil, nil
		}

	case "message_delta":
		if event.Delta != nil {
			chunk.FinishReason = mapStopReason(event.Delta.StopReason)
		}
		if event.Usage != nil {
			chunk.Usage = &llm.ChatUsage{CompletionTokens: event.Usage.OutputTokens}
		}

	default:
		// ping, content_block_stop, message_stop carry nothing to fold.
		return nil, nil
	}

	return []llm.StreamChunk{chunk}, nil
}

// BuildEmbeddingPayload implements llm.Adapter.
func (a *Adapter) BuildEmbeddingPayload(*llm.EmbeddingRequest) (*llm.WireRequest, error) {
	return nil, types.NewError(types.ErrValidation,
		"anthropic has no embeddings endpoint").WithProvider(a.Name())
}

// ParseEmbeddingResponse implements llm.Adapter.
func (a *Adapter) ParseEmbeddingResponse([]byte) (*llm.EmbeddingResponse, error) {
	return nil, types.NewError(types.ErrValidation,
		"anthropic has no embeddings endpoint").WithProvider(a.Name())
}
