package providers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/types"
)

// WireFunction is a tool call's function payload on the chat-completions
// wire, in both directions.
type WireFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// WireToolCall is one tool call on the chat-completions wire. Index is only
// present on streaming deltas.
type WireToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function WireFunction `json:"function"`
}

// WireFunctionDef declares a callable tool.
type WireFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// WireTool wraps a function declaration on the wire.
type WireTool struct {
	Type     string          `json:"type"`
	Function WireFunctionDef `json:"function"`
}

// WireImageURL carries an image reference inside a content part.
type WireImageURL struct {
	URL string `json:"url"`
}

// WirePart is one element of a multimodal content list.
type WirePart struct {
	Type       string           `json:"type"`
	Text       string           `json:"text,omitempty"`
	ImageURL   *WireImageURL    `json:"image_url,omitempty"`
	InputAudio *types.AudioData `json:"input_audio,omitempty"`
	File       *types.FileData  `json:"file,omitempty"`
}

// WireMessage is one conversation message on the chat-completions wire.
// Content is a string for plain text and a part list for multimodal input.
type WireMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// ResponseFormat selects the output format ("text" or "json_object").
type ResponseFormat struct {
	Type string `json:"type"`
}

// StreamOptions asks for the terminal usage chunk on streaming calls.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatPayload is the chat-completions request body. Optional sampling
// fields are pointers: a parameter the normalizer stripped is absent from
// the serialized payload, not sent as a zero.
type ChatPayload struct {
	Model             string            `json:"model"`
	Messages          []WireMessage     `json:"messages"`
	Tools             []WireTool        `json:"tools,omitempty"`
	ToolChoice        string            `json:"tool_choice,omitempty"`
	MaxTokens         int               `json:"max_tokens,omitempty"`
	Temperature       *float32          `json:"temperature,omitempty"`
	TopP              *float32          `json:"top_p,omitempty"`
	N                 *int              `json:"n,omitempty"`
	Logprobs          *bool             `json:"logprobs,omitempty"`
	ResponseFormat    *ResponseFormat   `json:"response_format,omitempty"`
	ReasoningEffort   string            `json:"reasoning_effort,omitempty"`
	ParallelToolCalls *bool             `json:"parallel_tool_calls,omitempty"`
	Stop              []string          `json:"stop,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Stream            bool              `json:"stream,omitempty"`
	StreamOptions     *StreamOptions    `json:"stream_options,omitempty"`
}

// BuildChatPayload shapes a normalized request into the chat-completions
// body. The request is already validated and merged; this is translation
// only.
func BuildChatPayload(req *llm.ChatRequest, stream bool) ChatPayload {
	p := ChatPayload{
		Model:             req.Model,
		Messages:          ConvertMessages(req.Messages),
		Tools:             ConvertTools(req.Tools),
		ToolChoice:        req.ToolChoice,
		MaxTokens:         req.MaxTokens,
		Temperature:       req.Temperature,
		TopP:              req.TopP,
		N:                 req.N,
		Logprobs:          req.Logprobs,
		ReasoningEffort:   req.ReasoningEffort,
		ParallelToolCalls: req.ParallelToolCalls,
		Stop:              req.Stop,
		Metadata:          req.Metadata,
		Stream:            stream,
	}
	if req.ResponseFormat != "" {
		p.ResponseFormat = &ResponseFormat{Type: req.ResponseFormat}
	}
	if stream {
		p.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return p
}

// ConvertMessages translates canonical messages to the wire shape. Plain
// text stays a bare string; any typed part list becomes a content array.
func ConvertMessages(msgs []types.Message) []WireMessage {
	out := make([]WireMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := WireMessage{
			Role:       string(m.Role),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		if len(m.Parts) == 0 {
			if m.Content != "" {
				wm.Content = m.Content
			}
		} else {
			parts := m.ContentParts()
			wireParts := make([]WirePart, 0, len(parts))
			for _, p := range parts {
				wireParts = append(wireParts, convertPart(p))
			}
			wm.Content = wireParts
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, WireToolCall{
				ID:   tc.ID,
				Type: toolCallType(tc.Type),
				Function: WireFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func convertPart(p types.ContentPart) WirePart {
	switch p.Type {
	case types.PartImage:
		return WirePart{Type: "image_url", ImageURL: &WireImageURL{URL: p.ImageURL}}
	case types.PartInputAudio:
		return WirePart{Type: "input_audio", InputAudio: p.Audio}
	case types.PartFile:
		return WirePart{Type: "file", File: p.File}
	default:
		return WirePart{Type: "text", Text: p.Text}
	}
}

// ConvertTools translates tool schemas to wire declarations.
func ConvertTools(tools []types.ToolSchema) []WireTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]WireTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, WireTool{
			Type: "function",
			Function: WireFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func toolCallType(t string) string {
	if t == "" {
		return "function"
	}
	return t
}

// WireChoice is one choice in a chat-completions response. Message is set
// on flat responses, Delta on streaming chunks.
type WireChoice struct {
	Index        int          `json:"index"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Message      *WireMessage `json:"message,omitempty"`
	Delta        *WireMessage `json:"delta,omitempty"`
}

// WireUsage is the usage block of a chat-completions response.
type WireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatBody is the chat-completions response document, shared by flat
// responses and stream chunks.
type ChatBody struct {
	ID      string       `json:"id"`
	Object  string       `json:"object,omitempty"`
	Created int64        `json:"created,omitempty"`
	Model   string       `json:"model,omitempty"`
	Choices []WireChoice `json:"choices"`
	Usage   *WireUsage   `json:"usage,omitempty"`
}

// contentText extracts the text of a wire content value, which may be a
// bare string or a part list.
func contentText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, item := range v {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				b.WriteString(text)
			}
		}
		return b.String()
	default:
		return ""
	}
}

// ToChatResponse reconstructs the canonical response from a parsed
// chat-completions document.
func ToChatResponse(body ChatBody) *llm.ChatResponse {
	resp := &llm.ChatResponse{
		ID:      body.ID,
		Model:   body.Model,
		Choices: make([]llm.ChatChoice, 0, len(body.Choices)),
	}
	for _, c := range body.Choices {
		msg := types.Message{Role: types.RoleAssistant}
		if c.Message != nil {
			if c.Message.Role != "" {
				msg.Role = types.Role(c.Message.Role)
			}
			msg.Content = contentText(c.Message.Content)
			for _, tc := range c.Message.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
					ID:        tc.ID,
					Type:      toolCallType(tc.Type),
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
		}
		resp.Choices = append(resp.Choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message:      msg,
		})
	}
	if body.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     body.Usage.PromptTokens,
			CompletionTokens: body.Usage.CompletionTokens,
			TotalTokens:      body.Usage.TotalTokens,
		}
	}
	return resp
}

// ParseChunks translates one chat-completions stream event into canonical
// chunks: one per choice delta, or a single usage-only chunk when the
// terminal event carries usage without choices.
func ParseChunks(data []byte) ([]llm.StreamChunk, error) {
	var body ChatBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}

	base := llm.StreamChunk{
		ID:      body.ID,
		Object:  body.Object,
		Created: body.Created,
		Model:   body.Model,
	}

	if len(body.Choices) == 0 {
		if body.Usage == nil {
			return nil, nil
		}
		chunk := base
		chunk.Usage = &llm.ChatUsage{
			PromptTokens:     body.Usage.PromptTokens,
			CompletionTokens: body.Usage.CompletionTokens,
			TotalTokens:      body.Usage.TotalTokens,
		}
		return []llm.StreamChunk{chunk}, nil
	}

	chunks := make([]llm.StreamChunk, 0, len(body.Choices))
	for _, c := range body.Choices {
		chunk := base
		idx := c.Index
		chunk.ChoiceIndex = &idx
		chunk.FinishReason = c.FinishReason
		if c.Delta != nil {
			chunk.Role = types.Role(c.Delta.Role)
			chunk.Content = contentText(c.Delta.Content)
			for pos, tc := range c.Delta.ToolCalls {
				callIdx := pos
				if tc.Index != nil {
					callIdx = *tc.Index
				}
				chunk.ToolCalls = append(chunk.ToolCalls, llm.ToolCallDelta{
					Index:     callIdx,
					ID:        tc.ID,
					Type:      tc.Type,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
		}
		if body.Usage != nil {
			chunk.Usage = &llm.ChatUsage{
				PromptTokens:     body.Usage.PromptTokens,
				CompletionTokens: body.Usage.CompletionTokens,
				TotalTokens:      body.Usage.TotalTokens,
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// EmbeddingPayload is the embeddings request body.
type EmbeddingPayload struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

// EmbeddingBody is the embeddings response document.
type EmbeddingBody struct {
	Model string `json:"model,omitempty"`
	Data  []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage *WireUsage `json:"usage,omitempty"`
}

// ToEmbeddingResponse reconstructs the canonical embedding response.
func ToEmbeddingResponse(body EmbeddingBody) *llm.EmbeddingResponse {
	resp := &llm.EmbeddingResponse{
		Model:      body.Model,
		Embeddings: make([]llm.EmbeddingData, 0, len(body.Data)),
	}
	for _, d := range body.Data {
		resp.Embeddings = append(resp.Embeddings, llm.EmbeddingData{
			Index:     d.Index,
			Embedding: d.Embedding,
		})
	}
	if body.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens: body.Usage.PromptTokens,
			TotalTokens:  body.Usage.TotalTokens,
		}
	}
	return resp
}

// JoinURL concatenates a base URL and an endpoint path without doubling
// the separator.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// BearerHeaders builds the standard JSON + Bearer token header set.
func BearerHeaders(apiKey string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}
