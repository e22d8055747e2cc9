package llm

import (
	"time"

	"github.com/tensorlane/llmbridge/types"
)

// DeltaHandler is invoked synchronously for every streaming delta as it
// arrives. Setting it on a ChatRequest selects the streaming path.
type DeltaHandler func(chunk StreamChunk)

// ChatRequest is the canonical chat request. It is constructed per call and
// discarded after normalization; the Client never retains it.
//
// Optional sampling parameters are pointers so that "caller did not supply"
// is distinguishable from an explicit zero, and so that a field an adapter
// ignores (or a capability rule strips) can be absent from the wire payload
// entirely rather than sent with a default.
type ChatRequest struct {
	RequestID string            `json:"request_id,omitempty"`
	Model     string            `json:"model"`
	Messages  []types.Message   `json:"messages"`

	Tools      []types.ToolSchema `json:"tools,omitempty"`
	ToolChoice string             `json:"tool_choice,omitempty"` // auto/none/<tool name>

	MaxTokens         int      `json:"max_tokens,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
	TopP              *float32 `json:"top_p,omitempty"`
	N                 *int     `json:"n,omitempty"`
	Logprobs          *bool    `json:"logprobs,omitempty"`
	ResponseFormat    string   `json:"response_format,omitempty"`  // "text" or "json_object"
	ReasoningEffort   string   `json:"reasoning_effort,omitempty"` // low/medium/high
	ParallelToolCalls *bool    `json:"parallel_tool_calls,omitempty"`
	Stop              []string `json:"stop,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	// OnDelta, when non-nil, streams the response and invokes the handler
	// for every delta before the finalized response is returned.
	OnDelta DeltaHandler `json:"-"`
}

// Clone returns a shallow copy with its own slices for the fields the
// normalizer rewrites, so callers never observe normalization side effects.
func (r *ChatRequest) Clone() *ChatRequest {
	cp := *r
	if r.Messages != nil {
		cp.Messages = append([]types.Message(nil), r.Messages...)
	}
	if r.Tools != nil {
		cp.Tools = append([]types.ToolSchema(nil), r.Tools...)
	}
	if r.Stop != nil {
		cp.Stop = append([]string(nil), r.Stop...)
	}
	return &cp
}

// ChatUsage reports token consumption for one call. Estimated is set when
// the provider sent no usage and the totals were reconstructed locally.
type ChatUsage struct {
	PromptTokens     int  `json:"prompt_tokens,omitempty"`
	CompletionTokens int  `json:"completion_tokens,omitempty"`
	TotalTokens      int  `json:"total_tokens,omitempty"`
	Estimated        bool `json:"estimated,omitempty"`
}

// ChatChoice is one completion alternative within a ChatResponse.
type ChatChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      types.Message `json:"message"`
}

// ChatResponse is the canonical response contract consumed by callers.
// It is derived once, from a flat provider response or from the streaming
// aggregator, and never mutated afterwards; the receiving caller owns it
// exclusively.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// FirstChoice safely returns the first choice from a ChatResponse.
func (r *ChatResponse) FirstChoice() (ChatChoice, bool) {
	if r == nil || len(r.Choices) == 0 {
		return ChatChoice{}, false
	}
	return r.Choices[0], true
}

// Text returns the completion text of the first choice, or "".
func (r *ChatResponse) Text() string {
	c, ok := r.FirstChoice()
	if !ok {
		return ""
	}
	return c.Message.Text()
}

// ToolCallDelta is one streaming fragment of a tool call. Index identifies
// the call within its choice; ID, Type and Name appear only on the first
// fragment, while Arguments accumulates across fragments by concatenation.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamChunk is one incremental fragment of a streaming response, already
// translated out of the provider wire shape by an Adapter.
//
// ChoiceIndex is nil on the terminal usage-bearing chunk, which carries no
// choice content and is excluded from content grouping.
type StreamChunk struct {
	ID      string `json:"id,omitempty"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	Model   string `json:"model,omitempty"`

	ChoiceIndex  *int            `json:"choice_index,omitempty"`
	Role         types.Role      `json:"role,omitempty"`
	Content      string          `json:"content,omitempty"`
	ToolCalls    []ToolCallDelta `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`

	Usage *ChatUsage `json:"usage,omitempty"`
}

// EmbeddingRequest is the canonical embedding request.
type EmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"` // float or base64
	Dimensions     int      `json:"dimensions,omitempty"`
}

// EmbeddingData is a single embedding result.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingResponse is the canonical embedding response.
type EmbeddingResponse struct {
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model"`
	Embeddings []EmbeddingData `json:"embeddings"`
	Usage      ChatUsage       `json:"usage,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

// Float32Ptr is a convenience for building requests with literal sampling
// values.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr is a convenience for building requests with literal counts.
func IntPtr(v int) *int { return &v }

// BoolPtr is a convenience for building requests with literal flags.
func BoolPtr(v bool) *bool { return &v }
