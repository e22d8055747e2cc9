package llm

import (
	"sort"
	"strings"
	"time"

	"github.com/tensorlane/llmbridge/types"
)

// Aggregator folds an ordered, finite sequence of stream chunks into one
// finalized ChatResponse. It is an explicit accumulator keyed by
// (choice index, tool-call index); providers may interleave indices across
// network fragmentation, so ordering alone is not relied on within a call.
//
// One Aggregator serves exactly one streaming call: feed every chunk to Add
// in arrival order, then call Finalize once the sequence ends. The zero
// number of chunks finalizes to nil; the caller decides how to surface the
// absence.
type Aggregator struct {
	started bool
	id      string
	object  string
	created int64
	model   string

	choices map[int]*choiceAccumulator
	usage   *ChatUsage
}

type choiceAccumulator struct {
	role         types.Role
	content      strings.Builder
	hasContent   bool
	finishReason string
	calls        map[int]*toolCallAccumulator
}

type toolCallAccumulator struct {
	id        string
	typ       string
	name      string
	arguments strings.Builder
}

// NewAggregator creates an empty accumulator for one streaming call.
func NewAggregator() *Aggregator {
	return &Aggregator{choices: make(map[int]*choiceAccumulator)}
}

// Add folds one chunk into the accumulator.
//
// Top-level metadata (id, object tag, creation time, model) is taken from
// the first chunk overall. A chunk without a choice index carries only
// aggregate usage and is retained separately. Within a choice, content
// fragments concatenate in arrival order; tool-call identity fields are
// first-wins per call index while argument fragments concatenate; the
// finish reason is whatever the group's last chunk said.
func (a *Aggregator) Add(chunk StreamChunk) {
	if !a.started {
		a.started = true
		a.id = chunk.ID
		a.object = chunk.Object
		a.created = chunk.Created
		a.model = chunk.Model
	}

	if chunk.Usage != nil {
		if a.usage == nil {
			a.usage = &ChatUsage{}
		}
		// Merged field-wise: some providers split usage across the opening
		// and closing events of the stream.
		if chunk.Usage.PromptTokens != 0 {
			a.usage.PromptTokens = chunk.Usage.PromptTokens
		}
		if chunk.Usage.CompletionTokens != 0 {
			a.usage.CompletionTokens = chunk.Usage.CompletionTokens
		}
		if chunk.Usage.TotalTokens != 0 {
			a.usage.TotalTokens = chunk.Usage.TotalTokens
		}
	}
	if chunk.ChoiceIndex == nil {
		return
	}

	acc := a.choices[*chunk.ChoiceIndex]
	if acc == nil {
		acc = &choiceAccumulator{calls: make(map[int]*toolCallAccumulator)}
		a.choices[*chunk.ChoiceIndex] = acc
	}

	if chunk.Role != "" {
		acc.role = chunk.Role
	}
	if chunk.Content != "" {
		acc.content.WriteString(chunk.Content)
		acc.hasContent = true
	}
	if chunk.FinishReason != "" {
		acc.finishReason = chunk.FinishReason
	}

	for _, tc := range chunk.ToolCalls {
		call := acc.calls[tc.Index]
		if call == nil {
			call = &toolCallAccumulator{}
			acc.calls[tc.Index] = call
		}
		if call.id == "" {
			call.id = tc.ID
		}
		if call.typ == "" {
			call.typ = tc.Type
		}
		if call.name == "" {
			call.name = tc.Name
		}
		call.arguments.WriteString(tc.Arguments)
	}
}

// Finalize produces the single canonical response for the consumed
// sequence, or nil when no chunk ever arrived. The accumulator must not be
// reused afterwards.
func (a *Aggregator) Finalize() *ChatResponse {
	if !a.started {
		return nil
	}

	resp := &ChatResponse{
		ID:      a.id,
		Model:   a.model,
		Choices: make([]ChatChoice, 0, len(a.choices)),
	}
	if a.created != 0 {
		resp.CreatedAt = time.Unix(a.created, 0)
	}
	if a.usage != nil {
		resp.Usage = *a.usage
		if resp.Usage.TotalTokens == 0 {
			resp.Usage.TotalTokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
		}
	}

	indices := make([]int, 0, len(a.choices))
	for idx := range a.choices {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		acc := a.choices[idx]
		role := acc.role
		if role == "" {
			role = types.RoleAssistant
		}
		msg := types.Message{Role: role}
		// A choice that produced only tool calls omits content entirely
		// rather than carrying an empty string.
		if acc.hasContent {
			msg.Content = acc.content.String()
		}

		if len(acc.calls) > 0 {
			callIndices := make([]int, 0, len(acc.calls))
			for ci := range acc.calls {
				callIndices = append(callIndices, ci)
			}
			sort.Ints(callIndices)
			msg.ToolCalls = make([]types.ToolCall, 0, len(callIndices))
			for _, ci := range callIndices {
				call := acc.calls[ci]
				msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
					ID:        call.id,
					Type:      call.typ,
					Name:      call.name,
					Arguments: call.arguments.String(),
				})
			}
		}

		resp.Choices = append(resp.Choices, ChatChoice{
			Index:        idx,
			FinishReason: acc.finishReason,
			Message:      msg,
		})
	}

	return resp
}
