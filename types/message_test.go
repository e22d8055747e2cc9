package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentParts_PlainText(t *testing.T) {
	m := NewUserMessage("hello")
	parts := m.ContentParts()
	require.Len(t, parts, 1)
	assert.Equal(t, PartText, parts[0].Type)
	assert.Equal(t, "hello", parts[0].Text)
}

func TestContentParts_MixedKeepsOrder(t *testing.T) {
	m := NewUserMessage("look:").WithParts(
		ImagePart("https://example.com/cat.png"),
		TextPart("a cat"),
	)
	parts := m.ContentParts()
	require.Len(t, parts, 3)
	assert.Equal(t, PartText, parts[0].Type)
	assert.Equal(t, "look:", parts[0].Text)
	assert.Equal(t, PartImage, parts[1].Type)
	assert.Equal(t, PartText, parts[2].Type)
}

func TestContentParts_Empty(t *testing.T) {
	assert.Nil(t, Message{Role: RoleUser}.ContentParts())
}

func TestText_ConcatenatesTextParts(t *testing.T) {
	m := Message{Role: RoleUser, Parts: []ContentPart{
		TextPart("a"),
		ImagePart("https://example.com/x.png"),
		TextPart("b"),
	}}
	assert.Equal(t, "ab", m.Text())
}

func TestValidate(t *testing.T) {
	allowed := []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool}

	tests := []struct {
		name    string
		msg     Message
		allowed []Role
		wantErr bool
	}{
		{"valid user", NewUserMessage("hi"), allowed, false},
		{"role outside provider set", NewToolMessage("c1", "f", "ok"), []Role{RoleUser, RoleAssistant}, true},
		{"tool_calls on user message", NewUserMessage("hi").WithToolCalls([]ToolCall{{ID: "c1", Name: "f"}}), allowed, true},
		{"tool_call_id on assistant message", Message{Role: RoleAssistant, ToolCallID: "c1"}, allowed, true},
		{"assistant with tool_calls", NewAssistantMessage("").WithToolCalls([]ToolCall{{ID: "c1", Name: "f"}}), allowed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate(tt.allowed)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrValidation, GetErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
