package types

import "fmt"

// Role represents the role of a message participant.
//
// The canonical set is system/user/assistant/tool; individual adapters may
// accept only a subset (Anthropic has no tool role on the wire, for example).
// Role validation against an adapter's allowed set happens at normalization
// time, before any payload is built.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType identifies a content part variant.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartInputAudio PartType = "input_audio"
	PartFile       PartType = "file"
)

// AudioData carries an input-audio payload (base64 data plus format).
type AudioData struct {
	Data   string `json:"data"`
	Format string `json:"format"` // "wav" or "mp3"
}

// FileData carries a file attachment, either by provider file ID or inline.
type FileData struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"` // base64 encoded
}

// ContentPart is one typed element of a message's content list.
// Exactly one of the variant fields is populated, selected by Type.
type ContentPart struct {
	Type     PartType   `json:"type"`
	Text     string     `json:"text,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	Audio    *AudioData `json:"audio,omitempty"`
	File     *FileData  `json:"file,omitempty"`
}

// TextPart builds a plain-text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart builds an image-reference content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImage, ImageURL: url}
}

// AudioPart builds an input-audio content part.
func AudioPart(data, format string) ContentPart {
	return ContentPart{Type: PartInputAudio, Audio: &AudioData{Data: data, Format: format}}
}

// FilePart builds a file-attachment content part.
func FilePart(file FileData) ContentPart {
	return ContentPart{Type: PartFile, File: &file}
}

// ToolCall represents a tool invocation request from the model.
// Arguments is the serialized argument object exactly as the provider sent
// it; during streaming it is assembled by concatenating partial fragments.
type ToolCall struct {
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"` // "function" unless a provider says otherwise
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message represents one conversation message.
//
// Content holds plain text; Parts holds the typed content list and takes
// precedence when non-empty. ContentParts returns the canonical form.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content,omitempty"`
	Parts      []ContentPart     `json:"parts,omitempty"`
	Name       string            `json:"name,omitempty"`
	ToolCalls  []ToolCall        `json:"tool_calls,omitempty"`  // assistant role only
	ToolCallID string            `json:"tool_call_id,omitempty"` // tool role only
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a new plain-text message with the given role.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewToolMessage creates a new tool result message.
func NewToolMessage(toolCallID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		Name:       name,
		ToolCallID: toolCallID,
	}
}

// WithParts replaces the message content with a typed part list.
func (m Message) WithParts(parts ...ContentPart) Message {
	m.Parts = parts
	return m
}

// WithToolCalls adds tool calls to the message.
func (m Message) WithToolCalls(calls []ToolCall) Message {
	m.ToolCalls = calls
	return m
}

// ContentParts returns the canonical ordered part list for the message.
// A plain-text message yields a single text part; once any non-text part is
// present the message is already in list form and is returned as-is, with a
// leading text part prepended when bare Content was also set.
func (m Message) ContentParts() []ContentPart {
	if len(m.Parts) == 0 {
		if m.Content == "" {
			return nil
		}
		return []ContentPart{TextPart(m.Content)}
	}
	if m.Content != "" {
		out := make([]ContentPart, 0, len(m.Parts)+1)
		out = append(out, TextPart(m.Content))
		return append(out, m.Parts...)
	}
	return m.Parts
}

// Text returns the concatenation of all text parts, which for plain messages
// is just Content.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.ContentParts() {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// Validate checks the message against a set of allowed roles and the
// role-specific field invariants.
func (m Message) Validate(allowed []Role) error {
	ok := false
	for _, r := range allowed {
		if m.Role == r {
			ok = true
			break
		}
	}
	if !ok {
		return NewError(ErrValidation, fmt.Sprintf("role %q is not accepted by this provider", m.Role))
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return NewError(ErrValidation, fmt.Sprintf("tool_calls set on %s message; only assistant messages may carry tool calls", m.Role))
	}
	if m.ToolCallID != "" && m.Role != RoleTool {
		return NewError(ErrValidation, fmt.Sprintf("tool_call_id set on %s message; only tool messages may carry it", m.Role))
	}
	return nil
}
