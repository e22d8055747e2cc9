// Package anthropic implements the Anthropic messages-API adapter variant.
//
// The wire format differs from the chat-completions shape in several ways:
// authentication uses an x-api-key header, the system prompt travels in a
// dedicated field rather than a message, message content is always a typed
// block list (text / image / tool_use / tool_result), tool results are
// wrapped in user-role messages, and streaming is a sequence of typed
// events instead of choice deltas.
package anthropic
