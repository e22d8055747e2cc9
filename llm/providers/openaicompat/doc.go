// Package openaicompat implements the chat-completions adapter variant,
// shared by every provider that speaks the OpenAI-compatible wire format.
// It is the only variant that serves the reasoning model families.
package openaicompat
