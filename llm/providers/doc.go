// Package providers holds the wire shapes and conversion helpers shared by
// the adapter variants. The variants form a closed set selected from
// configuration: chat-completions (openaicompat), the responses API mode
// (responses), and the Anthropic messages API (anthropic).
package providers
