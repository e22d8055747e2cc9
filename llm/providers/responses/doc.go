// Package responses implements the responses-API adapter variant, whose
// output is an ordered list of typed items (message items, function-call
// items) instead of a flat choice list. Streaming deltas still arrive in
// the chat-completions incremental shape. This variant cannot serve the
// reasoning model families; the normalizer rejects that combination before
// any payload is built.
package responses
