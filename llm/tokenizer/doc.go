// Package tokenizer provides local token counting, used to reconstruct
// usage totals when a provider response or stream carries none. OpenAI
// family models count exactly through tiktoken; everything else falls back
// to a character-ratio estimator.
package tokenizer
