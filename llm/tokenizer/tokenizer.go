package tokenizer

import "sync"

// Counter counts tokens for one model family.
type Counter interface {
	// CountTokens returns the token count of a piece of text.
	CountTokens(text string) (int, error)

	// CountMessages returns the total token count of a conversation,
	// including per-message role and separator overhead.
	CountMessages(messages []Message) (int, error)

	// Name identifies the counter implementation.
	Name() string
}

// Message is a lightweight role/content pair. The package takes its own
// shape rather than the canonical message type to stay dependency-free.
type Message struct {
	Role    string
	Content string
}

var (
	countersMu sync.RWMutex
	counters   = make(map[string]Counter)
)

// Register binds a counter to a model name. ForModel also prefix-matches,
// so registering "gpt-4o" covers "gpt-4o-mini" unless a closer entry exists.
func Register(model string, c Counter) {
	countersMu.Lock()
	defer countersMu.Unlock()
	counters[model] = c
}

// ForModel returns the counter for a model, preferring an exact registration,
// then a prefix match, then the generic estimator. It never returns nil.
func ForModel(model string) Counter {
	countersMu.RLock()
	defer countersMu.RUnlock()

	if c, ok := counters[model]; ok {
		return c
	}
	for prefix, c := range counters {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return c
		}
	}
	if enc, ok := encodingForModel(model); ok {
		return newTiktokenCounter(enc)
	}
	return NewEstimator()
}
