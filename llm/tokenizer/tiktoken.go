package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// modelEncodings maps OpenAI-family model prefixes to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"o1":                     "o200k_base",
	"o3":                     "o200k_base",
	"o4-mini":                "o200k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-ada-002": "cl100k_base",
}

// encodingForModel resolves a model name to its tiktoken encoding by exact
// or prefix match.
func encodingForModel(model string) (string, bool) {
	if enc, ok := modelEncodings[model]; ok {
		return enc, true
	}
	for prefix, enc := range modelEncodings {
		if strings.HasPrefix(model, prefix) {
			return enc, true
		}
	}
	return "", false
}

// tiktokenCounter counts exactly through a tiktoken encoding. The encoding
// is loaded on first use since loading may download vocabulary data.
type tiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

func newTiktokenCounter(encoding string) *tiktokenCounter {
	return &tiktokenCounter{encoding: encoding}
}

func (t *tiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *tiktokenCounter) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *tiktokenCounter) CountMessages(messages []Message) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	total := 0
	for _, msg := range messages {
		// Per-message overhead: <|start|>role\n content<|end|>\n
		total += 4
		total += len(t.enc.Encode(msg.Role, nil, nil))
		total += len(t.enc.Encode(msg.Content, nil, nil))
	}
	total += 3 // conversation-end overhead
	return total, nil
}

func (t *tiktokenCounter) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
