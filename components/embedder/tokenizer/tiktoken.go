package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/bububa/colbert-go/components/embedder"
)

// Tiktoken tokenizes text with a BPE encoding and reports the byte span of
// every token. A token holding part of a multi-byte character gets the
// bytes it decodes to, so spans always add up to the whole text.
type Tiktoken struct {
	Options
	encoding string
	tke      *tiktoken.Tiktoken
}

var (
	_ embedder.Tokenizer    = (*Tiktoken)(nil)
	_ embedder.TokenCounter = (*Tiktoken)(nil)
)

// NewTiktoken creates a tokenizer using the specified encoding, such as
// "cl100k_base" or "p50k_base".
func NewTiktoken(encoding string, opts ...Option) (*Tiktoken, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &Tiktoken{
		Options:  o,
		encoding: encoding,
		tke:      tke,
	}, nil
}

func (t *Tiktoken) Encoding() string {
	return t.encoding
}

func (t *Tiktoken) Tokenize(text string, mode embedder.Mode) ([]embedder.Span, error) {
	if !utf8.ValidString(text) {
		return nil, &embedder.ValidationError{Field: "text", Reason: "is not valid UTF-8"}
	}
	ids := t.tke.EncodeOrdinary(text)
	spans := make([]embedder.Span, 0, len(ids))
	var pos int
	for _, id := range ids {
		n := len(t.tke.Decode([]int{id}))
		spans = append(spans, embedder.Span{Start: pos, End: pos + n})
		pos += n
	}
	if pos != len(text) {
		return nil, fmt.Errorf("tiktoken %s: token spans cover %d of %d bytes", t.encoding, pos, len(text))
	}
	return t.templates.For(mode).Apply(spans), nil
}

// Count returns the exact number of content tokens in p
func (t *Tiktoken) Count(p []byte) int {
	return len(t.tke.EncodeOrdinary(string(p)))
}
