package tokenizer

import (
	"bytes"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/words"

	"github.com/bububa/colbert-go/components/embedder"
)

// Words tokenizes text into UAX #29 words. Whitespace is not a token,
// punctuation is.
type Words struct {
	Options
}

var (
	_ embedder.Tokenizer    = (*Words)(nil)
	_ embedder.TokenCounter = (*Words)(nil)
)

func NewWords(opts ...Option) (*Words, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Words{Options: o}, nil
}

func (w *Words) Tokenize(text string, mode embedder.Mode) ([]embedder.Span, error) {
	if !utf8.ValidString(text) {
		return nil, &embedder.ValidationError{Field: "text", Reason: "is not valid UTF-8"}
	}
	return w.templates.For(mode).Apply(wordSpans([]byte(text))), nil
}

// Count returns the number of content tokens of p
func (w *Words) Count(p []byte) int {
	return len(wordSpans(p))
}

func wordSpans(p []byte) []embedder.Span {
	var (
		ret []embedder.Span
		pos int
	)
	for _, seg := range words.SegmentAll(p) {
		start := pos
		pos += len(seg)
		if len(bytes.TrimSpace(seg)) == 0 {
			continue
		}
		ret = append(ret, embedder.Span{Start: start, End: pos})
	}
	return ret
}
