package splitter

import (
	"bytes"
	"fmt"

	"github.com/clipperhouse/uax29/graphemes"
	"github.com/clipperhouse/uax29/phrases"
	"github.com/clipperhouse/uax29/sentences"
	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"

	"github.com/bububa/colbert-go/components/embedder"
)

// TokenCounter defines the interface for counting tokens in a string.
type TokenCounter = embedder.TokenCounter

type GraphemesTokenCounter struct{}

func (c GraphemesTokenCounter) Count(p []byte) int {
	return len(graphemes.SegmentAll(p))
}

// WordsTokenCounter counts UAX #29 word segments, punctuation included.
// Whitespace segments are not counted.
type WordsTokenCounter struct{}

func (c WordsTokenCounter) Count(p []byte) int {
	var n int
	for _, seg := range words.SegmentAll(p) {
		if !isSpace(seg) {
			n++
		}
	}
	return n
}

type PhrasesTokenCounter struct{}

func (c PhrasesTokenCounter) Count(p []byte) int {
	return len(phrases.SegmentAll(p))
}

type SentencesTokenCounter struct{}

func (c SentencesTokenCounter) Count(p []byte) int {
	return len(sentences.SegmentAll(p))
}

// TikTokenCounter provides accurate token counting using the tiktoken library,
// which implements the tokenization schemes used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a new TikTokenCounter using the specified encoding.
// Common encodings include:
// - "cl100k_base" (GPT-4, ChatGPT)
// - "p50k_base" (GPT-3)
// - "r50k_base" (Codex)
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact number of tokens in the text according to the
// specified tiktoken encoding.
func (ttc *TikTokenCounter) Count(p []byte) int {
	return len(ttc.tke.Encode(string(p), nil, nil))
}

func isSpace(p []byte) bool {
	return len(bytes.TrimSpace(p)) == 0
}
