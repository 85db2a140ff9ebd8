package tokenizer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	hftokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/bububa/colbert-go/components/embedder"
)

// TokenizerFile is the tokenizer definition a HuggingFace model ships with
const TokenizerFile = hftokenizer.TokenizerName

// WordPiece runs the tokenizer.json of a HuggingFace model, BERT WordPiece
// for ColBERT checkpoints, and reports the byte span of every content token.
// Special tokens, truncation and padding come from the template; the ones
// configured in tokenizer.json are not applied.
type WordPiece struct {
	Options
	mu sync.Mutex
	tk *hftokenizer.Tokenizer
}

var (
	_ embedder.Tokenizer    = (*WordPiece)(nil)
	_ embedder.TokenCounter = (*WordPiece)(nil)
)

// NewWordPiece wraps a loaded HuggingFace tokenizer
func NewWordPiece(tk *hftokenizer.Tokenizer, opts ...Option) (*WordPiece, error) {
	if tk == nil {
		return nil, &embedder.ConfigurationError{Field: "tokenizer", Reason: "is required"}
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	tk.WithTruncation(nil)
	tk.WithPadding(nil)
	return &WordPiece{Options: o, tk: tk}, nil
}

// LoadWordPiece reads a tokenizer.json definition from r
func LoadWordPiece(r io.Reader, opts ...Option) (*WordPiece, error) {
	tk, err := pretrained.FromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return NewWordPiece(tk, opts...)
}

// OpenWordPiece loads the tokenizer of a model. source is a tokenizer.json
// file, a directory holding one, or a HuggingFace model name whose
// tokenizer.json is downloaded once into the local tokenizer cache.
func OpenWordPiece(source string, opts ...Option) (*WordPiece, error) {
	if source == "" {
		return nil, &embedder.ConfigurationError{Field: "tokenizer_path", Value: source, Reason: "is required"}
	}
	path := source
	if fi, err := os.Stat(source); err != nil || fi.IsDir() {
		path, err = hftokenizer.CachedPath(source, TokenizerFile)
		if err != nil {
			return nil, &embedder.ConfigurationError{Field: "tokenizer_path", Value: source, Reason: err.Error()}
		}
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return NewWordPiece(tk, opts...)
}

func (w *WordPiece) Tokenize(text string, mode embedder.Mode) ([]embedder.Span, error) {
	if !utf8.ValidString(text) {
		return nil, &embedder.ValidationError{Field: "text", Reason: "is not valid UTF-8"}
	}
	spans, err := w.spans(text)
	if err != nil {
		return nil, err
	}
	return w.templates.For(mode).Apply(spans), nil
}

// Count returns the number of content tokens in p, or len(p) when p cannot
// be tokenized.
func (w *WordPiece) Count(p []byte) int {
	spans, err := w.spans(string(p))
	if err != nil {
		return len(p)
	}
	return len(spans)
}

func (w *WordPiece) spans(text string) ([]embedder.Span, error) {
	if text == "" {
		return nil, nil
	}
	w.mu.Lock()
	en, err := w.tk.EncodeSingle(text, false)
	w.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("wordpiece: %w", err)
	}
	ret := make([]embedder.Span, 0, len(en.Offsets))
	for _, o := range en.Offsets {
		if len(o) != 2 {
			return nil, fmt.Errorf("wordpiece: malformed offsets %v", o)
		}
		s := embedder.Span{Start: o[0], End: o[1]}
		if !s.Within(len(text)) {
			return nil, fmt.Errorf("wordpiece: token span %v outside text of %d bytes", s, len(text))
		}
		ret = append(ret, s)
	}
	return ret, nil
}
