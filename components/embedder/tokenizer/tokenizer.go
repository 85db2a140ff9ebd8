package tokenizer

import "github.com/bububa/colbert-go/components/embedder"

type Kind = string

const (
	KindWords     Kind = "words"
	KindTiktoken  Kind = "tiktoken"
	KindWordPiece Kind = "wordpiece"
)

// DefaultEncoding is the tiktoken encoding used when none is configured
const DefaultEncoding = "cl100k_base"

// New creates a tokenizer by kind. source is the tiktoken encoding, or the
// tokenizer.json location of a WordPiece model (see OpenWordPiece).
func New(kind Kind, source string, opts ...Option) (embedder.Tokenizer, error) {
	switch kind {
	case KindWords, "":
		return NewWords(opts...)
	case KindTiktoken:
		if source == "" {
			source = DefaultEncoding
		}
		return NewTiktoken(source, opts...)
	case KindWordPiece:
		return OpenWordPiece(source, opts...)
	default:
		return nil, &embedder.ConfigurationError{Field: "tokenizer", Value: kind, Reason: "is not a known tokenizer"}
	}
}
