package embedder

// TokenCounter defines the interface for counting tokens in a string.
// This abstraction allows for different tokenization strategies (e.g., words, subwords).
type TokenCounter interface {
	// Count returns the number of tokens in the given text according to the
	// implementation's tokenization strategy.
	Count(p []byte) int
}

// TokenizerCounter counts the content tokens a Tokenizer reports for a
// document. Zero spans (special tokens) are not counted. A tokenizer error
// falls back to the byte length so that chunking stays conservative.
type TokenizerCounter struct {
	Tokenizer Tokenizer
}

func (c TokenizerCounter) Count(p []byte) int {
	spans, err := c.Tokenizer.Tokenize(string(p), ModeDocument)
	if err != nil {
		return len(p)
	}
	var n int
	for _, s := range spans {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// CounterFor returns tk itself when it knows how to count tokens and a
// TokenizerCounter otherwise.
func CounterFor(tk Tokenizer) TokenCounter {
	if c, ok := tk.(TokenCounter); ok {
		return c
	}
	return TokenizerCounter{Tokenizer: tk}
}
