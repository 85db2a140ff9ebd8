package embedder

import (
	"bytes"
	"strconv"

	"github.com/google/uuid"
)

// Embedding is a special format of data representation that can be easily utilized by machine
// learning models and algorithms. The embedding is an information dense representation of the
// semantic meaning of a piece of text. Each embedding is a vector of floating point numbers,
// such that the distance between two embeddings in the vector space is correlated with semantic similarity
// between two inputs in the original format. For example, if two texts are similar,
// then their vector representations should also be similar.
type Embedding struct {
	Object    string            `json:"object"`
	Embedding []float64         `json:"embedding"`
	Index     int               `json:"index"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Chunk represents a piece of text with associated metadata for tracking its position
// and size within the original document.
type Chunk struct {
	// Index is the position of the chunk in the split output
	Index int `json:"index"`
	// Text contains the actual content of the chunk, always source[Start:End]
	Text string `json:"text"`
	// Start is the byte offset of the chunk in the source text
	Start int `json:"start_offset"`
	// End is the exclusive end byte offset of the chunk in the source text
	End int `json:"end_offset"`
	// TokenSize represents the number of tokens in this chunk
	TokenSize int `json:"token_size"`
}

// Span returns the chunk location as a Span
func (c Chunk) Span() Span {
	return Span{Start: c.Start, End: c.End}
}

// ID returns a deterministic identifier for the chunk of the given document
func (c Chunk) ID(docID string) string {
	sb := new(bytes.Buffer)
	sb.WriteString(docID)
	sb.WriteByte('\n')
	sb.WriteString(strconv.Itoa(c.Start))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(c.End))
	return uuid.NewSHA1(uuid.NameSpaceOID, sb.Bytes()).String()
}

// Chunker defines the interface for text chunking implementations.
// Different implementations can provide various strategies for splitting text
// while maintaining context and semantic meaning.
type Chunker interface {
	// Split splits the input text into an ordered slice of Chunks
	// carrying their offsets in text.
	Split(text string) ([]Chunk, error)
}
