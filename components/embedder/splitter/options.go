package splitter

import (
	"github.com/bububa/colbert-go/components/embedder"
)

const (
	// DefaultChunkSize is the chunk size in tokens used when none is configured
	DefaultChunkSize = 256
	maxDefaultOverlap = 64
)

// DefaultOverlap returns min(size/4, size/2, 64), the overlap used with a
// chunk size when no overlap is configured.
func DefaultOverlap(size int) int {
	return min(size/4, size/2, maxDefaultOverlap)
}

type Options struct {
	chunkSize    int
	overlap      int
	overlapSet   bool
	tokenCounter TokenCounter
}

// Option is a function type for configuring chunker Options.
// This follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

func WithChunkSize(size int) Option {
	return func(o *Options) {
		o.chunkSize = size
	}
}

func WithOverlap(overlap int) Option {
	return func(o *Options) {
		o.overlap = overlap
		o.overlapSet = true
	}
}

func WithTokenCounter(counter TokenCounter) Option {
	return func(o *Options) {
		o.tokenCounter = counter
	}
}

func (o Options) ChunkSize() int {
	return o.chunkSize
}

func (o Options) Overlap() int {
	return o.overlap
}

func (o Options) TokenCounter() TokenCounter {
	return o.tokenCounter
}

// Validate checks chunk size and overlap
func (o Options) Validate() error {
	return ValidateSize(o.chunkSize, o.overlap)
}

// ValidateSize rejects a non positive chunk size and an overlap outside [0, size)
func ValidateSize(size int, overlap int) error {
	if size <= 0 {
		return &embedder.ConfigurationError{Field: "chunk_size", Value: size, Reason: "must be greater than 0"}
	}
	if overlap < 0 {
		return &embedder.ConfigurationError{Field: "chunk_overlap", Value: overlap, Reason: "must not be negative"}
	}
	if overlap >= size {
		return &embedder.ConfigurationError{Field: "chunk_overlap", Value: overlap, Reason: "must be less than chunk_size"}
	}
	return nil
}

func (o *Options) count(p []byte) int {
	return o.tokenCounter.Count(p)
}
