package pipeline

import (
	"log/slog"

	"github.com/bububa/colbert-go/components/embedder"
)

// Options holds the Pipeline configuration
type Options struct {
	layout       embedder.Layout
	tokenCounter embedder.TokenCounter
	chunkSize    int
	chunkOverlap int
	overlapSet   bool
	absolute     bool
	logger       *slog.Logger
}

// Option is a function type for configuring Pipeline instances.
// This follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

// WithLayout sets the special-token layout of the model, ColBERTLayout by default
func WithLayout(layout embedder.Layout) Option {
	return func(o *Options) {
		o.layout = layout
	}
}

// WithTokenCounter measures chunk sizes, the model tokenizer by default
func WithTokenCounter(counter embedder.TokenCounter) Option {
	return func(o *Options) {
		o.tokenCounter = counter
	}
}

// WithChunkSize sets the default chunk size used by batch chunking
func WithChunkSize(size int) Option {
	return func(o *Options) {
		o.chunkSize = size
	}
}

// WithChunkOverlap sets the default chunk overlap used by batch chunking
func WithChunkOverlap(overlap int) Option {
	return func(o *Options) {
		o.chunkOverlap = overlap
		o.overlapSet = true
	}
}

// WithAbsoluteOffsets translates chunk token spans into document offsets
func WithAbsoluteOffsets(absolute bool) Option {
	return func(o *Options) {
		o.absolute = absolute
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func (o Options) Layout() embedder.Layout {
	return o.layout
}

func (o Options) ChunkSize() int {
	return o.chunkSize
}

func (o Options) ChunkOverlap() int {
	return o.chunkOverlap
}

func (o Options) AbsoluteOffsets() bool {
	return o.absolute
}

// BatchOptions configures a single EmbedDocuments call
type BatchOptions struct {
	chunking     bool
	chunkSize    int
	chunkOverlap int
	spans        bool
}

type BatchOption func(*BatchOptions)

// BatchWithChunking splits every document before embedding. A non positive
// size falls back to the pipeline chunk size and overlap, a negative
// overlap to DefaultOverlap of size.
func BatchWithChunking(size int, overlap int) BatchOption {
	return func(o *BatchOptions) {
		o.chunking = true
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// BatchWithSpans also returns the document span of every vector
func BatchWithSpans() BatchOption {
	return func(o *BatchOptions) {
		o.spans = true
	}
}
