package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/components/embedder/splitter"
)

// Pipeline turns text into token-level embeddings aligned with the source
// text. It owns no model state of its own: every operation is a pure
// function of its input and the injected model, so a Pipeline is safe for
// concurrent use whenever its model is.
type Pipeline struct {
	Options
	model    embedder.Model
	validate *validator.Validate
	stats    *Stats
}

// New returns a Pipeline around model
func New(model embedder.Model, opts ...Option) (*Pipeline, error) {
	if model == nil {
		return nil, &embedder.ConfigurationError{Field: "model", Value: nil, Reason: "is required"}
	}
	ret := &Pipeline{
		Options: Options{
			layout:    embedder.ColBERTLayout,
			chunkSize: splitter.DefaultChunkSize,
		},
		model:    model,
		validate: newValidator(),
		stats:    new(Stats),
	}
	for _, opt := range opts {
		opt(&ret.Options)
	}
	if !ret.overlapSet {
		ret.chunkOverlap = splitter.DefaultOverlap(ret.chunkSize)
	}
	if ret.tokenCounter == nil {
		ret.tokenCounter = embedder.CounterFor(model)
	}
	if ret.logger == nil {
		ret.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := ret.layout.Validate(); err != nil {
		return nil, err
	}
	if err := splitter.ValidateSize(ret.chunkSize, ret.chunkOverlap); err != nil {
		return nil, err
	}
	return ret, nil
}

// Stats returns a snapshot of the pipeline counters
func (p *Pipeline) Stats() StatsSnapshot {
	return p.stats.Snapshot()
}

// EmbedWithOffsets tokenizes and embeds text and returns one record per
// model vector, each carrying the byte span of its token in text.
// Marker tokens injected by the model carry the zero span.
func (p *Pipeline) EmbedWithOffsets(ctx context.Context, text string, mode embedder.Mode) ([]embedder.Record, error) {
	c := p.begin("embed_with_offsets", slog.String("mode", mode.String()))
	if err := p.validateRequest(textRequest{Text: text}); err != nil {
		return nil, c.fail(err)
	}
	records, err := p.align(ctx, text, mode)
	if err != nil {
		return nil, c.fail(err)
	}
	c.done(0, len(records))
	return records, nil
}

// EmbedQuery embeds a search query. Records are only computed when
// withOffsets is set.
func (p *Pipeline) EmbedQuery(ctx context.Context, query string, withOffsets bool) (*QueryResult, error) {
	c := p.begin("embed_query", slog.Bool("offsets", withOffsets))
	if err := p.validateRequest(textRequest{Text: query}); err != nil {
		return nil, c.fail(err)
	}
	ret := &QueryResult{Query: query}
	if withOffsets {
		records, err := p.align(ctx, query, embedder.ModeQuery)
		if err != nil {
			return nil, c.fail(err)
		}
		ret.Records = records
		ret.Vectors = make([][]float64, 0, len(records))
		for _, r := range records {
			ret.Vectors = append(ret.Vectors, r.Embedding)
		}
	} else {
		vectors, err := p.embed(ctx, query, embedder.ModeQuery)
		if err != nil {
			return nil, c.fail(err)
		}
		ret.Vectors = vectors
	}
	c.done(0, len(ret.Vectors))
	return ret, nil
}

// EmbedDocument embeds the whole text as a single chunk [0, len(text)).
func (p *Pipeline) EmbedDocument(ctx context.Context, id string, text string) (*DocumentResult, error) {
	c := p.begin("embed_document", slog.String("id", id))
	if err := p.validateRequest(Document{ID: id, Text: text}); err != nil {
		return nil, c.fail(err)
	}
	records, err := p.align(ctx, text, embedder.ModeDocument)
	if err != nil {
		return nil, c.fail(err)
	}
	chunk := embedder.Chunk{
		Text:      text,
		End:       len(text),
		TokenSize: p.tokenCounter.Count([]byte(text)),
	}
	ret := &DocumentResult{
		ID:       id,
		Absolute: true,
		Chunks: []ChunkEmbeddings{{
			ID:      chunk.ID(id),
			Chunk:   chunk,
			Records: records,
		}},
	}
	c.done(1, len(records))
	return ret, nil
}

// EmbedDocumentChunks splits text and embeds every chunk as a standalone
// document. Record spans are relative to their chunk unless the pipeline
// was built WithAbsoluteOffsets.
func (p *Pipeline) EmbedDocumentChunks(ctx context.Context, id string, text string, chunkSize int, chunkOverlap int) (*DocumentResult, error) {
	c := p.begin("embed_document_chunks",
		slog.String("id", id),
		slog.Int("chunk_size", chunkSize),
		slog.Int("chunk_overlap", chunkOverlap),
	)
	if err := p.validateRequest(Document{ID: id, Text: text}); err != nil {
		return nil, c.fail(err)
	}
	chunks, err := splitter.Split(text, chunkSize, chunkOverlap, p.tokenCounter)
	if err != nil {
		return nil, c.fail(err)
	}
	ret := &DocumentResult{
		ID:       id,
		Absolute: p.absolute,
		Chunks:   make([]ChunkEmbeddings, 0, len(chunks)),
	}
	var vectors int
	for _, chunk := range chunks {
		records, err := p.align(ctx, chunk.Text, embedder.ModeDocument)
		if err != nil {
			return nil, c.fail(err)
		}
		if p.absolute {
			for i := range records {
				records[i].Span = records[i].Span.Shift(chunk.Start)
			}
		}
		vectors += len(records)
		ret.Chunks = append(ret.Chunks, ChunkEmbeddings{
			ID:      chunk.ID(id),
			Chunk:   chunk,
			Records: records,
		})
	}
	c.done(len(chunks), vectors)
	return ret, nil
}

// Split returns the chunk descriptors of text measured with the pipeline
// token counter. Empty text yields no chunks.
func (p *Pipeline) Split(ctx context.Context, text string, chunkSize int, chunkOverlap int) (*SplitResult, error) {
	c := p.begin("split", slog.Int("chunk_size", chunkSize), slog.Int("chunk_overlap", chunkOverlap))
	if err := ctx.Err(); err != nil {
		return nil, c.fail(embedder.InferenceError("split", err))
	}
	if err := p.validateRequest(splitRequest{Text: text}); err != nil {
		return nil, c.fail(err)
	}
	chunks, err := splitter.Split(text, chunkSize, chunkOverlap, p.tokenCounter)
	if err != nil {
		return nil, c.fail(err)
	}
	if chunks == nil {
		chunks = []embedder.Chunk{}
	}
	c.done(len(chunks), 0)
	return &SplitResult{Chunks: chunks}, nil
}

func (p *Pipeline) embed(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, embedder.InferenceError("embed", err)
	}
	vectors, err := p.model.EmbedTokens(ctx, text, mode)
	if err != nil {
		return nil, embedder.InferenceError("embed", err)
	}
	return vectors, nil
}

func (p *Pipeline) tokenize(text string, mode embedder.Mode) ([]embedder.Span, error) {
	spans, err := p.model.Tokenize(text, mode)
	if err != nil {
		return nil, embedder.InferenceError("tokenize", err)
	}
	return spans, nil
}

func (p *Pipeline) align(ctx context.Context, text string, mode embedder.Mode) ([]embedder.Record, error) {
	spans, err := p.tokenize(text, mode)
	if err != nil {
		return nil, err
	}
	vectors, err := p.embed(ctx, text, mode)
	if err != nil {
		return nil, err
	}
	return p.layout.Align(mode, spans, vectors)
}

type call struct {
	p     *Pipeline
	id    string
	op    string
	start time.Time
	attrs []any
}

func (p *Pipeline) begin(op string, attrs ...slog.Attr) *call {
	p.stats.calls.Inc()
	c := &call{
		p:     p,
		id:    xid.New().String(),
		op:    op,
		start: time.Now(),
	}
	for _, a := range attrs {
		c.attrs = append(c.attrs, a)
	}
	return c
}

func (c *call) args(extra ...any) []any {
	ret := make([]any, 0, len(c.attrs)+len(extra)+3)
	ret = append(ret,
		slog.String("op", c.op),
		slog.String("request_id", c.id),
		slog.Duration("duration", time.Since(c.start)),
	)
	ret = append(ret, c.attrs...)
	return append(ret, extra...)
}

func (c *call) done(chunks int, vectors int) {
	c.p.stats.chunks.Add(int64(chunks))
	c.p.stats.vectors.Add(int64(vectors))
	c.p.logger.Debug("pipeline", c.args(slog.Int("chunks", chunks), slog.Int("vectors", vectors))...)
}

func (c *call) fail(err error) error {
	c.p.stats.failures.Inc()
	c.p.logger.Warn("pipeline", c.args(slog.String("kind", embedder.ErrorKind(err)), slog.String("error", err.Error()))...)
	return err
}
