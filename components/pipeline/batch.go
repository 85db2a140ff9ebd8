package pipeline

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/components/embedder/splitter"
)

// part is one model input of a batch: a whole document or one of its chunks
type part struct {
	id    string
	text  string
	start int
}

// EmbedDocuments embeds a batch of documents keyed by id with a single
// model call. Documents are visited in sorted id order. Any invalid
// document rejects the whole batch before the model is called.
func (p *Pipeline) EmbedDocuments(ctx context.Context, docs map[string]string, opts ...BatchOption) (*BatchResult, error) {
	var bo BatchOptions
	for _, opt := range opts {
		opt(&bo)
	}
	c := p.begin("embed_documents",
		slog.Int("documents", len(docs)),
		slog.Bool("chunking", bo.chunking),
		slog.Bool("spans", bo.spans),
	)
	if err := p.validateRequest(batchRequest{Documents: docs}); err != nil {
		return nil, c.fail(err)
	}
	ids := slices.Sorted(maps.Keys(docs))
	parts, err := p.batchParts(ids, docs, bo)
	if err != nil {
		return nil, c.fail(err)
	}
	ret := &BatchResult{
		Documents: make(map[string][][]float64, len(ids)),
	}
	if bo.spans {
		ret.Spans = make(map[string][]embedder.Span, len(ids))
	}
	for _, id := range ids {
		ret.Documents[id] = [][]float64{}
		if bo.spans {
			ret.Spans[id] = []embedder.Span{}
		}
	}
	if len(parts) == 0 {
		c.done(0, 0)
		return ret, nil
	}
	var spans [][]embedder.Span
	if bo.spans {
		spans = make([][]embedder.Span, 0, len(parts))
		for _, v := range parts {
			s, err := p.tokenize(v.text, embedder.ModeDocument)
			if err != nil {
				return nil, c.fail(err)
			}
			spans = append(spans, s)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, c.fail(embedder.InferenceError("batch_embed", err))
	}
	texts := make([]string, 0, len(parts))
	for _, v := range parts {
		texts = append(texts, v.text)
	}
	outputs, err := embedder.BatchEmbedTokens(ctx, p.model, texts, embedder.ModeDocument)
	if err != nil {
		return nil, c.fail(embedder.InferenceError("batch_embed", err))
	}
	var vectors int
	for i, v := range parts {
		vectors += len(outputs[i])
		ret.Documents[v.id] = append(ret.Documents[v.id], outputs[i]...)
		if !bo.spans {
			continue
		}
		records, err := p.layout.Align(embedder.ModeDocument, spans[i], outputs[i])
		if err != nil {
			return nil, c.fail(err)
		}
		for _, r := range records {
			ret.Spans[v.id] = append(ret.Spans[v.id], r.Span.Shift(v.start))
		}
	}
	c.done(len(parts), vectors)
	return ret, nil
}

func (p *Pipeline) batchParts(ids []string, docs map[string]string, bo BatchOptions) ([]part, error) {
	ret := make([]part, 0, len(ids))
	if !bo.chunking {
		for _, id := range ids {
			ret = append(ret, part{id: id, text: docs[id]})
		}
		return ret, nil
	}
	size, overlap := bo.chunkSize, bo.chunkOverlap
	if size <= 0 {
		size, overlap = p.chunkSize, p.chunkOverlap
	} else if overlap < 0 {
		overlap = splitter.DefaultOverlap(size)
	}
	if err := splitter.ValidateSize(size, overlap); err != nil {
		return nil, err
	}
	for _, id := range ids {
		chunks, err := splitter.Split(docs[id], size, overlap, p.tokenCounter)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			ret = append(ret, part{id: id, text: chunk.Text, start: chunk.Start})
		}
	}
	return ret, nil
}
