package embedder

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/bububa/colbert-go/components"
)

// Tokenizer reports the span of every token the model will see for a text,
// in model order. Special tokens with no source text carry the zero span.
type Tokenizer interface {
	Tokenize(text string, mode Mode) ([]Span, error)
}

// TokenEmbedder returns one vector per model-internal token of text.
type TokenEmbedder interface {
	EmbedTokens(ctx context.Context, text string, mode Mode) ([][]float64, error)
}

// BatchTokenEmbedder embeds several texts with a single model invocation.
type BatchTokenEmbedder interface {
	TokenEmbedder
	BatchEmbedTokens(ctx context.Context, texts []string, mode Mode) ([][][]float64, error)
}

// Model is a late-interaction model together with the tokenizer it was trained with.
type Model interface {
	Tokenizer
	TokenEmbedder
}

// DenseEmbedder produces a single vector per text
type DenseEmbedder interface {
	Provider() Provider
	Model() string
	Embed(ctx context.Context, mode Mode, text string, embedding *Embedding, usage *components.Usage) error
	BatchEmbed(ctx context.Context, mode Mode, parts []string, usage *components.Usage) ([]Embedding, error)
}

type model struct {
	Tokenizer
	TokenEmbedder
}

var _ BatchTokenEmbedder = (*model)(nil)

// NewModel composes a tokenizer and a token embedder into a Model
func NewModel(tk Tokenizer, te TokenEmbedder) Model {
	return &model{
		Tokenizer:     tk,
		TokenEmbedder: te,
	}
}

// Count counts tokens with the composed tokenizer
func (m *model) Count(p []byte) int {
	return CounterFor(m.Tokenizer).Count(p)
}

// BatchEmbedTokens delegates to the embedder's batch call when it has one
func (m *model) BatchEmbedTokens(ctx context.Context, texts []string, mode Mode) ([][][]float64, error) {
	return BatchEmbedTokens(ctx, m.TokenEmbedder, texts, mode)
}

// BatchEmbedTokens embeds texts in one call when te supports batching and
// otherwise one text at a time, preserving input order.
func BatchEmbedTokens(ctx context.Context, te TokenEmbedder, texts []string, mode Mode) ([][][]float64, error) {
	if b, ok := te.(BatchTokenEmbedder); ok {
		ret, err := b.BatchEmbedTokens(ctx, texts, mode)
		if err != nil {
			return nil, err
		}
		if len(ret) != len(texts) {
			return nil, fmt.Errorf("batch embedder returned %d results for %d texts", len(ret), len(texts))
		}
		return ret, nil
	}
	ret := make([][][]float64, 0, len(texts))
	for _, text := range texts {
		vectors, err := te.EmbedTokens(ctx, text, mode)
		if err != nil {
			return nil, err
		}
		ret = append(ret, vectors)
	}
	return ret, nil
}

// serialized guards a model that is not safe for concurrent use
type serialized struct {
	mu    sync.Mutex
	model Model
}

var _ BatchTokenEmbedder = (*serialized)(nil)

// Serialized returns a Model that lets only one call at a time reach m.
func Serialized(m Model) Model {
	return &serialized{model: m}
}

func (s *serialized) Tokenize(text string, mode Mode) ([]Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Tokenize(text, mode)
}

func (s *serialized) Count(p []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CounterFor(s.model).Count(p)
}

func (s *serialized) EmbedTokens(ctx context.Context, text string, mode Mode) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.model.EmbedTokens(ctx, text, mode)
}

func (s *serialized) BatchEmbedTokens(ctx context.Context, texts []string, mode Mode) ([][][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BatchEmbedTokens(ctx, s.model, texts, mode)
}

// pooled exposes a dense embedder as a token embedder with a single vector per text.
type pooled struct {
	dense DenseEmbedder
}

var _ BatchTokenEmbedder = (*pooled)(nil)

// Pooled adapts a single-vector embedder for batch embedding. Every text
// yields one vector, so offset alignment with a Tokenizer fails with an
// AlignmentError rather than producing misleading spans.
func Pooled(dense DenseEmbedder) BatchTokenEmbedder {
	return &pooled{dense: dense}
}

func (p *pooled) EmbedTokens(ctx context.Context, text string, mode Mode) ([][]float64, error) {
	embedding := new(Embedding)
	if err := p.dense.Embed(ctx, mode, text, embedding, nil); err != nil {
		return nil, err
	}
	if len(embedding.Embedding) == 0 {
		return nil, fmt.Errorf("%s returned no embedding", p.dense.Provider())
	}
	return [][]float64{embedding.Embedding}, nil
}

func (p *pooled) BatchEmbedTokens(ctx context.Context, texts []string, mode Mode) ([][][]float64, error) {
	embeddings, err := p.dense.BatchEmbed(ctx, mode, texts, nil)
	if err != nil {
		return nil, err
	}
	ret := make([][][]float64, len(texts))
	for _, v := range embeddings {
		if v.Index < 0 || v.Index >= len(texts) {
			return nil, fmt.Errorf("%s returned embedding index %d for %d texts", p.dense.Provider(), v.Index, len(texts))
		}
		ret[v.Index] = [][]float64{v.Embedding}
	}
	for idx, v := range ret {
		if v == nil {
			return nil, fmt.Errorf("%s returned no embedding for text %d", p.dense.Provider(), idx)
		}
	}
	return ret, nil
}

// Base64 is base64 encoded embedding string.
type Base64 string

// Decode decodes base64 encoded string into a slice of floats.
// Voyage encodes float32 little endian values.
func (s Base64) Decode() (*Embedding, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, err
	}

	if len(decoded)%4 != 0 {
		return nil, fmt.Errorf("invalid base64 encoded string length")
	}

	floats := make([]float64, len(decoded)/4)

	for i := range floats {
		bits := binary.LittleEndian.Uint32(decoded[i*4 : (i+1)*4])
		floats[i] = float64(math.Float32frombits(bits))
	}

	return &Embedding{
		Embedding: floats,
	}, nil
}
