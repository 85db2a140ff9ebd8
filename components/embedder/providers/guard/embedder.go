package guard

import (
	"context"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

// TokenEmbedder is a guarded token embedder
type TokenEmbedder struct {
	embedder embedder.TokenEmbedder
	guard    *Guard
}

var _ embedder.BatchTokenEmbedder = (*TokenEmbedder)(nil)

// Wrap guards every call to te with g
func Wrap(te embedder.TokenEmbedder, g *Guard) *TokenEmbedder {
	return &TokenEmbedder{embedder: te, guard: g}
}

func (e *TokenEmbedder) EmbedTokens(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	return Execute(ctx, e.guard, func() ([][]float64, error) {
		return e.embedder.EmbedTokens(ctx, text, mode)
	})
}

func (e *TokenEmbedder) BatchEmbedTokens(ctx context.Context, texts []string, mode embedder.Mode) ([][][]float64, error) {
	return Execute(ctx, e.guard, func() ([][][]float64, error) {
		return embedder.BatchEmbedTokens(ctx, e.embedder, texts, mode)
	})
}

// DenseEmbedder is a guarded dense embedder
type DenseEmbedder struct {
	embedder.DenseEmbedder
	guard *Guard
}

var _ embedder.DenseEmbedder = (*DenseEmbedder)(nil)

// WrapDense guards every call to e with g
func WrapDense(e embedder.DenseEmbedder, g *Guard) *DenseEmbedder {
	return &DenseEmbedder{DenseEmbedder: e, guard: g}
}

func (e *DenseEmbedder) Embed(ctx context.Context, mode embedder.Mode, text string, embedding *embedder.Embedding, usage *components.Usage) error {
	_, err := Execute(ctx, e.guard, func() (struct{}, error) {
		return struct{}{}, e.DenseEmbedder.Embed(ctx, mode, text, embedding, usage)
	})
	return err
}

func (e *DenseEmbedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	return Execute(ctx, e.guard, func() ([]embedder.Embedding, error) {
		return e.DenseEmbedder.BatchEmbed(ctx, mode, parts, usage)
	})
}
