package huggingface

import (
	"context"
	"fmt"

	"github.com/bububa/colbert-go/components/embedder"
)

// DefaultTokenModel is the late interaction model served for token embeddings
const DefaultTokenModel = "answerdotai/answerai-colbert-small-v1"

// TokenEmbedder returns the unpooled token vectors of a late interaction
// model served behind a feature extraction endpoint.
type TokenEmbedder struct {
	*Client

	embedder.Options
	// models overrides the served model per mode
	models map[embedder.Mode]string
}

var _ embedder.BatchTokenEmbedder = (*TokenEmbedder)(nil)

func NewTokenEmbedder(client *Client, opts ...embedder.Option) *TokenEmbedder {
	return &TokenEmbedder{
		Client:  client,
		Options: embedder.NewOptions(embedder.ProviderHuggingFace, DefaultTokenModel, opts...),
	}
}

// WithQueryModel serves queries from a separate endpoint, e.g. one that
// prepends the query marker.
func (p *TokenEmbedder) WithQueryModel(model string) *TokenEmbedder {
	if p.models == nil {
		p.models = make(map[embedder.Mode]string)
	}
	p.models[embedder.ModeQuery] = model
	return p
}

func (p *TokenEmbedder) modelFor(mode embedder.Mode) string {
	if m, ok := p.models[mode]; ok && m != "" {
		return m
	}
	return p.Model()
}

func (p *TokenEmbedder) EmbedTokens(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	ret, err := p.BatchEmbedTokens(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	return ret[0], nil
}

func (p *TokenEmbedder) BatchEmbedTokens(ctx context.Context, texts []string, mode embedder.Mode) ([][][]float64, error) {
	isTrue := true
	req := EmbeddingRequest{
		Inputs: texts,
		Options: options{
			WaitForModel: &isTrue,
		},
		Model: p.modelFor(mode),
	}
	if p.Truncate() {
		req.Parameters = &Parameters{Truncate: &isTrue}
	}
	resp, err := p.CreateTokenEmbeddings(ctx, &req)
	if err != nil {
		return nil, err
	}
	if len(resp) != len(texts) {
		return nil, fmt.Errorf("huggingface returned %d token embeddings for %d inputs", len(resp), len(texts))
	}
	return resp, nil
}
