package huggingface

import (
	"context"
	"fmt"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

const (
	DefaultEmbedderModel = "sentence-transformers/all-MiniLM-L6-v2"
)

// Embedder produces one pooled vector per text
type Embedder struct {
	*Client

	embedder.Options
}

var _ embedder.DenseEmbedder = (*Embedder)(nil)

func (p *Embedder) SetClient(clt *Client) {
	p.Client = clt
}

func New(client *Client, opts ...embedder.Option) *Embedder {
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(embedder.ProviderHuggingFace, DefaultEmbedderModel, opts...),
	}
}

func (p *Embedder) request(parts []string) *EmbeddingRequest {
	isTrue := true
	req := &EmbeddingRequest{
		Inputs: parts,
		Options: options{
			WaitForModel: &isTrue,
		},
		Model: p.Model(),
	}
	if p.Truncate() {
		req.Parameters = &Parameters{Truncate: &isTrue}
	}
	return req
}

// Embed embeds text. The feature extraction API has no input type, the mode is not sent.
func (p *Embedder) Embed(ctx context.Context, mode embedder.Mode, text string, embedding *embedder.Embedding, usage *components.Usage) error {
	resp, err := p.CreateEmbeddings(ctx, p.request([]string{text}))
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return nil
	}
	embedding.Object = text
	embedding.Embedding = resp[0]
	embedding.Index = 0
	return nil
}

func (p *Embedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	resp, err := p.CreateEmbeddings(ctx, p.request(parts))
	if err != nil {
		return nil, err
	}
	if len(resp) != len(parts) {
		return nil, fmt.Errorf("huggingface returned %d embeddings for %d inputs", len(resp), len(parts))
	}
	ret := make([]embedder.Embedding, 0, len(resp))
	for idx, v := range resp {
		ret = append(ret, embedder.Embedding{
			Object:    parts[idx],
			Embedding: v,
			Index:     idx,
		})
	}
	return ret, nil
}
