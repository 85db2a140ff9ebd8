package cohere

import (
	"context"
	"fmt"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

const DefaultEmbedderModel = "embed-english-light-v3.0"

type Embedder struct {
	*cohereClient.Client

	embedder.Options
}

var _ embedder.DenseEmbedder = (*Embedder)(nil)

func (p *Embedder) SetClient(clt *cohereClient.Client) {
	p.Client = clt
}

func New(client *cohereClient.Client, opts ...embedder.Option) *Embedder {
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(embedder.ProviderCohere, DefaultEmbedderModel, opts...),
	}
}

func inputType(mode embedder.Mode) *cohere.EmbedInputType {
	v := cohere.EmbedInputTypeSearchDocument
	if mode == embedder.ModeQuery {
		v = cohere.EmbedInputTypeSearchQuery
	}
	return &v
}

func (p *Embedder) Embed(ctx context.Context, mode embedder.Mode, text string, embedding *embedder.Embedding, usage *components.Usage) error {
	ret, err := p.BatchEmbed(ctx, mode, []string{text}, usage)
	if err != nil {
		return err
	}
	if len(ret) == 0 {
		return nil
	}
	embedding.Object = ret[0].Object
	embedding.Embedding = ret[0].Embedding
	embedding.Index = 0
	return nil
}

func (p *Embedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	model := p.Model()
	req := cohere.EmbedRequest{
		Texts:     parts,
		Model:     &model,
		InputType: inputType(mode),
	}
	resp, err := p.Client.Embed(ctx, &req)
	if err != nil {
		return nil, err
	}
	respV := resp.GetEmbeddingsFloats()
	if respV == nil {
		return nil, fmt.Errorf("cohere returned no float embeddings")
	}
	if usage != nil && respV.Meta != nil && respV.Meta.Tokens != nil {
		if v := respV.Meta.Tokens.InputTokens; v != nil {
			usage.InputTokens = int64(*v)
		}
	}
	if len(respV.Embeddings) != len(parts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts", len(respV.Embeddings), len(parts))
	}
	ret := make([]embedder.Embedding, 0, len(respV.Embeddings))
	for idx, v := range respV.Embeddings {
		ret = append(ret, embedder.Embedding{
			Object:    parts[idx],
			Embedding: v,
			Index:     idx,
		})
	}
	return ret, nil
}
