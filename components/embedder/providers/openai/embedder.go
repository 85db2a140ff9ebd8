package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

const DefaultEmbedderModel = string(openai.SmallEmbedding3)

// Embedder embeds text with the OpenAI embeddings API. OpenAI models have
// no query or document input type, both modes send the same request.
type Embedder struct {
	*openai.Client

	embedder.Options
}

var _ embedder.DenseEmbedder = (*Embedder)(nil)

func (p *Embedder) SetClient(clt *openai.Client) {
	p.Client = clt
}

func New(client *openai.Client, opts ...embedder.Option) *Embedder {
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(embedder.ProviderOpenAI, DefaultEmbedderModel, opts...),
	}
}

func (p *Embedder) Embed(ctx context.Context, mode embedder.Mode, text string, embedding *embedder.Embedding, usage *components.Usage) error {
	ret, err := p.BatchEmbed(ctx, mode, []string{text}, usage)
	if err != nil {
		return err
	}
	if len(ret) == 0 {
		return nil
	}
	embedding.Object = text
	embedding.Embedding = ret[0].Embedding
	embedding.Index = 0
	return nil
}

func (p *Embedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	req := openai.EmbeddingRequestStrings{
		Input:          parts,
		Model:          openai.EmbeddingModel(p.Model()),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     p.Dimensions(),
	}
	resp, err := p.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if usage != nil {
		usage.InputTokens = int64(resp.Usage.PromptTokens)
	}
	ret := make([]embedder.Embedding, 0, len(resp.Data))
	for _, v := range resp.Data {
		object := v.Object
		if v.Index >= 0 && v.Index < len(parts) {
			object = parts[v.Index]
		}
		ret = append(ret, embedder.Embedding{
			Object:    object,
			Embedding: embedder.Float64s(v.Embedding),
			Index:     v.Index,
		})
	}
	return ret, nil
}
