package voyageai

import (
	"context"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

const DefaultEmbedderModel = "voyage-3-lite"

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
		Options: embedder.NewOptions(embedder.ProviderVoyageAI, DefaultEmbedderModel, opts...),
	}
}

func inputType(mode embedder.Mode) InputType {
	if mode == embedder.ModeQuery {
		return QueryInput
	}
	return DocInput
}

func (p *Embedder) request(mode embedder.Mode, parts []string) *EmbeddingRequest {
	return &EmbeddingRequest{
		Input:           parts,
		Model:           p.Model(),
		InputType:       inputType(mode),
		Truncation:      p.Truncate(),
		OutputDimension: p.Dimensions(),
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
	*embedding = ret[0]
	return nil
}

func (p *Embedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	ret, tokens, err := p.CreateEmbeddings(ctx, p.request(mode, parts))
	if err != nil {
		return nil, err
	}
	if usage != nil {
		usage.InputTokens = int64(tokens)
	}
	return ret, nil
}
