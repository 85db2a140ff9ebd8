package gemini

import (
	"context"
	"fmt"

	gemini "github.com/google/generative-ai-go/genai"

	"github.com/bububa/colbert-go/components"
	"github.com/bububa/colbert-go/components/embedder"
)

const DefaultEmbedderModel = "text-embedding-004"

type Embedder struct {
	*gemini.Client

	embedder.Options
}

var _ embedder.DenseEmbedder = (*Embedder)(nil)

func (p *Embedder) SetClient(clt *gemini.Client) {
	p.Client = clt
}

func New(client *gemini.Client, opts ...embedder.Option) *Embedder {
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(embedder.ProviderGemini, DefaultEmbedderModel, opts...),
	}
}

func (p *Embedder) embeddingModel(mode embedder.Mode) *gemini.EmbeddingModel {
	model := p.EmbeddingModel(p.Model())
	if mode == embedder.ModeQuery {
		model.TaskType = gemini.TaskTypeRetrievalQuery
	} else {
		model.TaskType = gemini.TaskTypeRetrievalDocument
	}
	return model
}

func (p *Embedder) Embed(ctx context.Context, mode embedder.Mode, text string, embedding *embedder.Embedding, usage *components.Usage) error {
	resp, err := p.embeddingModel(mode).EmbedContent(ctx, gemini.Text(text))
	if err != nil {
		return err
	}
	if resp.Embedding == nil {
		return nil
	}
	embedding.Object = text
	embedding.Embedding = embedder.Float64s(resp.Embedding.Values)
	embedding.Index = 0
	return nil
}

func (p *Embedder) BatchEmbed(ctx context.Context, mode embedder.Mode, parts []string, usage *components.Usage) ([]embedder.Embedding, error) {
	model := p.embeddingModel(mode)
	batch := model.NewBatch()
	for _, part := range parts {
		batch.AddContent(gemini.Text(part))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(parts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(parts))
	}
	ret := make([]embedder.Embedding, 0, len(resp.Embeddings))
	for idx, v := range resp.Embeddings {
		ret = append(ret, embedder.Embedding{
			Object:    parts[idx],
			Embedding: embedder.Float64s(v.Values),
			Index:     idx,
		})
	}
	return ret, nil
}
