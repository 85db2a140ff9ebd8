package cli

import (
	"context"
	"log/slog"
	"strings"
	"time"

	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	cohereOption "github.com/cohere-ai/cohere-go/v2/option"
	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/components/embedder/providers"
	"github.com/bububa/colbert-go/components/embedder/providers/guard"
	"github.com/bububa/colbert-go/components/embedder/providers/huggingface"
	"github.com/bububa/colbert-go/components/embedder/providers/voyageai"
	"github.com/bububa/colbert-go/components/embedder/tokenizer"
	"github.com/bububa/colbert-go/internal/config"
)

// ModelFactory builds the model the commands run against
type ModelFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embedder.Model, error)

// NewModel builds the configured tokenizer and provider. Every provider
// call goes through a rate limiter and a circuit breaker.
func NewModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embedder.Model, error) {
	tk, err := tokenizer.New(cfg.Tokenizer, tokenizerSource(cfg),
		tokenizer.WithMaxLength(cfg.MaxLength),
		tokenizer.WithQueryLength(cfg.QueryLength),
	)
	if err != nil {
		return nil, err
	}
	g := guard.New(
		guard.WithName(cfg.Provider),
		guard.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		guard.WithBreaker(5, 10*time.Second, cfg.BreakerOpen),
		guard.WithTripRatio(3, cfg.BreakerRatio),
		guard.WithLogger(logger),
	)
	te, err := newTokenEmbedder(ctx, cfg, g)
	if err != nil {
		return nil, err
	}
	return embedder.NewModel(tk, te), nil
}

// tokenizerSource is the tiktoken encoding or the location of the
// tokenizer.json the embedding model was trained with.
func tokenizerSource(cfg *config.Config) string {
	if cfg.Tokenizer != tokenizer.KindWordPiece {
		return cfg.Encoding
	}
	switch {
	case cfg.TokenizerPath != "":
		return cfg.TokenizerPath
	case cfg.Model != "":
		return cfg.Model
	default:
		return huggingface.DefaultTokenModel
	}
}

func embedderOptions(cfg *config.Config) []embedder.Option {
	opts := []embedder.Option{embedder.WithTruncation(cfg.Truncate)}
	if cfg.Model != "" {
		opts = append(opts, embedder.WithModel(cfg.Model))
	}
	if cfg.Dimensions > 0 {
		opts = append(opts, embedder.WithDimensions(cfg.Dimensions))
	}
	return opts
}

func huggingFaceOptions(cfg *config.Config) []huggingface.Option {
	opts := make([]huggingface.Option, 0, 2)
	if cfg.HuggingFaceAPIKey != "" {
		opts = append(opts, huggingface.WithAPIKey(cfg.HuggingFaceAPIKey))
	}
	if cfg.HuggingFaceBaseURL != "" {
		opts = append(opts, huggingface.WithBaseURL(cfg.HuggingFaceBaseURL))
	}
	return opts
}

// newTokenEmbedder returns the token level HuggingFace endpoint or a
// single vector provider pooled to one vector per text.
func newTokenEmbedder(ctx context.Context, cfg *config.Config, g *guard.Guard) (embedder.TokenEmbedder, error) {
	if cfg.TokenLevel() {
		te := providers.FromHuggingFaceTokens(huggingface.NewClient(huggingFaceOptions(cfg)...), embedderOptions(cfg)...)
		if cfg.QueryModel != "" {
			te.WithQueryModel(cfg.QueryModel)
		}
		return guard.Wrap(te, g), nil
	}
	dense, err := newDenseEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return embedder.Pooled(guard.WrapDense(dense, g)), nil
}

func newDenseEmbedder(ctx context.Context, cfg *config.Config) (embedder.DenseEmbedder, error) {
	opts := embedderOptions(cfg)
	switch {
	case cfg.Provider == "", strings.EqualFold(cfg.Provider, embedder.ProviderHuggingFace):
		return providers.FromHuggingFace(huggingface.NewClient(huggingFaceOptions(cfg)...), opts...), nil
	case strings.EqualFold(cfg.Provider, embedder.ProviderOpenAI):
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		return providers.FromOpenAI(openai.NewClientWithConfig(clientCfg), opts...), nil
	case strings.EqualFold(cfg.Provider, embedder.ProviderVoyageAI):
		clt := voyageai.NewClient(voyageai.WithAPIKey(cfg.VoyageAPIKey))
		return providers.FromVoyageAI(clt, opts...), nil
	case strings.EqualFold(cfg.Provider, embedder.ProviderCohere):
		clientOpts := make([]cohereOption.RequestOption, 0, 2)
		clientOpts = append(clientOpts, cohereOption.WithToken(cfg.CohereAPIKey))
		if cfg.CohereBaseURL != "" {
			clientOpts = append(clientOpts, cohereOption.WithBaseURL(cfg.CohereBaseURL))
		}
		return providers.FromCohere(cohereClient.NewClient(clientOpts...), opts...), nil
	case strings.EqualFold(cfg.Provider, embedder.ProviderGemini):
		clt, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		return providers.FromGemini(clt, opts...), nil
	default:
		return nil, &embedder.ConfigurationError{Field: "provider", Value: cfg.Provider, Reason: "unknown provider"}
	}
}
