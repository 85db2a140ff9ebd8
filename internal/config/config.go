// Package config loads the colbert command configuration from the
// environment, an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/components/embedder/splitter"
	"github.com/bububa/colbert-go/components/embedder/tokenizer"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Config struct {
	Provider   string `env:"COLBERT_PROVIDER" envDefault:"huggingface" yaml:"provider"`
	Model      string `env:"COLBERT_MODEL" yaml:"model"`
	QueryModel string `env:"COLBERT_QUERY_MODEL" yaml:"query_model"`
	Dimensions int    `env:"COLBERT_DIMENSIONS" yaml:"dimensions"`
	Truncate   bool   `env:"COLBERT_TRUNCATE" envDefault:"true" yaml:"truncate"`
	Pooled     bool   `env:"COLBERT_POOLED" yaml:"pooled"`

	HuggingFaceAPIKey  string `env:"HUGGING_FACE_API_KEY" yaml:"huggingface_api_key"`
	HuggingFaceBaseURL string `env:"HUGGING_FACE_API_BASE_URL" yaml:"huggingface_base_url"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	OpenAIBaseURL      string `env:"OPENAI_API_BASE_URL" yaml:"openai_base_url"`
	VoyageAPIKey       string `env:"VOYAGE_API_KEY" yaml:"voyage_api_key"`
	CohereAPIKey       string `env:"COHERE_API_KEY" yaml:"cohere_api_key"`
	CohereBaseURL      string `env:"COHERE_API_BASE_URL" yaml:"cohere_base_url"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY" yaml:"gemini_api_key"`

	// Tokenizer defaults to wordpiece for token level HuggingFace models and
	// tiktoken otherwise.
	Tokenizer string `env:"COLBERT_TOKENIZER" yaml:"tokenizer"`
	// TokenizerPath is the tokenizer.json, its directory or the model name a
	// wordpiece tokenizer is loaded from, the embedding model by default.
	TokenizerPath string `env:"COLBERT_TOKENIZER_PATH" yaml:"tokenizer_path"`
	Encoding      string `env:"COLBERT_ENCODING" envDefault:"cl100k_base" yaml:"encoding"`
	Layout        string `env:"COLBERT_LAYOUT" envDefault:"colbert" yaml:"layout"`
	// QueryLength pads queries with mask tokens. Only set it when the
	// endpoint pads query vectors the same way.
	QueryLength int `env:"COLBERT_QUERY_LENGTH" envDefault:"0" yaml:"query_length"`
	MaxLength   int `env:"COLBERT_MAX_LENGTH" envDefault:"512" yaml:"max_length"`

	ChunkSize int `env:"COLBERT_CHUNK_SIZE" envDefault:"256" yaml:"chunk_size"`
	// ChunkOverlap is derived from ChunkSize when negative
	ChunkOverlap int `env:"COLBERT_CHUNK_OVERLAP" envDefault:"-1" yaml:"chunk_overlap"`

	RateLimit    float64       `env:"COLBERT_RATE_LIMIT" yaml:"rate_limit"`
	RateBurst    int           `env:"COLBERT_RATE_BURST" envDefault:"1" yaml:"rate_burst"`
	BreakerRatio float64       `env:"COLBERT_BREAKER_RATIO" envDefault:"0.6" yaml:"breaker_ratio"`
	BreakerOpen  time.Duration `env:"COLBERT_BREAKER_OPEN" envDefault:"60s" yaml:"breaker_open"`
	Timeout      time.Duration `env:"COLBERT_TIMEOUT" envDefault:"60s" yaml:"timeout"`

	Format    string `env:"COLBERT_FORMAT" envDefault:"json" yaml:"format"`
	LogFormat string `env:"COLBERT_LOG_FORMAT" envDefault:"text" yaml:"log_format"`
	Verbose   bool   `env:"COLBERT_VERBOSE" yaml:"verbose"`
}

// Load reads .env when present, parses the environment and overlays the
// YAML file at path when path is not empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(bs, cfg); err != nil {
			return nil, err
		}
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting as a *embedder.ConfigurationError
func (c *Config) Validate() error {
	if !c.knownProvider() {
		return &embedder.ConfigurationError{Field: "provider", Value: c.Provider, Reason: "is not a known provider"}
	}
	switch c.Tokenizer {
	case tokenizer.KindWords, tokenizer.KindTiktoken, tokenizer.KindWordPiece:
	default:
		return &embedder.ConfigurationError{Field: "tokenizer", Value: c.Tokenizer, Reason: "is not a known tokenizer"}
	}
	if _, err := embedder.LayoutByName(c.Layout); err != nil {
		return err
	}
	if c.ChunkSize <= 0 {
		return &embedder.ConfigurationError{Field: "chunk_size", Value: c.ChunkSize, Reason: "must be greater than 0"}
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return &embedder.ConfigurationError{Field: "chunk_overlap", Value: c.ChunkOverlap, Reason: "must be in [0, chunk_size)"}
	}
	if c.QueryLength < 0 {
		return &embedder.ConfigurationError{Field: "query_length", Value: c.QueryLength, Reason: "must not be negative"}
	}
	if c.MaxLength < 0 {
		return &embedder.ConfigurationError{Field: "max_length", Value: c.MaxLength, Reason: "must not be negative"}
	}
	if c.RateLimit < 0 {
		return &embedder.ConfigurationError{Field: "rate_limit", Value: c.RateLimit, Reason: "must not be negative"}
	}
	if c.BreakerRatio <= 0 || c.BreakerRatio > 1 {
		return &embedder.ConfigurationError{Field: "breaker_ratio", Value: c.BreakerRatio, Reason: "must be in (0, 1]"}
	}
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return &embedder.ConfigurationError{Field: "format", Value: c.Format, Reason: "must be json or yaml"}
	}
	return nil
}

// TokenLevel reports whether the provider returns one vector per token
func (c *Config) TokenLevel() bool {
	return !c.Pooled && (c.Provider == "" || strings.EqualFold(c.Provider, embedder.ProviderHuggingFace))
}

// applyDefaults fills the settings derived from other settings
func (c *Config) applyDefaults() {
	if c.Tokenizer == "" {
		if c.TokenLevel() {
			c.Tokenizer = tokenizer.KindWordPiece
		} else {
			c.Tokenizer = tokenizer.KindTiktoken
		}
	}
	c.Tokenizer = strings.ToLower(c.Tokenizer)
	if c.ChunkOverlap < 0 && c.ChunkSize > 0 {
		c.ChunkOverlap = splitter.DefaultOverlap(c.ChunkSize)
	}
}

func (c *Config) knownProvider() bool {
	for _, p := range embedder.Providers {
		if strings.EqualFold(p, c.Provider) {
			return true
		}
	}
	return false
}
