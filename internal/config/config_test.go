package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/colbert-go/components/embedder"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "huggingface", cfg.Provider)
	assert.Equal(t, "wordpiece", cfg.Tokenizer)
	assert.Equal(t, "cl100k_base", cfg.Encoding)
	assert.Equal(t, "colbert", cfg.Layout)
	assert.Equal(t, 256, cfg.ChunkSize)
	assert.Equal(t, 64, cfg.ChunkOverlap)
	assert.Equal(t, 0, cfg.QueryLength)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.Truncate)
	assert.False(t, cfg.Pooled)
	assert.False(t, cfg.Verbose)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("COLBERT_PROVIDER", "OpenAI")
	t.Setenv("COLBERT_CHUNK_SIZE", "128")
	t.Setenv("COLBERT_CHUNK_OVERLAP", "16")
	t.Setenv("COLBERT_VERBOSE", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "tiktoken", cfg.Tokenizer)
	assert.Equal(t, 128, cfg.ChunkSize)
	assert.Equal(t, 16, cfg.ChunkOverlap)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestLoad_DerivedOverlap(t *testing.T) {
	tests := []struct {
		size    string
		overlap string
		want    int
	}{
		{"32", "", 8},
		{"100", "", 25},
		{"1024", "", 64},
		{"100", "10", 10},
		{"100", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.size+"/"+tt.overlap, func(t *testing.T) {
			t.Setenv("COLBERT_CHUNK_SIZE", tt.size)
			if tt.overlap != "" {
				t.Setenv("COLBERT_CHUNK_OVERLAP", tt.overlap)
			}

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ChunkOverlap)
		})
	}
}

func TestLoad_PooledTokenizer(t *testing.T) {
	t.Setenv("COLBERT_POOLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.TokenLevel())
	assert.Equal(t, "tiktoken", cfg.Tokenizer)
}

func TestLoad_TokenizerPath(t *testing.T) {
	t.Setenv("COLBERT_TOKENIZER", "WordPiece")
	t.Setenv("COLBERT_TOKENIZER_PATH", "testdata/tokenizer.json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "wordpiece", cfg.Tokenizer)
	assert.Equal(t, "testdata/tokenizer.json", cfg.TokenizerPath)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	t.Setenv("COLBERT_CHUNK_SIZE", "128")
	path := filepath.Join(t.TempDir(), "colbert.yaml")
	content := "chunk_size: 512\nchunk_overlap: 32\nformat: yaml\ntokenizer: words\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 32, cfg.ChunkOverlap)
	assert.Equal(t, FormatYAML, cfg.Format)
	assert.Equal(t, "words", cfg.Tokenizer)
}

func TestLoad_MissingYAML(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "acme" }, "provider"},
		{"unknown tokenizer", func(c *Config) { c.Tokenizer = "bpe" }, "tokenizer"},
		{"unknown layout", func(c *Config) { c.Layout = "splade" }, "layout"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk_size"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 256 }, "chunk_overlap"},
		{"negative query length", func(c *Config) { c.QueryLength = -1 }, "query_length"},
		{"bad breaker ratio", func(c *Config) { c.BreakerRatio = 1.5 }, "breaker_ratio"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mod(cfg)

			err = cfg.Validate()
			var ce *embedder.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.ErrorIs(t, err, embedder.ErrConfiguration)
		})
	}
}
