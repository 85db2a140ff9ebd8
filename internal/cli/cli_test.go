package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/components/embedder/tokenizer"
	"github.com/bububa/colbert-go/internal/config"
)

// letterEmbedder embeds every token as a one-hot vector of its first
// letter and inserts a marker vector after the leading special token.
type letterEmbedder struct {
	tk embedder.Tokenizer
}

func letterVector(word string) []float64 {
	v := make([]float64, 27)
	idx := 26
	for _, r := range word {
		if r = unicode.ToLower(r); r >= 'a' && r <= 'z' {
			idx = int(r - 'a')
		}
		break
	}
	v[idx] = 1
	return v
}

func (e letterEmbedder) EmbedTokens(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	spans, err := e.tk.Tokenize(text, mode)
	if err != nil {
		return nil, err
	}
	ret := make([][]float64, 0, len(spans)+1)
	for i, s := range spans {
		if i == 1 {
			ret = append(ret, letterVector(""))
		}
		ret = append(ret, letterVector(s.Text(text)))
	}
	return ret, nil
}

func setupTestModel(t *testing.T) {
	t.Helper()
	newModel = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embedder.Model, error) {
		tk, err := tokenizer.NewWords()
		if err != nil {
			return nil, err
		}
		return embedder.NewModel(tk, letterEmbedder{tk: tk}), nil
	}
	t.Cleanup(func() {
		newModel = NewModel
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fname, []byte(content), 0o600))
	return fname
}

type chunkOut struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start_offset"`
	End   int    `json:"end_offset"`
}

func TestSplitCmd_Stdin(t *testing.T) {
	setupTestModel(t)
	text := "Cats purr. Dogs bark loudly. Birds sing."

	out, err := run(t, text, "split", "--chunk-size", "4", "--chunk-overlap", "0")
	require.NoError(t, err)

	var ret struct {
		Chunks []chunkOut `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	require.NotEmpty(t, ret.Chunks)
	assert.Equal(t, 0, ret.Chunks[0].Start)
	assert.Equal(t, len(text), ret.Chunks[len(ret.Chunks)-1].End)
	for _, c := range ret.Chunks {
		assert.Equal(t, text[c.Start:c.End], c.Text)
	}
}

func TestSplitCmd_YAML(t *testing.T) {
	setupTestModel(t)

	out, err := run(t, "Hello world.", "--format", "yaml", "split")
	require.NoError(t, err)

	var ret struct {
		Chunks []struct {
			Start int `yaml:"start"`
			End   int `yaml:"end"`
			Text  string
		} `yaml:"chunks"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &ret))
	require.Len(t, ret.Chunks, 1)
	assert.Equal(t, "Hello world.", ret.Chunks[0].Text)
}

func TestSplitCmd_TooManyArgs(t *testing.T) {
	setupTestModel(t)

	_, err := run(t, "", "split", "a.txt", "b.txt")
	assert.Error(t, err)
}

func TestChunking(t *testing.T) {
	setupTestModel(t)
	_, err := run(t, "Hello world.", "split")
	require.NoError(t, err)

	tests := []struct {
		name            string
		size, overlap   int
		wantSize, wantO int
	}{
		{"configured", 0, -1, 256, 64},
		{"size only", 100, -1, 100, 25},
		{"small size only", 32, -1, 32, 8},
		{"overlap only", 0, 5, 256, 5},
		{"both", 10, 2, 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, overlap := chunking(tt.size, tt.overlap)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantO, overlap)
		})
	}
}

func TestEmbedQueryCmd_Offsets(t *testing.T) {
	setupTestModel(t)

	out, err := run(t, "", "embed", "query", "--offsets", "cats purr")
	require.NoError(t, err)

	var ret struct {
		Query   string      `json:"query"`
		Vectors [][]float64 `json:"vectors"`
		Records []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	assert.Equal(t, "cats purr", ret.Query)
	// padded to 32 query tokens plus the marker
	assert.Len(t, ret.Vectors, tokenizer.QueryLength+1)
	require.Len(t, ret.Records, tokenizer.QueryLength+1)
	assert.Equal(t, 0, ret.Records[1].End)
	assert.Equal(t, 0, ret.Records[2].Start)
	assert.Equal(t, 4, ret.Records[2].End)
}

func TestEmbedQueryCmd_EmptyQuery(t *testing.T) {
	setupTestModel(t)

	_, err := run(t, "", "embed", "query", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, embedder.ErrValidation)
}

func TestEmbedDocumentCmd_ChunkedAbsolute(t *testing.T) {
	setupTestModel(t)
	text := "Cats purr softly. Dogs bark loudly."
	fname := writeFile(t, "doc.txt", text)

	out, err := run(t, "", "embed", "document", "--id", "doc", "--chunked", "--absolute",
		"--chunk-size", "4", "--chunk-overlap", "0", fname)
	require.NoError(t, err)

	var ret struct {
		ID       string `json:"id"`
		Absolute bool   `json:"absolute"`
		Chunks   []struct {
			ID      string `json:"id"`
			Records []struct {
				Start int `json:"start"`
				End   int `json:"end"`
			} `json:"records"`
		} `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	assert.Equal(t, "doc", ret.ID)
	assert.True(t, ret.Absolute)
	require.Len(t, ret.Chunks, 2)
	second := ret.Chunks[1].Records[2]
	assert.Equal(t, "Dogs", text[second.Start:second.End])
	assert.NotEqual(t, ret.Chunks[0].ID, ret.Chunks[1].ID)
}

func TestEmbedDocumentCmd_Whole(t *testing.T) {
	setupTestModel(t)

	out, err := run(t, "Cats purr.", "embed", "document")
	require.NoError(t, err)

	var ret struct {
		Chunks []struct {
			Chunk   chunkOut          `json:"chunk"`
			Records []json.RawMessage `json:"records"`
		} `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	require.Len(t, ret.Chunks, 1)
	assert.Equal(t, 10, ret.Chunks[0].Chunk.End)
	// [CLS] marker Cats purr . [SEP]
	assert.Len(t, ret.Chunks[0].Records, 6)
}

func TestEmbedDocumentsCmd(t *testing.T) {
	setupTestModel(t)
	fname := writeFile(t, "docs.json", `{"documents": {"d1": "foo", "d2": "bar"}}`)

	out, err := run(t, "", "embed", "documents", fname)
	require.NoError(t, err)

	var ret struct {
		Documents map[string][][]float64 `json:"documents"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	require.Len(t, ret.Documents, 2)
	assert.Len(t, ret.Documents["d1"], 4)
	assert.Len(t, ret.Documents["d2"], 4)
}

func TestEmbedDocumentsCmd_Spans(t *testing.T) {
	setupTestModel(t)
	fname := writeFile(t, "docs.json", `{"a": "Cats purr. Dogs bark."}`)

	out, err := run(t, "", "embed", "documents", "--chunking", "--chunk-size", "3", "--chunk-overlap", "0", "--spans", fname)
	require.NoError(t, err)

	var ret struct {
		Documents map[string][][]float64 `json:"documents"`
		Spans     map[string][]struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"spans"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	require.Len(t, ret.Spans["a"], len(ret.Documents["a"]))
}

func TestEmbedDocumentsCmd_InvalidJSON(t *testing.T) {
	setupTestModel(t)
	fname := writeFile(t, "docs.json", `["not", "an", "object"]`)

	_, err := run(t, "", "embed", "documents", fname)
	assert.ErrorIs(t, err, embedder.ErrValidation)
}

func TestScoreCmd(t *testing.T) {
	setupTestModel(t)
	fname := writeFile(t, "docs.json", `{"dogs": "dogs bark", "cats": "cats purr"}`)

	out, err := run(t, "", "score", "--query", "cats", fname)
	require.NoError(t, err)

	var ret []embedder.Score
	require.NoError(t, json.Unmarshal([]byte(out), &ret))
	require.Len(t, ret, 2)
	assert.Equal(t, "cats", ret[0].ID)
	assert.Greater(t, ret[0].Score, ret[1].Score)
}

func TestScoreCmd_RequiresQuery(t *testing.T) {
	setupTestModel(t)
	fname := writeFile(t, "docs.json", `{"d1": "foo"}`)

	_, err := run(t, "", "score", fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestRootCmd_BadFormat(t *testing.T) {
	setupTestModel(t)

	_, err := run(t, "text", "--format", "xml", "split")
	assert.ErrorIs(t, err, embedder.ErrConfiguration)
}
