package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"unicode"

	"github.com/bububa/colbert-go/components/embedder"
)

// wordModel tokenizes on whitespace, wraps the words in [CLS] ... [SEP]
// and embeds one more vector than it reports spans, like a ColBERT model
// injecting its [D]/[Q] marker.
type wordModel struct {
	extra      int
	err        error
	tokenizes  int
	embeds     int
	batchCalls int
}

func (m *wordModel) Tokenize(text string, mode embedder.Mode) ([]embedder.Span, error) {
	m.tokenizes++
	spans := []embedder.Span{{}}
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, embedder.Span{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, embedder.Span{Start: start, End: len(text)})
	}
	return append(spans, embedder.Span{}), nil
}

func (m *wordModel) EmbedTokens(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	m.embeds++
	if m.err != nil {
		return nil, m.err
	}
	spans, _ := m.Tokenize(text, mode)
	m.tokenizes--
	n := len(spans) + 1 + m.extra
	ret := make([][]float64, n)
	for i := range ret {
		ret[i] = []float64{float64(len(text)), float64(i), float64(mode)}
	}
	return ret, nil
}

func (m *wordModel) BatchEmbedTokens(ctx context.Context, texts []string, mode embedder.Mode) ([][][]float64, error) {
	m.batchCalls++
	ret := make([][][]float64, 0, len(texts))
	for _, text := range texts {
		vectors, err := m.EmbedTokens(ctx, text, mode)
		if err != nil {
			return nil, err
		}
		ret = append(ret, vectors)
	}
	return ret, nil
}

const threeSentences = "One two three. Four five six. Seven eight nine."

func newTestPipeline(t *testing.T, m embedder.Model, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(m, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestEmbedWithOffsets(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	records, err := p.EmbedWithOffsets(context.Background(), "Hello world", embedder.ModeDocument)
	if err != nil {
		t.Fatalf("EmbedWithOffsets() error = %v", err)
	}
	want := []embedder.Span{{}, {}, {Start: 0, End: 5}, {Start: 6, End: 11}, {}}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, r := range records {
		if r.Span != want[i] {
			t.Errorf("record %d span = %v, want %v", i, r.Span, want[i])
		}
		if r.Embedding[1] != float64(i) {
			t.Errorf("record %d holds vector %v", i, r.Embedding)
		}
	}
}

func TestEmbedWithOffsetsFiveTokens(t *testing.T) {
	text := "a bb ccc"
	p := newTestPipeline(t, new(wordModel))
	records, err := p.EmbedWithOffsets(context.Background(), text, embedder.ModeQuery)
	if err != nil {
		t.Fatalf("EmbedWithOffsets() error = %v", err)
	}
	// 5 tokenizer spans ([CLS] a bb ccc [SEP]) and 6 vectors
	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}
	if !records[1].Span.IsZero() {
		t.Errorf("marker span = %v, want zero", records[1].Span)
	}
	for i, want := range []string{"", "", "a", "bb", "ccc", ""} {
		if got := records[i].Span.Text(text); got != want {
			t.Errorf("record %d text = %q, want %q", i, got, want)
		}
	}
}

func TestEmbedWithOffsetsIdempotent(t *testing.T) {
	p := newTestPipeline(t, new(wordModel))
	ctx := context.Background()
	a, err := p.EmbedWithOffsets(ctx, threeSentences, embedder.ModeDocument)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.EmbedWithOffsets(ctx, threeSentences, embedder.ModeDocument)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated calls differ")
	}
}

func TestEmbedWithOffsetsAlignmentError(t *testing.T) {
	p := newTestPipeline(t, &wordModel{extra: 1})
	_, err := p.EmbedWithOffsets(context.Background(), "Hello world", embedder.ModeDocument)
	if !errors.Is(err, embedder.ErrAlignment) {
		t.Fatalf("error = %v, want alignment error", err)
	}
	var ae *embedder.AlignmentError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not an AlignmentError", err)
	}
	if ae.Tokens != 4 || ae.Markers != 1 || ae.Vectors != 6 {
		t.Errorf("alignment error = %+v", ae)
	}
}

func TestNoMarkerLayout(t *testing.T) {
	p := newTestPipeline(t, &wordModel{extra: -1}, WithLayout(embedder.NoMarkerLayout))
	records, err := p.EmbedWithOffsets(context.Background(), "Hello world", embedder.ModeDocument)
	if err != nil {
		t.Fatalf("EmbedWithOffsets() error = %v", err)
	}
	if len(records) != 4 || records[1].Span != (embedder.Span{Start: 0, End: 5}) {
		t.Errorf("records = %v", records)
	}
}

func TestValidationBeforeModel(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	ctx := context.Background()
	tests := []struct {
		name string
		run  func() error
	}{
		{"empty text", func() error {
			_, err := p.EmbedWithOffsets(ctx, "", embedder.ModeDocument)
			return err
		}},
		{"invalid utf8", func() error {
			_, err := p.EmbedWithOffsets(ctx, "bad \xff byte", embedder.ModeDocument)
			return err
		}},
		{"empty query", func() error {
			_, err := p.EmbedQuery(ctx, "", true)
			return err
		}},
		{"empty document", func() error {
			_, err := p.EmbedDocument(ctx, "d1", "")
			return err
		}},
		{"empty chunked document", func() error {
			_, err := p.EmbedDocumentChunks(ctx, "d1", "", 8, 2)
			return err
		}},
		{"nil batch", func() error {
			_, err := p.EmbedDocuments(ctx, nil)
			return err
		}},
		{"invalid split text", func() error {
			_, err := p.Split(ctx, "\xff", 8, 2)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, embedder.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
			if got := embedder.ErrorKind(err); got != embedder.KindValidation {
				t.Errorf("kind = %q", got)
			}
		})
	}
	if m.tokenizes != 0 || m.embeds != 0 || m.batchCalls != 0 {
		t.Errorf("model was called: tokenize=%d embed=%d batch=%d", m.tokenizes, m.embeds, m.batchCalls)
	}
}

func TestEmbedQuery(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	ctx := context.Background()
	ret, err := p.EmbedQuery(ctx, "what is colbert", false)
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if ret.Records != nil {
		t.Errorf("records computed without offsets")
	}
	if len(ret.Vectors) != 6 {
		t.Errorf("got %d vectors, want 6", len(ret.Vectors))
	}
	if ret.Vectors[0][2] != float64(embedder.ModeQuery) {
		t.Errorf("query embedded in document mode")
	}
	if m.tokenizes != 0 {
		t.Errorf("query without offsets tokenized %d times", m.tokenizes)
	}
	withOffsets, err := p.EmbedQuery(ctx, "what is colbert", true)
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(withOffsets.Records) != len(withOffsets.Vectors) {
		t.Errorf("records %d != vectors %d", len(withOffsets.Records), len(withOffsets.Vectors))
	}
	if !reflect.DeepEqual(withOffsets.Vectors, ret.Vectors) {
		t.Errorf("offsets changed the vectors")
	}
}

func TestEmbedDocument(t *testing.T) {
	p := newTestPipeline(t, new(wordModel))
	ret, err := p.EmbedDocument(context.Background(), "doc", threeSentences)
	if err != nil {
		t.Fatalf("EmbedDocument() error = %v", err)
	}
	if len(ret.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(ret.Chunks))
	}
	chunk := ret.Chunks[0].Chunk
	if chunk.Start != 0 || chunk.End != len(threeSentences) || chunk.Text != threeSentences {
		t.Errorf("chunk = %+v", chunk)
	}
	if chunk.TokenSize != 9 {
		t.Errorf("token size = %d, want 9", chunk.TokenSize)
	}
	if ret.Chunks[0].ID != chunk.ID("doc") {
		t.Errorf("chunk id = %s", ret.Chunks[0].ID)
	}
	if len(ret.Records()) != 12 {
		t.Errorf("got %d records, want 12", len(ret.Records()))
	}
}

func TestEmbedDocumentChunks(t *testing.T) {
	ctx := context.Background()
	starts := []int{0, 15, 30}
	for _, absolute := range []bool{false, true} {
		p := newTestPipeline(t, new(wordModel), WithAbsoluteOffsets(absolute))
		ret, err := p.EmbedDocumentChunks(ctx, "doc", threeSentences, 4, 0)
		if err != nil {
			t.Fatalf("EmbedDocumentChunks() error = %v", err)
		}
		if ret.Absolute != absolute {
			t.Errorf("absolute = %v, want %v", ret.Absolute, absolute)
		}
		if len(ret.Chunks) != len(starts) {
			t.Fatalf("got %d chunks, want %d", len(ret.Chunks), len(starts))
		}
		for i, c := range ret.Chunks {
			if c.Chunk.Start != starts[i] {
				t.Errorf("chunk %d starts at %d, want %d", i, c.Chunk.Start, starts[i])
			}
			if len(c.Records) != 6 {
				t.Errorf("chunk %d has %d records, want 6", i, len(c.Records))
			}
			if !c.Records[1].Span.IsZero() || !c.Records[5].Span.IsZero() {
				t.Errorf("chunk %d special spans moved: %v %v", i, c.Records[1].Span, c.Records[5].Span)
			}
			for _, r := range c.Records {
				if r.Span.IsZero() {
					continue
				}
				got := r.Span.Text(c.Chunk.Text)
				if absolute {
					got = r.Span.Text(threeSentences)
				}
				if got == "" || strings.ContainsFunc(got, unicode.IsSpace) {
					t.Errorf("chunk %d span %v maps to %q", i, r.Span, got)
				}
			}
		}
		second := ret.Chunks[1].Records[2].Span
		want := embedder.Span{Start: 0, End: 4}
		if absolute {
			want = embedder.Span{Start: 15, End: 19}
		}
		if second != want {
			t.Errorf("absolute=%v second chunk first word span = %v, want %v", absolute, second, want)
		}
		if len(ret.Records()) != 18 || len(ret.Vectors()) != 18 {
			t.Errorf("flattened %d records", len(ret.Records()))
		}
	}
}

func TestEmbedDocumentChunksConfiguration(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	for _, tt := range []struct{ size, overlap int }{{0, 0}, {4, 4}, {4, -1}} {
		_, err := p.EmbedDocumentChunks(context.Background(), "doc", threeSentences, tt.size, tt.overlap)
		if !errors.Is(err, embedder.ErrConfiguration) {
			t.Errorf("size=%d overlap=%d error = %v, want configuration error", tt.size, tt.overlap, err)
		}
	}
	if m.embeds != 0 {
		t.Errorf("model embedded %d times", m.embeds)
	}
}

func TestEmbedDocuments(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	ret, err := p.EmbedDocuments(context.Background(), map[string]string{"d1": "foo", "d2": "bar"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if len(ret.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(ret.Documents))
	}
	for _, id := range []string{"d1", "d2"} {
		vectors, ok := ret.Documents[id]
		if !ok {
			t.Errorf("missing %s", id)
			continue
		}
		if len(vectors) != 4 {
			t.Errorf("%s has %d vectors, want 4", id, len(vectors))
		}
	}
	if ret.Spans != nil {
		t.Errorf("spans returned without BatchWithSpans")
	}
	if m.batchCalls != 1 {
		t.Errorf("batch calls = %d, want 1", m.batchCalls)
	}
}

func TestEmbedDocumentsChunkingWithSpans(t *testing.T) {
	p := newTestPipeline(t, new(wordModel))
	docs := map[string]string{"a": threeSentences, "b": "short one"}
	ret, err := p.EmbedDocuments(context.Background(), docs, BatchWithChunking(4, 0), BatchWithSpans())
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if got := len(ret.Documents["a"]); got != 18 {
		t.Errorf("a has %d vectors, want 18", got)
	}
	if got := len(ret.Documents["b"]); got != 5 {
		t.Errorf("b has %d vectors, want 5", got)
	}
	for id, text := range docs {
		spans := ret.Spans[id]
		if len(spans) != len(ret.Documents[id]) {
			t.Fatalf("%s: %d spans for %d vectors", id, len(spans), len(ret.Documents[id]))
		}
		for _, s := range spans {
			if s.IsZero() {
				continue
			}
			if got := s.Text(text); got == "" || strings.ContainsFunc(got, unicode.IsSpace) {
				t.Errorf("%s span %v maps to %q", id, s, got)
			}
		}
	}
	if ret.Spans["a"][8] != (embedder.Span{Start: 15, End: 19}) {
		t.Errorf("second chunk span = %v", ret.Spans["a"][8])
	}
}

func TestEmbedDocumentsRejectsWholeBatch(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	_, err := p.EmbedDocuments(context.Background(), map[string]string{"d1": "fine", "d2": ""})
	if !errors.Is(err, embedder.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "d2") {
		t.Errorf("error %q does not name the document", err)
	}
	if m.batchCalls != 0 || m.embeds != 0 {
		t.Errorf("model called for an invalid batch")
	}
}

func TestEmbedDocumentsEmptyBatch(t *testing.T) {
	p := newTestPipeline(t, new(wordModel))
	ret, err := p.EmbedDocuments(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if len(ret.Documents) != 0 {
		t.Errorf("documents = %v", ret.Documents)
	}
}

func TestSplit(t *testing.T) {
	p := newTestPipeline(t, new(wordModel))
	ctx := context.Background()
	ret, err := p.Split(ctx, "", 8, 2)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if ret.Chunks == nil || len(ret.Chunks) != 0 {
		t.Errorf("empty text chunks = %v", ret.Chunks)
	}
	ret, err = p.Split(ctx, "Hello world.", 256, 64)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(ret.Chunks) != 1 || ret.Chunks[0].Start != 0 || ret.Chunks[0].End != 12 {
		t.Errorf("chunks = %+v", ret.Chunks)
	}
}

func TestInferenceErrors(t *testing.T) {
	boom := errors.New("boom")
	p := newTestPipeline(t, &wordModel{err: boom})
	_, err := p.EmbedWithOffsets(context.Background(), "Hello", embedder.ModeDocument)
	if !errors.Is(err, embedder.ErrModelInference) || !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped inference error", err)
	}
	_, err = p.EmbedDocuments(context.Background(), map[string]string{"d1": "foo"})
	if !errors.Is(err, embedder.ErrModelInference) || !errors.Is(err, boom) {
		t.Errorf("batch error = %v, want wrapped inference error", err)
	}
}

func TestCancelledContext(t *testing.T) {
	m := new(wordModel)
	p := newTestPipeline(t, m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.EmbedWithOffsets(ctx, "Hello", embedder.ModeDocument)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, embedder.ErrModelInference) {
		t.Errorf("error = %v", err)
	}
	if m.embeds != 0 {
		t.Errorf("model called after cancellation")
	}
}

func TestNewConfiguration(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, embedder.ErrConfiguration) {
		t.Errorf("New(nil) error = %v", err)
	}
	if _, err := New(new(wordModel), WithChunkOverlap(300)); !errors.Is(err, embedder.ErrConfiguration) {
		t.Errorf("overlap above default size error = %v", err)
	}
	bad := embedder.Layout{Name: "bad", Markers: []int{-1}}
	if _, err := New(new(wordModel), WithLayout(bad)); !errors.Is(err, embedder.ErrConfiguration) {
		t.Errorf("bad layout error = %v", err)
	}
	p := newTestPipeline(t, new(wordModel), WithChunkSize(100))
	if p.ChunkSize() != 100 || p.ChunkOverlap() != 25 {
		t.Errorf("size=%d overlap=%d", p.ChunkSize(), p.ChunkOverlap())
	}
	if p.Layout().Name != embedder.ColBERTLayout.Name {
		t.Errorf("default layout = %s", p.Layout().Name)
	}
}

func TestStatsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newTestPipeline(t, new(wordModel), WithLogger(logger))
	ctx := context.Background()
	if _, err := p.EmbedDocument(ctx, "doc", "Hello world"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.EmbedDocument(ctx, "doc", ""); err == nil {
		t.Fatal("empty document accepted")
	}
	stats := p.Stats()
	if stats.Calls != 2 || stats.Failures != 1 || stats.Chunks != 1 || stats.Vectors != 5 {
		t.Errorf("stats = %+v", stats)
	}
	out := buf.String()
	for _, want := range []string{`"op":"embed_document"`, `"request_id":`, `"kind":"validation"`, `"vectors":5`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output misses %s:\n%s", want, out)
		}
	}
}
