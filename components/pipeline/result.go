package pipeline

import "github.com/bububa/colbert-go/components/embedder"

// Document is a caller supplied text with its identifier
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text" validate:"required,utf8"`
}

// QueryResult is the result of EmbedQuery. Records is only set when
// offsets were requested.
type QueryResult struct {
	Query   string            `json:"query"`
	Vectors [][]float64       `json:"vectors"`
	Records []embedder.Record `json:"records,omitempty"`
}

// ChunkEmbeddings are the aligned embeddings of one chunk
type ChunkEmbeddings struct {
	ID      string            `json:"id"`
	Chunk   embedder.Chunk    `json:"chunk"`
	Records []embedder.Record `json:"records"`
}

// DocumentResult is the result of EmbedDocument and EmbedDocumentChunks
type DocumentResult struct {
	ID string `json:"id"`
	// Absolute reports whether record spans are document offsets
	// rather than offsets into their chunk.
	Absolute bool              `json:"absolute"`
	Chunks   []ChunkEmbeddings `json:"chunks"`
}

// Records returns the records of all chunks in chunk order
func (r *DocumentResult) Records() []embedder.Record {
	var n int
	for _, c := range r.Chunks {
		n += len(c.Records)
	}
	ret := make([]embedder.Record, 0, n)
	for _, c := range r.Chunks {
		ret = append(ret, c.Records...)
	}
	return ret
}

// Vectors returns the vectors of all chunks in chunk order
func (r *DocumentResult) Vectors() [][]float64 {
	records := r.Records()
	ret := make([][]float64, 0, len(records))
	for _, v := range records {
		ret = append(ret, v.Embedding)
	}
	return ret
}

// BatchResult is the result of EmbedDocuments, keyed by document id.
// Spans is only set when requested, Spans[id][i] locates Documents[id][i].
type BatchResult struct {
	Documents map[string][][]float64     `json:"documents"`
	Spans     map[string][]embedder.Span `json:"spans,omitempty"`
}

// SplitResult is the result of Split
type SplitResult struct {
	Chunks []embedder.Chunk `json:"chunks"`
}
