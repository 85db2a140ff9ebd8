package cli

import (
	"github.com/spf13/cobra"

	"github.com/bububa/colbert-go/components/pipeline"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute token level embeddings",
}

var (
	queryOffsets bool
)

var embedQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Embed a search query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runContext(cmd)
		defer cancel()
		ret, err := current.pipeline.EmbedQuery(ctx, args[0], queryOffsets)
		if err != nil {
			return err
		}
		return writeResult(cmd, ret)
	},
}

var (
	documentID           string
	documentChunked      bool
	documentChunkSize    int
	documentChunkOverlap int
)

var embedDocumentCmd = &cobra.Command{
	Use:   "document [file|-]",
	Short: "Embed a document with token offsets",
	Long: `Embeds a document and returns every token vector with the span of
source text it covers. With --chunked the document is split first and every
chunk is embedded on its own; spans are relative to the chunk unless
--absolute is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runContext(cmd)
		defer cancel()
		text, err := readText(ctx, cmd, args)
		if err != nil {
			return err
		}
		var ret *pipeline.DocumentResult
		if documentChunked || cmd.Flags().Changed("chunk-size") {
			size, overlap := chunking(documentChunkSize, documentChunkOverlap)
			ret, err = current.pipeline.EmbedDocumentChunks(ctx, documentID, text, size, overlap)
		} else {
			ret, err = current.pipeline.EmbedDocument(ctx, documentID, text)
		}
		if err != nil {
			return err
		}
		return writeResult(cmd, ret)
	},
}

var (
	batchChunking     bool
	batchChunkSize    int
	batchChunkOverlap int
	batchSpans        bool
)

var embedDocumentsCmd = &cobra.Command{
	Use:   "documents <docs.json>",
	Short: "Embed a batch of documents keyed by id",
	Long: `Embeds every document of a JSON object of id to text with a single
model call and returns the vectors of each document under its id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runContext(cmd)
		defer cancel()
		docs, err := readDocuments(args[0])
		if err != nil {
			return err
		}
		ret, err := current.pipeline.EmbedDocuments(ctx, docs, batchOptions()...)
		if err != nil {
			return err
		}
		return writeResult(cmd, ret)
	},
}

func batchOptions() []pipeline.BatchOption {
	var opts []pipeline.BatchOption
	if batchChunking {
		size, overlap := chunking(batchChunkSize, batchChunkOverlap)
		opts = append(opts, pipeline.BatchWithChunking(size, overlap))
	}
	if batchSpans {
		opts = append(opts, pipeline.BatchWithSpans())
	}
	return opts
}

func init() {
	embedQueryCmd.Flags().BoolVar(&queryOffsets, "offsets", false, "include the span of every query token")

	embedDocumentCmd.Flags().StringVar(&documentID, "id", "", "document id used for chunk ids")
	embedDocumentCmd.Flags().BoolVar(&documentChunked, "chunked", false, "split the document before embedding")
	embedDocumentCmd.Flags().IntVar(&documentChunkSize, "chunk-size", 0, "maximum tokens per chunk (default from config)")
	embedDocumentCmd.Flags().IntVar(&documentChunkOverlap, "chunk-overlap", -1, "maximum tokens shared by adjacent chunks (default from config)")
	embedDocumentCmd.Flags().BoolVar(&absoluteOffsets, "absolute", false, "report chunk token spans as document offsets")

	embedDocumentsCmd.Flags().BoolVar(&batchChunking, "chunking", false, "split every document before embedding")
	embedDocumentsCmd.Flags().IntVar(&batchChunkSize, "chunk-size", 0, "maximum tokens per chunk (default from config)")
	embedDocumentsCmd.Flags().IntVar(&batchChunkOverlap, "chunk-overlap", -1, "maximum tokens shared by adjacent chunks (default from config)")
	embedDocumentsCmd.Flags().BoolVar(&batchSpans, "spans", false, "include the document span of every vector")

	embedCmd.AddCommand(embedQueryCmd, embedDocumentCmd, embedDocumentsCmd)
	rootCmd.AddCommand(embedCmd)
}
