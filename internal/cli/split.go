package cli

import (
	"github.com/spf13/cobra"

	"github.com/bububa/colbert-go/components/embedder/splitter"
)

var (
	splitChunkSize    int
	splitChunkOverlap int
)

var splitCmd = &cobra.Command{
	Use:   "split [file|-]",
	Short: "Split a document into overlapping chunks",
	Long: `Splits a document into sentence-aware chunks measured in model tokens.
Every chunk carries its byte offsets in the extracted text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().IntVar(&splitChunkSize, "chunk-size", 0, "maximum tokens per chunk (default from config)")
	splitCmd.Flags().IntVar(&splitChunkOverlap, "chunk-overlap", -1, "maximum tokens shared by adjacent chunks (default from config)")
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx, cancel := runContext(cmd)
	defer cancel()
	text, err := readText(ctx, cmd, args)
	if err != nil {
		return err
	}
	size, overlap := chunking(splitChunkSize, splitChunkOverlap)
	ret, err := current.pipeline.Split(ctx, text, size, overlap)
	if err != nil {
		return err
	}
	return writeResult(cmd, ret)
}

// chunking falls back to the configured size and overlap for unset flags.
// An overlap left unset next to an explicit size is derived from that size.
func chunking(size int, overlap int) (int, int) {
	if size <= 0 {
		size = current.pipeline.ChunkSize()
		if overlap < 0 {
			overlap = current.pipeline.ChunkOverlap()
		}
	}
	if overlap < 0 {
		overlap = splitter.DefaultOverlap(size)
	}
	return size, overlap
}
