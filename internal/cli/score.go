package cli

import (
	"github.com/spf13/cobra"

	"github.com/bububa/colbert-go/components/embedder"
)

var (
	scoreQuery string
	scoreTopK  int
)

var scoreCmd = &cobra.Command{
	Use:   "score <docs.json>",
	Short: "Rank documents against a query with MaxSim",
	Long: `Embeds a query and a batch of documents and ranks the documents by
late-interaction MaxSim: the sum over query tokens of the best cosine
similarity with any document token.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreQuery, "query", "q", "", "search query")
	scoreCmd.Flags().IntVarP(&scoreTopK, "top-k", "k", 10, "number of documents to return, 0 for all")
	scoreCmd.Flags().BoolVar(&batchChunking, "chunking", false, "split every document before embedding")
	scoreCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := runContext(cmd)
	defer cancel()
	docs, err := readDocuments(args[0])
	if err != nil {
		return err
	}
	query, err := current.pipeline.EmbedQuery(ctx, scoreQuery, false)
	if err != nil {
		return err
	}
	batch, err := current.pipeline.EmbedDocuments(ctx, docs, batchOptions()...)
	if err != nil {
		return err
	}
	return writeResult(cmd, embedder.Rank(query.Vectors, batch.Documents, scoreTopK))
}
