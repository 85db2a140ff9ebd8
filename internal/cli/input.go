package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bububa/colbert-go/components/embedder"
	"github.com/bububa/colbert-go/internal/config"
)

func layoutOf(cfg *config.Config) (embedder.Layout, error) {
	return embedder.LayoutByName(cfg.Layout)
}

// readText extracts the text of the file named by args[0], or of stdin
// when there is no argument or it is "-".
func readText(ctx context.Context, cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		doc, err := current.loader.Load(ctx, cmd.InOrStdin(), map[string]string{"source": "stdin"})
		if err != nil {
			return "", err
		}
		return doc.Text(), nil
	}
	doc, err := current.loader.LoadFile(ctx, args[0])
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// readDocuments reads a JSON object of id to text, either bare or under a
// "documents" key.
func readDocuments(fname string) (map[string]string, error) {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var req struct {
		Documents map[string]string `json:"documents"`
	}
	if err := json.Unmarshal(bs, &req); err == nil && req.Documents != nil {
		return req.Documents, nil
	}
	var docs map[string]string
	if err := json.Unmarshal(bs, &docs); err != nil {
		return nil, &embedder.ValidationError{Field: "documents", Reason: fmt.Sprintf("is not a JSON object of id to text: %v", err)}
	}
	return docs, nil
}
