// Package cli implements the colbert command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bububa/colbert-go/components/document"
	"github.com/bububa/colbert-go/components/document/parsers"
	"github.com/bububa/colbert-go/components/pipeline"
	"github.com/bububa/colbert-go/internal/config"
	"github.com/bububa/colbert-go/internal/logger"
)

var (
	cfgFile string
	verbose bool
	format  string

	absoluteOffsets bool
)

// newModel builds the model for every command run
var newModel ModelFactory = NewModel

// app is the state shared by the commands of one run
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	loader   *document.Loader
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "colbert",
	Short: "Late-interaction token embeddings aligned to source text",
	Long: `colbert splits text into overlapping sentence-aware chunks, embeds it
with a late-interaction model and maps every token vector back to the span
of source text it was computed for.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "output format: json or yaml")
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	if format != "" {
		cfg.Format = format
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	model, err := newModel(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	layout, err := layoutOf(cfg)
	if err != nil {
		return err
	}
	p, err := pipeline.New(model,
		pipeline.WithLayout(layout),
		pipeline.WithChunkSize(cfg.ChunkSize),
		pipeline.WithChunkOverlap(cfg.ChunkOverlap),
		pipeline.WithAbsoluteOffsets(absoluteOffsets),
		pipeline.WithLogger(log),
	)
	if err != nil {
		return err
	}
	current = &app{
		cfg:      cfg,
		logger:   log,
		pipeline: p,
		loader:   parsers.NewLoader(),
	}
	return nil
}

func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), current.cfg.Timeout)
}

func writeResult(cmd *cobra.Command, v any) error {
	var (
		bs  []byte
		err error
	)
	if current.cfg.Format == config.FormatYAML {
		bs, err = yaml.Marshal(v)
	} else {
		bs, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bs))
	return err
}
