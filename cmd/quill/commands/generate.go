package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/quill"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>...",
	Short: "Generate articles with an LLM and run them through the pipeline",
	Long: `Ask an LLM provider for an article about each topic, then normalize,
render and link it like any other input.

The provider is auto-detected from ANTHROPIC_API_KEY, OPENAI_API_KEY or
OPENROUTER_API_KEY, falling back to a local Ollama.

Examples:
  quill generate "Rye bread basics" --format markdown
  quill generate "Sourdough starter care" -p openai -m gpt-4o --publish --db blog.db`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineKeys, providerKeys)
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addPipelineFlags(generateCmd)
	addProviderFlags(generateCmd)

	flags := generateCmd.Flags()
	flags.StringSlice("image", nil, "image URL for placement markers, optionally URL|alt (can be repeated)")
	flags.Bool("publish", false, "store the generated documents")
}

func runGenerate(cmd *cobra.Command, topics []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, err := newProvider()
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		return err
	}

	env, err := buildPipeline(provider)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer func() { _ = env.Close() }()

	publish, _ := cmd.Flags().GetBool("publish")
	if publish && env.store == nil {
		return fmt.Errorf("publish: %w (set --db or store.path)", quill.ErrNoStore)
	}
	imageFlags, _ := cmd.Flags().GetStringSlice("image")
	images := parseImages(imageFlags)

	w, closeOut, err := openWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	logger.Info("generating documents", "topics", len(topics), "provider", provider.Name(), "model", provider.Model())

	results := make([]quill.BatchResult, len(topics))
	var g errgroup.Group
	g.SetLimit(max(viper.GetInt("concurrency"), 1))
	for i, topic := range topics {
		g.Go(func() error {
			doc, err := env.pipeline.Generate(ctx, topic, images)
			if err == nil && publish {
				err = env.pipeline.Save(ctx, doc)
			}
			results[i] = quill.BatchResult{Index: i, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return writeResults(w, results)
}
