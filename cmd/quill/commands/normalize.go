package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/internal/output"
	"github.com/jmylchreest/quill/pkg/llm"
	"github.com/jmylchreest/quill/pkg/quill"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [files...]",
	Short: "Normalize documents and render them to HTML",
	Long: `Normalize raw generated text into clean markdown, render it to HTML
and inject links. Reads stdin when no file is given.

Examples:
  quill normalize post.txt --topic "Rye bread" --format markdown
  cat post.txt | quill normalize --format html --standalone
  quill normalize batch.yaml --links links.yaml -f jsonl`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineKeys, providerKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args, false)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [files...]",
	Short: "Normalize documents and store them",
	Long: `Run documents through the pipeline and store the result. Stored
documents are offered as internal links to the documents published after
them.

Examples:
  quill publish post.txt --db ~/.quill/quill.db --base-url https://blog.example.com/posts/
  quill publish batch.yaml -c 8 -f jsonl`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineKeys, providerKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{normalizeCmd, publishCmd} {
		rootCmd.AddCommand(cmd)
		addPipelineFlags(cmd)
		addProviderFlags(cmd)
		addInputFlags(cmd)
	}
}

func addInputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("topic", "", "topic of documents that have none")
	flags.StringSlice("image", nil, "image URL for placement markers, optionally URL|alt (can be repeated)")
	flags.String("max-input-size", "1MB", "max size of each input (e.g. 512KB, 2MB, 0=unlimited)")
}

func runPipeline(cmd *cobra.Command, args []string, publish bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	maxSizeStr, _ := cmd.Flags().GetString("max-input-size")
	maxSize, err := parseSize(maxSizeStr)
	if err != nil {
		return err
	}
	topic, _ := cmd.Flags().GetString("topic")
	imageFlags, _ := cmd.Flags().GetStringSlice("image")

	docs, err := readInputs(args, cmd.InOrStdin(), inputOptions{
		MaxSize: maxSize,
		Topic:   topic,
		Images:  parseImages(imageFlags),
	})
	if err != nil {
		logger.Error("failed to read input", "error", err)
		return err
	}
	logger.Debug("inputs loaded", "documents", len(docs))

	var provider llm.Provider
	if viper.GetBool("links.llm") {
		if provider, err = newProvider(); err != nil {
			return err
		}
	}

	env, err := buildPipeline(provider)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer func() { _ = env.Close() }()
	if publish && env.store == nil {
		return fmt.Errorf("publish: %w (set --db or store.path)", quill.ErrNoStore)
	}

	w, closeOut, err := openWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	concurrency := viper.GetInt("concurrency")
	logger.Info("processing documents", "documents", len(docs), "concurrency", concurrency, "publish", publish)

	results := env.pipeline.ProcessMany(ctx, docs, concurrency, publish)
	return writeResults(w, results)
}

// writeResults writes the successful documents and reports failures. Any
// failed document makes the command fail after the rest are written.
func writeResults(w output.Writer, results []quill.BatchResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("document failed", "index", r.Index, "error", r.Err)
			continue
		}
		logWarnings(r.Document)
		if err := w.Write(r.Document); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logger.Info("processing complete", "documents", len(results)-failed, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func logWarnings(doc *quill.Document) {
	for _, w := range doc.Warnings {
		logger.Warn("document warning", "slug", doc.Slug, "kind", w.Kind, "phase", w.Phase, "message", w.Message)
	}
}

// openWriter creates the output writer for --output and --format. The
// returned func closes the writer and the file.
func openWriter(cmd *cobra.Command) (output.Writer, func(), error) {
	var out io.Writer = cmd.OutOrStdout()
	var file *os.File
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", path, "error", err)
			return nil, nil, err
		}
		file = f
		out = f
	}

	standalone, _ := cmd.Flags().GetBool("standalone")
	format := viper.GetString("format")
	w, err := output.NewWriter(out, output.Format(format), output.WithStandalone(standalone))
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		logger.Error("failed to create output writer", "format", format, "error", err)
		return nil, nil, err
	}

	return w, func() {
		_ = w.Close()
		if file != nil {
			_ = file.Close()
		}
	}, nil
}
