package commands

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/quill"
	"github.com/jmylchreest/quill/pkg/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published documents",
	Long: `List documents in the store, most recently updated first.

Examples:
  quill list --db blog.db --limit 10 -f yaml
  quill list --db blog.db -f markdown -o all.md`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineKeys)
	},
	RunE: runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id-or-slug>...",
	Short: "Delete published documents",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineKeys)
	},
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(listCmd, deleteCmd)

	for _, cmd := range []*cobra.Command{listCmd, deleteCmd} {
		cmd.Flags().String("db", "", "SQLite store path")
	}
	flags := listCmd.Flags()
	flags.Int("limit", 0, "max documents to list (0=all)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", "json", "output format: json, jsonl, yaml, markdown, html")
	flags.Bool("standalone", false, "with --format html, write a complete page per document")
}

func requireStore() (*store.Store, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("no store: set --db or store.path")
	}
	return s, nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := requireStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	docs, err := s.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w, closeOut, err := openWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	for _, d := range docs {
		logger.Debug("stored document", "slug", d.Slug, "updated", humanize.Time(d.UpdatedAt))
		if err := w.Write(fromStored(d)); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runDelete(cmd *cobra.Command, refs []string) error {
	s, err := requireStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	for _, ref := range refs {
		id := ref
		if d, err := s.GetBySlug(ctx, ref); err == nil {
			id = d.ID
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := s.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", ref, err)
		}
		logger.Info("document deleted", "ref", ref, "id", id)
	}
	return nil
}

// fromStored converts a stored document for the output writers.
func fromStored(d *store.Document) *quill.Document {
	return &quill.Document{
		ID:       d.ID,
		Title:    d.Title,
		Slug:     d.Slug,
		Topic:    d.Topic,
		Excerpt:  d.Excerpt,
		HTML:     d.HTML,
		Markdown: d.Markdown,
	}
}
