// Package output writes processed documents in the formats the CLI offers.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/quill/pkg/quill"
)

// Format represents output format types.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONL    Format = "jsonl"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatJSONL, FormatYAML, FormatMarkdown, FormatHTML}
}

// Writer handles document serialization.
type Writer interface {
	// Write outputs a single document.
	Write(doc *quill.Document) error

	// WriteAll outputs multiple documents.
	WriteAll(docs []*quill.Document) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty     bool
	indent     string
	standalone bool
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithStandalone makes the HTML writer emit a complete page per document.
func WithStandalone(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.standalone = enabled
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatMarkdown:
		return NewMarkdownWriter(w), nil
	case FormatHTML:
		return NewHTMLWriter(w, cfg.standalone), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// buffer collects documents for writers that emit them all on Flush.
type buffer struct {
	docs []*quill.Document
}

func (b *buffer) Write(doc *quill.Document) error {
	b.docs = append(b.docs, doc)
	return nil
}

func (b *buffer) WriteAll(docs []*quill.Document) error {
	b.docs = append(b.docs, docs...)
	return nil
}

// single returns the lone buffered document, or the slice when there are
// several, so one document is written as an object rather than a list.
func (b *buffer) single() any {
	if len(b.docs) == 1 {
		return b.docs[0]
	}
	return b.docs
}
