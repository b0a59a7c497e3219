package output

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/jmylchreest/quill/pkg/quill"
)

// MarkdownWriter writes the normalized markdown of each document. Documents
// are separated by a thematic break.
type MarkdownWriter struct {
	w *bufio.Writer
	n int
}

// NewMarkdownWriter creates a markdown writer.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{w: bufio.NewWriter(w)}
}

// Write writes doc's markdown.
func (w *MarkdownWriter) Write(doc *quill.Document) error {
	if w.n > 0 {
		if _, err := w.w.WriteString("\n---\n\n"); err != nil {
			return err
		}
	}
	w.n++
	if _, err := w.w.WriteString(strings.TrimRight(doc.Markdown, "\n") + "\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes the markdown of every document.
func (w *MarkdownWriter) WriteAll(docs []*quill.Document) error {
	for _, doc := range docs {
		if err := w.Write(doc); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *MarkdownWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *MarkdownWriter) Close() error {
	return w.Flush()
}

// HTMLWriter writes the HTML body of each document. A standalone writer
// wraps each document in a complete page titled with the document title.
type HTMLWriter struct {
	w          *bufio.Writer
	standalone bool
}

// NewHTMLWriter creates an HTML writer.
func NewHTMLWriter(w io.Writer, standalone bool) *HTMLWriter {
	return &HTMLWriter{w: bufio.NewWriter(w), standalone: standalone}
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<meta name="description" content="%s">
</head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`

// Write writes doc's HTML.
func (w *HTMLWriter) Write(doc *quill.Document) error {
	var err error
	if w.standalone {
		title := html.EscapeString(doc.Title)
		_, err = fmt.Fprintf(w.w, pageTemplate, title, html.EscapeString(doc.Excerpt), title, doc.HTML)
	} else {
		_, err = w.w.WriteString(strings.TrimRight(doc.HTML, "\n") + "\n")
	}
	if err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes the HTML of every document.
func (w *HTMLWriter) WriteAll(docs []*quill.Document) error {
	for _, doc := range docs {
		if err := w.Write(doc); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *HTMLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *HTMLWriter) Close() error {
	return w.Flush()
}
