package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/quill/pkg/quill"
)

// JSONWriter writes JSON output.
type JSONWriter struct {
	buffer
	w      *bufio.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
	}
}

// Flush writes the buffered documents, as an array when there are several.
// Nothing is written when the buffer is empty.
func (w *JSONWriter) Flush() error {
	if len(w.docs) == 0 {
		return w.w.Flush()
	}

	var out []byte
	var err error
	if w.pretty {
		out, err = json.MarshalIndent(w.single(), "", w.indent)
	} else {
		out, err = json.Marshal(w.single())
	}
	if err != nil {
		return err
	}
	w.docs = nil

	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes one JSON document per line as documents arrive.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes doc as a JSON line.
func (w *JSONLWriter) Write(doc *quill.Document) error {
	out, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes docs as JSON lines.
func (w *JSONLWriter) WriteAll(docs []*quill.Document) error {
	for _, doc := range docs {
		if err := w.Write(doc); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
