package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	buffer
	w *bufio.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: bufio.NewWriter(w)}
}

// Flush writes the buffered documents, as a list when there are several.
func (w *YAMLWriter) Flush() error {
	if len(w.docs) == 0 {
		return w.w.Flush()
	}

	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(w.single()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	w.docs = nil
	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
