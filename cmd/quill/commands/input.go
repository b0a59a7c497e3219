package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/quill/pkg/normalize"
)

var errInputTooLarge = errors.New("input exceeds max size")

// parseSize parses a human readable size. Empty or "0" means unlimited.
func parseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}

// readLimited reads r, failing when it holds more than max bytes.
func readLimited(r io.Reader, name string, max uint64) ([]byte, error) {
	if max == 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > max {
		return nil, fmt.Errorf("%s: %w (%s)", name, errInputTooLarge, humanize.Bytes(max))
	}
	return data, nil
}

// inputOptions controls how input files become raw documents.
type inputOptions struct {
	MaxSize uint64
	Topic   string
	Images  []normalize.Image
}

// readInputs loads raw documents from paths. No paths, or "-", reads stdin.
// YAML and JSON files hold one document or a list of them; any other file
// is the text of a single document. The topic and images options fill in
// documents that have none.
func readInputs(paths []string, stdin io.Reader, opts inputOptions) ([]normalize.RawDocument, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	var docs []normalize.RawDocument
	for _, path := range paths {
		var data []byte
		var err error
		if path == "-" {
			data, err = readLimited(stdin, "stdin", opts.MaxSize)
		} else {
			data, err = readFile(path, opts.MaxSize)
		}
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			batch, err := decodeDocuments(data)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			docs = append(docs, batch...)
		default:
			docs = append(docs, normalize.RawDocument{Text: string(data)})
		}
	}

	for i := range docs {
		if docs[i].Topic == "" {
			docs[i].Topic = opts.Topic
		}
		if len(docs[i].Images) == 0 {
			docs[i].Images = opts.Images
		}
	}
	return docs, nil
}

func readFile(path string, max uint64) ([]byte, error) {
	f, err := os.Open(path) //#nosec G304 -- CLI tool reads user-specified input
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readLimited(f, path, max)
}

// decodeDocuments decodes a list of documents or a single one. JSON is
// valid YAML, so one decoder serves both.
func decodeDocuments(data []byte) ([]normalize.RawDocument, error) {
	var list []normalize.RawDocument
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one normalize.RawDocument
	if err := yaml.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []normalize.RawDocument{one}, nil
}

// parseImages turns --image values into images. A value may carry alt
// text after a "|".
func parseImages(values []string) []normalize.Image {
	images := make([]normalize.Image, 0, len(values))
	for _, v := range values {
		url, alt, _ := strings.Cut(v, "|")
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		images = append(images, normalize.Image{URL: url, Alt: strings.TrimSpace(alt)})
	}
	return images
}
