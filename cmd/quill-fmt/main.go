// quill-fmt normalizes a single document and prints it as markdown or HTML.
// It runs no link injection and needs no store or provider.
//
// Usage:
//
//	quill-fmt [options] <file>
//
// Examples:
//
//	# Normalize a file and show stats
//	quill-fmt post.txt
//
//	# Render to HTML with the minimal preset
//	quill-fmt -preset minimal -format html post.txt
//
//	# Place images at [IMAGE_PLACEMENT:"..."] markers
//	quill-fmt -image https://img.example.com/loaf.jpg post.txt
//
//	# Compare presets
//	quill-fmt -compare post.txt
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmylchreest/quill/pkg/normalize"
	"github.com/jmylchreest/quill/pkg/render"
)

var (
	// Input options
	topic  = flag.String("topic", "", "Topic used when no title is found")
	images = flag.String("image", "", "Comma-separated image URLs for placement markers")

	// Config options
	preset       = flag.String("preset", "", "Use preset: minimal, aggressive")
	stopKeywords = flag.String("stop", "", "Comma-separated extra stop keywords")
	outputFormat = flag.String("format", "markdown", "Output format: markdown, html, body, excerpt")
	plain        = flag.Bool("plain", false, "Render HTML without inline styles or title removal")
	baseURL      = flag.String("base-url", "", "Resolve relative URLs in HTML input against this URL")
	noLinks      = flag.Bool("strip-links", false, "Keep only link text from HTML input")
	noImages     = flag.Bool("strip-images", false, "Drop images from HTML input")

	// Output options
	outputFile = flag.String("o", "", "Write output to file")
	statsOnly  = flag.Bool("stats-only", false, "Only show stats, don't output content")
	jsonStats  = flag.Bool("json", false, "Output stats as JSON")
	verbose    = flag.Bool("v", false, "Verbose output (show warnings)")
	quiet      = flag.Bool("q", false, "Quiet mode (no stats, only content)")

	// Compare mode
	compare = flag.Bool("compare", false, "Compare different presets")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "quill-fmt - Normalize and render a single document\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quill-fmt [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill-fmt post.txt\n")
		fmt.Fprintf(os.Stderr, "  quill-fmt -preset minimal -format html post.txt\n")
		fmt.Fprintf(os.Stderr, "  cat post.txt | quill-fmt -q -format excerpt\n")
		fmt.Fprintf(os.Stderr, "  quill-fmt -compare post.txt\n")
	}

	flag.Parse()

	text, source, err := readInput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintf(os.Stderr, "Error: empty input\n")
		os.Exit(1)
	}

	doc := normalize.RawDocument{Text: text, Topic: *topic, Images: parseImages(*images)}

	if *compare {
		if err := runComparison(doc, source); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	n, err := normalize.New(buildConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	result := n.Process(doc)

	content := result.Markdown
	var renderStats *render.Stats
	switch *outputFormat {
	case "html":
		cfg := render.DefaultConfig()
		if *plain {
			cfg = render.PresetPlain()
		}
		r, err := render.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out, err := r.Render(result.Markdown, result.Title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		content = out.HTML
		renderStats = out.Stats
	case "body":
		content = result.Body
	case "excerpt":
		content = result.Excerpt
	}

	if !*quiet {
		if *jsonStats {
			outputJSONStats(result, renderStats, source)
		} else {
			outputTextStats(result, renderStats, source)
		}
	}

	if *verbose && result.HasWarnings() {
		fmt.Fprintf(os.Stderr, "\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "  %s\n", w.String())
		}
	}

	if *statsOnly {
		return
	}
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(content+"\n"), 0o644); err != nil { //#nosec G306 -- output is a public document
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "\nWritten to %s\n", *outputFile)
		}
	} else if !*quiet {
		fmt.Println("\n--- Title: " + result.Title + " ---")
		fmt.Println(content)
	} else {
		fmt.Println(content)
	}
}

func readInput() (string, string, error) {
	if flag.NArg() == 0 || flag.Arg(0) == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	path := flag.Arg(0)
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified file
	if err != nil {
		return "", "", fmt.Errorf("reading file %s: %w", path, err)
	}
	return string(data), path, nil
}

func buildConfig() *normalize.Config {
	var cfg *normalize.Config
	switch *preset {
	case "minimal":
		cfg = normalize.PresetMinimal()
	case "aggressive":
		cfg = normalize.PresetAggressive()
	default:
		cfg = normalize.DefaultConfig()
	}

	if *stopKeywords != "" {
		cfg.StopKeywords = append(cfg.StopKeywords, splitList(*stopKeywords)...)
	}
	cfg.HTMLBaseURL = *baseURL
	cfg.HTMLStripLinks = *noLinks
	cfg.HTMLStripImages = *noImages
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseImages(s string) []normalize.Image {
	var out []normalize.Image
	for _, url := range splitList(s) {
		out = append(out, normalize.Image{URL: url})
	}
	return out
}

func outputTextStats(result *normalize.Result, rs *render.Stats, source string) {
	fmt.Fprintf(os.Stderr, "\n=== Normalizer Stats ===\n")
	fmt.Fprintf(os.Stderr, "Source: %s\n", source)
	fmt.Fprintf(os.Stderr, "Legacy: %v\n", result.Classification.IsLegacy)
	fmt.Fprintf(os.Stderr, "%s", result.Stats.String())
	if rs != nil {
		fmt.Fprintf(os.Stderr, "\n=== Renderer Stats ===\n")
		fmt.Fprintf(os.Stderr, "%s", rs.String())
	}
}

func outputJSONStats(result *normalize.Result, rs *render.Stats, source string) {
	stats := struct {
		Source   string              `json:"source"`
		Title    string              `json:"title"`
		Legacy   bool                `json:"legacy"`
		Stats    *normalize.Stats    `json:"stats"`
		Render   *render.Stats       `json:"render,omitempty"`
		Warnings []normalize.Warning `json:"warnings,omitempty"`
	}{
		Source:   source,
		Title:    result.Title,
		Legacy:   result.Classification.IsLegacy,
		Stats:    result.Stats,
		Render:   rs,
		Warnings: result.Warnings,
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)
}

func runComparison(doc normalize.RawDocument, source string) error {
	presets := []struct {
		name string
		cfg  *normalize.Config
	}{
		{"default", normalize.DefaultConfig()},
		{"minimal", normalize.PresetMinimal()},
		{"aggressive", normalize.PresetAggressive()},
	}

	fmt.Printf("\n=== Preset Comparison for %s ===\n", source)
	fmt.Printf("Input size: %d bytes\n\n", len(doc.Text))
	fmt.Printf("%-12s %10s %9s %9s %8s %10s\n", "Preset", "Output", "Retained", "Removed", "Warn", "Time")
	fmt.Printf("%-12s %10s %9s %9s %8s %10s\n", "------", "------", "--------", "-------", "----", "----")

	for _, p := range presets {
		n, err := normalize.New(p.cfg)
		if err != nil {
			return err
		}
		result := n.Process(doc)
		s := result.Stats
		removed := s.StopKeywordTruncations + s.KeyTakeawaysRemoved + s.PromoSentencesRemoved +
			s.MetadataLinesRemoved + s.DuplicateLinesRemoved

		fmt.Printf("%-12s %10d %8.0f%% %9d %8d %10v\n",
			p.name,
			s.OutputBytes,
			s.BodyRetention*100,
			removed,
			len(result.Warnings),
			s.TotalDuration.Round(time.Microsecond))
	}

	fmt.Println()
	return nil
}
