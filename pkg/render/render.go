package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/cleaner"
	"github.com/jmylchreest/quill/pkg/protect"
)

// Renderer converts markdown to HTML. It holds no per-document state and is
// safe for concurrent use.
type Renderer struct {
	config    *Config
	md        goldmark.Markdown
	tokenizer *protect.Tokenizer
}

var _ cleaner.Cleaner = (*Renderer)(nil)

// New creates a Renderer. A nil config uses DefaultConfig.
func New(cfg *Config) (*Renderer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render config: %w", err)
	}

	var exts []goldmark.Extender
	if cfg.Tables {
		exts = append(exts, extension.Table)
	}
	if cfg.Strikethrough {
		exts = append(exts, extension.Strikethrough)
	}
	var ropts []renderer.Option
	if cfg.Unsafe {
		ropts = append(ropts, gmhtml.WithUnsafe())
	}

	return &Renderer{
		config: cfg,
		md: goldmark.New(
			goldmark.WithExtensions(exts...),
			goldmark.WithRendererOptions(ropts...),
		),
		tokenizer: protect.New(
			protect.ObjectRule,
			protect.IframeRule,
			protect.EmbedRule,
			protect.TableBlockRule,
			protect.HTMLBlockRule,
		),
	}, nil
}

// Config returns the renderer configuration.
func (r *Renderer) Config() *Config {
	return r.config
}

// Name returns the cleaner type.
func (r *Renderer) Name() string {
	return "render"
}

// Clean renders markdown with no title.
func (r *Renderer) Clean(markdown string) (string, error) {
	res, err := r.Render(markdown, "")
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// Render converts markdown to repaired HTML. title is used to drop a
// leading heading that repeats it. Any error wraps ErrRenderFailure.
func (r *Renderer) Render(markdown, title string) (*Result, error) {
	start := time.Now()
	stats := NewStats()
	stats.InputBytes = len(markdown)

	src := markdown
	var spans []protect.Span
	if r.config.Unsafe {
		src, spans = r.tokenizer.Tokenize(markdown)
		src = shield(src, spans)
	}
	stats.ProtectedSpans = len(spans)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("%w: markdown conversion: %w", ErrRenderFailure, err)
	}
	stats.ConvertDuration = time.Since(start)

	repairStart := time.Now()
	out, err := r.repair(buf.String(), title, stats)
	if err != nil {
		return nil, err
	}
	if r.config.RemoveBlankLines {
		out = removeBlankLines(out)
	}
	stats.RepairDuration = time.Since(repairStart)

	out, err = unshield(out, spans)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	out = strings.TrimSpace(out)

	stats.OutputBytes = len(out)
	stats.TotalDuration = time.Since(start)

	if r.config.Debug {
		logger.Debug("render complete",
			"protected_spans", stats.ProtectedSpans,
			"images_repaired", stats.ImagesRepaired,
			"images_dropped", stats.ImagesDropped,
			"tables_repaired", stats.TablesRepaired,
			"styled", stats.ElementsStyled,
			"duration", stats.TotalDuration)
	}

	return &Result{HTML: out, Stats: stats}, nil
}

// shield wraps placeholders in HTML comments. goldmark passes comments
// through, while a bare __PLACEHOLDER__ would be read as strong emphasis.
func shield(src string, spans []protect.Span) string {
	for _, s := range spans {
		src = strings.Replace(src, s.Placeholder, "<!--"+s.Placeholder+"-->", 1)
	}
	return src
}

// unshield puts the protected originals back. A placeholder that ended up
// inside code was escaped by goldmark, so its original is escaped too.
func unshield(out string, spans []protect.Span) (string, error) {
	var live []protect.Span
	for _, s := range spans {
		escaped := "&lt;!--" + s.Placeholder + "--&gt;"
		if strings.Contains(out, escaped) {
			out = strings.Replace(out, escaped, html.EscapeString(s.Original), 1)
			continue
		}
		out = strings.Replace(out, "<!--"+s.Placeholder+"-->", s.Placeholder, 1)
		live = append(live, s)
	}
	return protect.RestoreStrict(out, live)
}

var (
	preRule = protect.Rule{Name: "pre", Pattern: regexp.MustCompile(`(?is)<pre\b.*?</pre\s*>`)}

	blankBetweenTagsRe = regexp.MustCompile(`>[ \t]*\n(?:[ \t]*\n)+[ \t]*<`)
)

// removeBlankLines drops blank lines between tags outside <pre>.
func removeBlankLines(s string) string {
	tokenized, spans := protect.New(preRule).Tokenize(s)
	tokenized = blankBetweenTagsRe.ReplaceAllString(tokenized, ">\n<")
	return protect.Restore(tokenized, spans)
}
