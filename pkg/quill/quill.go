// Package quill turns raw generated text into publish-ready documents.
//
// A Pipeline normalizes the text, renders it to HTML, injects internal,
// external and promotional links, and optionally publishes the result to a
// store.
package quill

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/links"
	"github.com/jmylchreest/quill/pkg/normalize"
	"github.com/jmylchreest/quill/pkg/render"
	"github.com/jmylchreest/quill/pkg/store"
)

var (
	// ErrNoStore is returned by Publish when the pipeline has no store.
	ErrNoStore = errors.New("no store configured")

	// ErrNoGenerator is returned by Generate when the pipeline has no
	// generator.
	ErrNoGenerator = errors.New("no generator configured")
)

// Version returns the module version of the quill library, or "(devel)"
// when built from source.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Store persists documents and serves internal link candidates.
type Store interface {
	links.Source
	Put(ctx context.Context, doc store.Document) (*store.Document, error)
}

// Document is a publish-ready document.
type Document struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string `json:"title" yaml:"title"`
	Slug     string `json:"slug" yaml:"slug"`
	Topic    string `json:"topic,omitempty" yaml:"topic,omitempty"`
	Excerpt  string `json:"excerpt" yaml:"excerpt"`
	HTML     string `json:"html" yaml:"html"`
	Markdown string `json:"markdown" yaml:"markdown"`

	// Links counts the injected links of each kind present in HTML.
	Links map[links.Kind]int `json:"links,omitempty" yaml:"links,omitempty"`

	Warnings []normalize.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Duration time.Duration `json:"-" yaml:"-"`
}

// Pipeline runs documents through every stage. It is safe for concurrent
// use.
type Pipeline struct {
	normalizer *normalize.Normalizer
	renderer   *render.Renderer
	injectors  []*links.Injector
	config     Config
}

// New creates a Pipeline.
func New(opts ...Option) (*Pipeline, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	n, err := normalize.New(cfg.Normalize)
	if err != nil {
		return nil, err
	}
	r, err := render.New(cfg.Render)
	if err != nil {
		return nil, err
	}
	if err := cfg.Links.Validate(); err != nil {
		return nil, fmt.Errorf("invalid links config: %w", err)
	}

	if _, ok := cfg.Sources[links.Internal]; !ok && cfg.Store != nil {
		cfg.Sources[links.Internal] = cfg.Store
	}

	p := &Pipeline{normalizer: n, renderer: r, config: cfg}
	for _, kind := range links.Kinds() {
		src, ok := cfg.Sources[kind]
		if !ok || src == nil {
			continue
		}
		inj, err := links.NewInjector(kind, src, cfg.Links)
		if err != nil {
			return nil, err
		}
		p.injectors = append(p.injectors, inj)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Process runs raw through normalization, rendering and link injection.
// Only a render failure is returned as an error; the returned document then
// carries the normalized markdown without HTML. Everything else degrades
// to warnings.
func (p *Pipeline) Process(ctx context.Context, raw normalize.RawDocument) (*Document, error) {
	start := time.Now()

	res := p.normalizer.Process(raw)
	doc := &Document{
		Title:    res.Title,
		Slug:     Slugify(res.Title),
		Topic:    raw.Topic,
		Excerpt:  res.Excerpt,
		Markdown: res.Markdown,
		Links:    map[links.Kind]int{},
		Warnings: res.Warnings,
	}

	rendered, err := p.renderer.Render(res.Markdown, res.Title)
	if err != nil {
		doc.Warnings = append(doc.Warnings, normalize.Warning{
			Kind:    normalize.RenderFailure,
			Phase:   "render",
			Message: "markdown could not be rendered",
			Context: err.Error(),
		})
		doc.Duration = time.Since(start)
		return doc, fmt.Errorf("render %q: %w", res.Title, err)
	}
	doc.HTML = rendered.HTML

	doc.HTML = p.injectLinks(ctx, doc)

	doc.Duration = time.Since(start)
	logger.DebugContext(ctx, "document processed",
		"title", doc.Title,
		"slug", doc.Slug,
		"warnings", len(doc.Warnings),
		"internal", doc.Links[links.Internal],
		"external", doc.Links[links.External],
		"promotional", doc.Links[links.Promotional],
		"duration", doc.Duration)
	return doc, nil
}

// injectLinks runs the injectors in order, each on the previous output,
// then strips bold from the injected anchors.
func (p *Pipeline) injectLinks(ctx context.Context, doc *Document) string {
	html := doc.HTML
	for _, inj := range p.injectors {
		kind := inj.Kind()
		out, rep := inj.InjectReport(ctx, html, doc.Title, p.config.Links.Max(kind))
		if rep.Err != nil {
			doc.Warnings = append(doc.Warnings, normalize.Warning{
				Kind:    normalize.InjectorUnavailable,
				Phase:   "links",
				Message: fmt.Sprintf("%s links skipped", kind),
				Context: rep.Err.Error(),
			})
		}
		doc.Links[kind] = rep.Existing + rep.Inserted
		html = out
	}

	if p.config.Links.StripBold && len(p.injectors) > 0 {
		out, _, err := links.StripBold(html)
		if err != nil {
			logger.WarnContext(ctx, "bold stripping failed", "title", doc.Title, "error", err)
		} else {
			html = out
		}
	}
	return html
}

// Publish processes raw and stores the document. The stored ID is set on
// the returned document.
func (p *Pipeline) Publish(ctx context.Context, raw normalize.RawDocument) (*Document, error) {
	if p.config.Store == nil {
		return nil, ErrNoStore
	}
	doc, err := p.Process(ctx, raw)
	if err != nil {
		return doc, err
	}
	return doc, p.Save(ctx, doc)
}

// Save stores an already processed document and sets its ID.
func (p *Pipeline) Save(ctx context.Context, doc *Document) error {
	if p.config.Store == nil {
		return ErrNoStore
	}
	if doc.ID == "" && isGenericSlug(doc.Slug) {
		doc.ID = uuid.NewString()
		doc.Slug = doc.Slug + "-" + doc.ID[:8]
	}
	stored, err := p.config.Store.Put(ctx, store.Document{
		ID:       doc.ID,
		Slug:     doc.Slug,
		Title:    doc.Title,
		Topic:    doc.Topic,
		Excerpt:  doc.Excerpt,
		Markdown: doc.Markdown,
		HTML:     doc.HTML,
	})
	if err != nil {
		return fmt.Errorf("publish %q: %w", doc.Slug, err)
	}
	doc.ID = stored.ID

	logger.InfoContext(ctx, "document published", "id", doc.ID, "slug", doc.Slug, "title", doc.Title)
	return nil
}

// Generate asks the generator for text about topic and processes it with
// images.
func (p *Pipeline) Generate(ctx context.Context, topic string, images []normalize.Image) (*Document, error) {
	if p.config.Generator == nil {
		return nil, ErrNoGenerator
	}
	raw, err := p.config.Generator.Generate(ctx, topic)
	if err != nil {
		return nil, err
	}
	raw.Images = images
	return p.Process(ctx, raw)
}

// BatchResult is the outcome for one document of ProcessMany.
type BatchResult struct {
	Index    int
	Document *Document
	Err      error
}

// ProcessMany processes docs with at most concurrency documents in flight.
// Results are in input order. A failed document does not stop the others.
// With publish set, each document is also stored.
func (p *Pipeline) ProcessMany(ctx context.Context, docs []normalize.RawDocument, concurrency int, publish bool) []BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(docs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, raw := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Index: i, Err: err}
				return nil
			}
			var doc *Document
			var err error
			if publish {
				doc, err = p.Publish(ctx, raw)
			} else {
				doc, err = p.Process(ctx, raw)
			}
			if err != nil {
				logger.WarnContext(ctx, "document failed", "index", i, "topic", raw.Topic, "error", err)
			}
			results[i] = BatchResult{Index: i, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
