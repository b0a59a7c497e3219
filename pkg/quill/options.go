package quill

import (
	"github.com/jmylchreest/quill/pkg/links"
	"github.com/jmylchreest/quill/pkg/llm"
	"github.com/jmylchreest/quill/pkg/normalize"
	"github.com/jmylchreest/quill/pkg/render"
)

// Config holds the pipeline configuration and its collaborators.
type Config struct {
	Normalize *normalize.Config `json:"normalize" yaml:"normalize"`
	Render    *render.Config    `json:"render" yaml:"render"`
	Links     *links.Config     `json:"links" yaml:"links"`

	// Sources supplies link candidates per kind. A kind without a source is
	// skipped.
	Sources map[links.Kind]links.Source `json:"-" yaml:"-"`

	// Store receives published documents. Unless Sources has an internal
	// source, the store is also the internal link source.
	Store Store `json:"-" yaml:"-"`

	// Generator writes raw text for Generate.
	Generator *llm.Generator `json:"-" yaml:"-"`
}

// DefaultConfig returns the default pipeline configuration with no
// collaborators.
func DefaultConfig() Config {
	return Config{
		Normalize: normalize.DefaultConfig(),
		Render:    render.DefaultConfig(),
		Links:     links.DefaultConfig(),
		Sources:   map[links.Kind]links.Source{},
	}
}

// Option configures a Pipeline.
type Option func(*Config)

// WithConfig replaces each stage configuration set in cfg. Unlike the
// merging options it can turn defaults off.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		if cfg.Normalize != nil {
			c.Normalize = cfg.Normalize
		}
		if cfg.Render != nil {
			c.Render = cfg.Render
		}
		if cfg.Links != nil {
			c.Links = cfg.Links
		}
	}
}

// WithNormalizeConfig merges cfg into the normalizer defaults.
func WithNormalizeConfig(cfg *normalize.Config) Option {
	return func(c *Config) {
		c.Normalize = c.Normalize.Merge(cfg)
	}
}

// WithRenderConfig replaces the renderer configuration.
func WithRenderConfig(cfg *render.Config) Option {
	return func(c *Config) {
		if cfg != nil {
			c.Render = cfg
		}
	}
}

// WithLinkConfig merges cfg into the link defaults.
func WithLinkConfig(cfg *links.Config) Option {
	return func(c *Config) {
		c.Links = c.Links.Merge(cfg)
	}
}

// WithLinkSource sets the candidate source for kind.
func WithLinkSource(kind links.Kind, src links.Source) Option {
	return func(c *Config) {
		c.Sources[kind] = src
	}
}

// WithStore sets the store that Publish writes to.
func WithStore(s Store) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithGenerator sets the text generator used by Generate.
func WithGenerator(g *llm.Generator) Option {
	return func(c *Config) {
		c.Generator = g
	}
}
