// Package render converts normalized markdown to publishable HTML.
//
// Conversion is done with goldmark. The output is then parsed with goquery
// and repaired: image and table markup that survived as literal text is
// rebuilt, malformed images are dropped and inline styles are applied.
// Protected spans such as embeds pass through untouched.
package render

import (
	"maps"

	"github.com/go-playground/validator/v10"
)

// Config defines all configuration options for the renderer.
type Config struct {
	// === Conversion ===

	// Unsafe passes raw HTML in the markdown through to the output. Without
	// it goldmark omits raw HTML, embeds included.
	Unsafe bool `json:"unsafe" yaml:"unsafe"`

	// Tables enables GFM pipe tables.
	Tables bool `json:"tables" yaml:"tables"`

	// Strikethrough enables GFM ~~strikethrough~~.
	Strikethrough bool `json:"strikethrough" yaml:"strikethrough"`

	// === Repair ===

	// FixImages rewrites literal ![alt](url) text into <img> elements.
	FixImages bool `json:"fix_images" yaml:"fix_images"`

	// DropMalformedImages removes images with truncated or invalid URLs,
	// both as <img> elements and as literal markdown.
	DropMalformedImages bool `json:"drop_malformed_images" yaml:"drop_malformed_images"`

	// FixTables rebuilds pipe tables left as literal paragraph text.
	FixTables bool `json:"fix_tables" yaml:"fix_tables"`

	// DropTitleHeading removes a leading <h1> equal to the document title.
	DropTitleHeading bool `json:"drop_title_heading" yaml:"drop_title_heading"`

	// === Output ===

	// InlineStyles applies Styles to matching elements without a style
	// attribute.
	InlineStyles bool `json:"inline_styles" yaml:"inline_styles"`

	// Styles maps a tag name to its inline style.
	Styles map[string]string `json:"styles,omitempty" yaml:"styles,omitempty" validate:"dive,keys,oneof=table thead tbody tr th td h1 h2 h3 h4 h5 h6 p ul ol li img blockquote figure,endkeys,required"`

	// RemoveBlankLines drops blank lines between block elements. Content of
	// <pre> is left alone.
	RemoveBlankLines bool `json:"remove_blank_lines" yaml:"remove_blank_lines"`

	// Debug enables logging of each repair pass.
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultStyles returns the inline styles used for tables and headings.
func DefaultStyles() map[string]string {
	return map[string]string{
		"table": "border-collapse: collapse; width: 100%; margin: 1em 0;",
		"th":    "border: 1px solid #ddd; padding: 8px; text-align: left; font-weight: bold;",
		"td":    "border: 1px solid #ddd; padding: 8px;",
		"h2":    "margin-top: 1.5em; margin-bottom: 0.5em; font-weight: bold;",
		"h3":    "margin-top: 1.2em; margin-bottom: 0.4em; font-weight: bold;",
		"h4":    "margin-top: 1em; margin-bottom: 0.3em; font-weight: bold;",
	}
}

// DefaultConfig returns the configuration used for publishing.
func DefaultConfig() *Config {
	return &Config{
		Unsafe:              true,
		Tables:              true,
		Strikethrough:       true,
		FixImages:           true,
		DropMalformedImages: true,
		FixTables:           true,
		DropTitleHeading:    true,
		InlineStyles:        true,
		Styles:              DefaultStyles(),
		RemoveBlankLines:    true,
	}
}

// PresetPlain converts without styling or title removal.
func PresetPlain() *Config {
	cfg := DefaultConfig()
	cfg.InlineStyles = false
	cfg.Styles = nil
	cfg.DropTitleHeading = false
	return cfg
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Merge merges another config into this one.
// Booleans are enabled when set in other and styles from other replace
// styles for the same tag.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.Unsafe {
		merged.Unsafe = true
	}
	if other.Tables {
		merged.Tables = true
	}
	if other.Strikethrough {
		merged.Strikethrough = true
	}
	if other.FixImages {
		merged.FixImages = true
	}
	if other.DropMalformedImages {
		merged.DropMalformedImages = true
	}
	if other.FixTables {
		merged.FixTables = true
	}
	if other.DropTitleHeading {
		merged.DropTitleHeading = true
	}
	if other.InlineStyles {
		merged.InlineStyles = true
	}
	if other.RemoveBlankLines {
		merged.RemoveBlankLines = true
	}
	if other.Debug {
		merged.Debug = true
	}

	if len(other.Styles) > 0 {
		merged.Styles = make(map[string]string, len(c.Styles)+len(other.Styles))
		maps.Copy(merged.Styles, c.Styles)
		maps.Copy(merged.Styles, other.Styles)
	}

	return &merged
}
