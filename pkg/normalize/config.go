// Package normalize turns raw generated text into clean, publishable markdown.
//
// The pipeline is a fixed sequence of heuristic passes: classification,
// title extraction, body isolation, boilerplate stripping, formatting and
// media substitution. Each pass has a defined fallback so ambiguous input
// never fails the document; problems are reported as warnings.
package normalize

import (
	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/quill/pkg/cleaner"
)

// Config defines all configuration options for the normalizer.
type Config struct {
	// === Classification ===

	// SubstantialLength is the rune count above which marker-free text is
	// treated as already normalized even without headings.
	SubstantialLength int `json:"substantial_length" yaml:"substantial_length" validate:"gte=0"`

	// ConvertHTMLInput converts raw input that is an HTML document to
	// markdown before classification.
	ConvertHTMLInput bool `json:"convert_html_input" yaml:"convert_html_input"`

	// HTML controls the markup cleanup run before HTML input is converted.
	HTML cleaner.HTMLConfig `json:"html" yaml:"html"`

	// HTMLBaseURL resolves relative link and image URLs in HTML input.
	HTMLBaseURL string `json:"html_base_url,omitempty" yaml:"html_base_url,omitempty" validate:"omitempty,http_url"`

	// HTMLStripLinks keeps only the text of links in HTML input.
	HTMLStripLinks bool `json:"html_strip_links" yaml:"html_strip_links"`

	// HTMLStripImages drops images from HTML input. Images are then only
	// placed from the document's media list.
	HTMLStripImages bool `json:"html_strip_images" yaml:"html_strip_images"`

	// === Title ===

	// MinTitleLength is the length a title candidate must exceed.
	MinTitleLength int `json:"min_title_length" yaml:"min_title_length" validate:"gte=0"`

	// === Body ===

	// DuplicateScanLines is how many leading body lines are checked for a
	// repeated title.
	DuplicateScanLines int `json:"duplicate_scan_lines" yaml:"duplicate_scan_lines" validate:"gte=0,lte=100"`

	// StripTitleLikeLines also removes short leading lines that look like a
	// title without matching the extracted one.
	StripTitleLikeLines bool `json:"strip_title_like_lines" yaml:"strip_title_like_lines"`

	// TitleLikeMinLength and TitleLikeMaxLength bound the title-like heuristic.
	TitleLikeMinLength int `json:"title_like_min_length" yaml:"title_like_min_length" validate:"gte=0"`
	TitleLikeMaxLength int `json:"title_like_max_length" yaml:"title_like_max_length" validate:"gtefield=TitleLikeMinLength"`

	// ContentFloor is the fraction of the metadata-stripped input the
	// isolated body must keep before ContentLossDetected is raised.
	ContentFloor float64 `json:"content_floor" yaml:"content_floor" validate:"gte=0,lte=1"`

	// MinFloorCheckLength skips the floor check for very short inputs,
	// where a removed title line alone exceeds the tolerance.
	MinFloorCheckLength int `json:"min_floor_check_length" yaml:"min_floor_check_length" validate:"gte=0"`

	// === Boilerplate ===

	// StripBoilerplate enables the tail-region stripper.
	StripBoilerplate bool `json:"strip_boilerplate" yaml:"strip_boilerplate"`

	// TailFraction is the share of the body, measured from the end, in which
	// boilerplate rules may act.
	TailFraction float64 `json:"tail_fraction" yaml:"tail_fraction" validate:"gt=0,lte=1"`

	// StopKeywords are section headers that end the article body.
	StopKeywords []string `json:"stop_keywords" yaml:"stop_keywords"`

	// StopKeywordTailLimit is the amount of text after a stop keyword above
	// which the keyword is treated as real content.
	StopKeywordTailLimit int `json:"stop_keyword_tail_limit" yaml:"stop_keyword_tail_limit" validate:"gte=0"`

	// StripKeyTakeaways removes a trailing Key Takeaways section.
	StripKeyTakeaways bool `json:"strip_key_takeaways" yaml:"strip_key_takeaways"`

	// PromoPhrases are canned marketing openers.
	PromoPhrases []string `json:"promo_phrases" yaml:"promo_phrases"`

	// PromoWindow is the size of the final region in which promotional
	// sentences are counted.
	PromoWindow int `json:"promo_window" yaml:"promo_window" validate:"gte=0"`

	// PromoMinCount is how many promotional sentences must appear in the
	// window before any are removed.
	PromoMinCount int `json:"promo_min_count" yaml:"promo_min_count" validate:"gte=1"`

	// === Formatting ===

	// StripBold removes bold markers outside FAQ question lines.
	StripBold bool `json:"strip_bold" yaml:"strip_bold"`

	// MergeBrokenParagraphs rejoins a sentence split across a blank line.
	MergeBrokenParagraphs bool `json:"merge_broken_paragraphs" yaml:"merge_broken_paragraphs"`

	// ProtectCode shields fenced code blocks from text passes.
	ProtectCode bool `json:"protect_code" yaml:"protect_code"`

	// ProtectTables shields literal HTML tables and raw media blocks.
	ProtectTables bool `json:"protect_tables" yaml:"protect_tables"`

	// === Output ===

	// ExcerptLength is the rune length of the excerpt before the ellipsis.
	ExcerptLength int `json:"excerpt_length" yaml:"excerpt_length" validate:"gte=1"`

	// Debug enables verbose logging of each pass.
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultConfig returns the configuration used for generated articles.
func DefaultConfig() *Config {
	return &Config{
		SubstantialLength: 1000,
		ConvertHTMLInput:  true,
		HTML:              cleaner.DefaultHTMLConfig(),

		MinTitleLength: 5,

		DuplicateScanLines:  10,
		StripTitleLikeLines: true,
		TitleLikeMinLength:  10,
		TitleLikeMaxLength:  150,
		ContentFloor:        0.8,
		MinFloorCheckLength: 200,

		StripBoilerplate: true,
		TailFraction:     0.2,
		StopKeywords: []string{
			"SEO Suggestions",
			"Image Suggestions",
			"Call-to-Action",
		},
		StopKeywordTailLimit: 200,
		StripKeyTakeaways:    true,
		PromoPhrases: []string{
			"Contact us today",
			"Call us today",
			"Get in touch",
			"Don't wait",
			"Ready to get started",
			"Reach out to us",
			"Visit our website",
			"Sign up today",
			"Book a free consultation",
			"Schedule a consultation",
			"Let our team",
		},
		PromoWindow:   500,
		PromoMinCount: 2,

		StripBold:             true,
		MergeBrokenParagraphs: true,
		ProtectCode:           true,
		ProtectTables:         true,

		ExcerptLength: 160,
	}
}

// PresetMinimal only classifies, extracts and fixes spacing. Nothing is
// removed from the body except duplicated titles.
func PresetMinimal() *Config {
	cfg := DefaultConfig()
	cfg.StripTitleLikeLines = false
	cfg.StripBoilerplate = false
	cfg.StripKeyTakeaways = false
	cfg.MergeBrokenParagraphs = false
	return cfg
}

// PresetAggressive widens the tail region and adds more stop keywords.
func PresetAggressive() *Config {
	cfg := DefaultConfig()
	cfg.TailFraction = 0.3
	cfg.StopKeywords = append(cfg.StopKeywords,
		"Meta Description",
		"Internal Linking Suggestions",
		"Social Media Posts",
	)
	cfg.PromoMinCount = 1
	return cfg
}

var validate = validator.New()

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Merge merges another config into this one.
// Non-zero values from other override this config, booleans are enabled
// when set in other, and keyword lists are appended without duplicates.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.SubstantialLength > 0 {
		merged.SubstantialLength = other.SubstantialLength
	}
	if other.ConvertHTMLInput {
		merged.ConvertHTMLInput = true
	}
	if other.HTMLBaseURL != "" {
		merged.HTMLBaseURL = other.HTMLBaseURL
	}
	if other.HTMLStripLinks {
		merged.HTMLStripLinks = true
	}
	if other.HTMLStripImages {
		merged.HTMLStripImages = true
	}
	if other.MinTitleLength > 0 {
		merged.MinTitleLength = other.MinTitleLength
	}
	if other.DuplicateScanLines > 0 {
		merged.DuplicateScanLines = other.DuplicateScanLines
	}
	if other.StripTitleLikeLines {
		merged.StripTitleLikeLines = true
	}
	if other.TitleLikeMinLength > 0 {
		merged.TitleLikeMinLength = other.TitleLikeMinLength
	}
	if other.TitleLikeMaxLength > 0 {
		merged.TitleLikeMaxLength = other.TitleLikeMaxLength
	}
	if other.ContentFloor > 0 {
		merged.ContentFloor = other.ContentFloor
	}
	if other.MinFloorCheckLength > 0 {
		merged.MinFloorCheckLength = other.MinFloorCheckLength
	}
	if other.StripBoilerplate {
		merged.StripBoilerplate = true
	}
	if other.TailFraction > 0 {
		merged.TailFraction = other.TailFraction
	}
	if other.StopKeywordTailLimit > 0 {
		merged.StopKeywordTailLimit = other.StopKeywordTailLimit
	}
	if other.StripKeyTakeaways {
		merged.StripKeyTakeaways = true
	}
	if other.PromoWindow > 0 {
		merged.PromoWindow = other.PromoWindow
	}
	if other.PromoMinCount > 0 {
		merged.PromoMinCount = other.PromoMinCount
	}
	if other.StripBold {
		merged.StripBold = true
	}
	if other.MergeBrokenParagraphs {
		merged.MergeBrokenParagraphs = true
	}
	if other.ProtectCode {
		merged.ProtectCode = true
	}
	if other.ProtectTables {
		merged.ProtectTables = true
	}
	if other.ExcerptLength > 0 {
		merged.ExcerptLength = other.ExcerptLength
	}
	if other.Debug {
		merged.Debug = true
	}

	merged.HTML.RemoveSelectors = appendUnique(c.HTML.RemoveSelectors, other.HTML.RemoveSelectors)
	merged.HTML.KeepSelectors = appendUnique(c.HTML.KeepSelectors, other.HTML.KeepSelectors)

	merged.StopKeywords = appendUnique(c.StopKeywords, other.StopKeywords)
	merged.PromoPhrases = appendUnique(c.PromoPhrases, other.PromoPhrases)

	return &merged
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if !seen[s] {
				out = append(out, s)
				seen[s] = true
			}
		}
	}
	return out
}
