package normalize

import (
	"regexp"
)

// Classification describes how the raw input was structured.
type Classification struct {
	IsLegacy            bool `json:"is_legacy"`
	HasMultipleHeadings bool `json:"has_multiple_headings"`
	IsSubstantial       bool `json:"is_substantial"`

	LegacyMarkers int `json:"legacy_markers"`
	Headings      int `json:"headings"`
}

var (
	// legacyMarkerRe matches bold label lines such as "1. **Title**",
	// "**Meta Description:**" or the escaped "\*\*Content\*\*".
	legacyMarkerRe = regexp.MustCompile(`(?im)^[ \t]*(?:\d+[.)][ \t]*)?(?:\\?\*){2}[ \t]*(?:title|meta[ \t]+description|content|article[ \t]+content|main[ \t]+content|full[ \t]+article|slug|url[ \t]+slug|keywords?|focus[ \t]+keywords?|tags|categor(?:y|ies)|excerpt|seo[ \t]+title)[ \t]*:?[ \t]*(?:\\?\*){2}`)

	headingCountRe = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+\S`)
)

// Classify inspects text for legacy label markers, heading lines and length.
//
// Marker-free text with at least one heading, or longer than
// SubstantialLength, is treated as already normalized. Everything else is
// legacy. The normalized branch is checked first: misclassifying clean text
// as legacy sends it through extraction, which is destructive.
//
// Callers should pass tokenized text so that code samples are not counted.
func Classify(text string, cfg *Config) Classification {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := Classification{
		LegacyMarkers: len(legacyMarkerRe.FindAllStringIndex(text, -1)),
		Headings:      len(headingCountRe.FindAllStringIndex(text, -1)),
	}
	c.HasMultipleHeadings = c.Headings > 1
	c.IsSubstantial = runeLen(text) > cfg.SubstantialLength

	c.IsLegacy = !(c.LegacyMarkers == 0 && (c.Headings > 0 || c.IsSubstantial))
	return c
}
