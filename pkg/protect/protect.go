// Package protect shields blocks of a document from bulk text rewriting.
//
// Tokenize pulls every matching block out of a document and replaces it with a
// placeholder token. Restore puts the original bytes back. Any stage that runs
// regular expressions over a whole document should run them over tokenized
// text so that embeds, code and tables come through byte-for-byte.
package protect

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultPrefix is the placeholder prefix used when the input does not
// already contain it.
const DefaultPrefix = "__PROTECTED_"

var (
	// ErrPlaceholderMissing is returned by RestoreStrict when a placeholder
	// is not present in the text.
	ErrPlaceholderMissing = errors.New("placeholder missing")
	// ErrPlaceholderDuplicated is returned by RestoreStrict when a placeholder
	// occurs more than once.
	ErrPlaceholderDuplicated = errors.New("placeholder duplicated")
)

// Rule names a class of block to protect.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Span is one protected block.
type Span struct {
	Placeholder string `json:"placeholder"`
	Original    string `json:"original"`
	Rule        string `json:"rule"`
}

// Built-in rules.
var (
	IframeRule = Rule{Name: "iframe", Pattern: regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>|<iframe\b[^>]*/>`)}
	EmbedRule  = Rule{Name: "embed", Pattern: regexp.MustCompile(`(?is)<embed\b[^>]*>(?:.*?</embed\s*>)?`)}
	ObjectRule = Rule{Name: "object", Pattern: regexp.MustCompile(`(?is)<object\b[^>]*>.*?</object\s*>`)}

	// FencedCodeRule protects ``` and ~~~ fenced blocks, fences included.
	FencedCodeRule = Rule{Name: "fenced-code", Pattern: regexp.MustCompile("(?ms)^(```|~~~)[^\n]*\n.*?^(```|~~~)[ \t]*$")}

	// TableBlockRule protects literal HTML tables.
	TableBlockRule = Rule{Name: "table", Pattern: regexp.MustCompile(`(?is)<table\b[^>]*>.*?</table\s*>`)}

	// HTMLBlockRule protects raw block-level HTML that must survive untouched.
	HTMLBlockRule = Rule{Name: "html-block", Pattern: regexp.MustCompile(`(?is)<(video|audio|figure|blockquote\s+class="[^"]*(?:twitter|instagram|tiktok)[^"]*")\b[^>]*>.*?</(?:video|audio|figure|blockquote)\s*>`)}
)

// EmbedRules are the rules applied by default: objects, iframes and embeds.
// Containers come first; an earlier rule wins when matches overlap.
func EmbedRules() []Rule {
	return []Rule{ObjectRule, IframeRule, EmbedRule}
}

// AllRules returns every built-in rule. Code fences come first so that HTML
// inside code samples is never matched as a live embed.
func AllRules() []Rule {
	return []Rule{FencedCodeRule, TableBlockRule, HTMLBlockRule, ObjectRule, IframeRule, EmbedRule}
}

// Tokenizer protects blocks matched by its rules.
type Tokenizer struct {
	rules []Rule
}

// New creates a Tokenizer. With no rules it uses EmbedRules.
func New(rules ...Rule) *Tokenizer {
	if len(rules) == 0 {
		rules = EmbedRules()
	}
	return &Tokenizer{rules: rules}
}

// Tokenize protects embeds using the default rules.
func Tokenize(text string) (string, []Span) {
	return New().Tokenize(text)
}

// Restore replaces every placeholder in text with its original content.
func Restore(text string, spans []Span) string {
	for _, s := range spans {
		text = strings.Replace(text, s.Placeholder, s.Original, 1)
	}
	return text
}

// RestoreStrict is Restore but fails if any placeholder is not present
// exactly once. The text is returned restored as far as possible.
func RestoreStrict(text string, spans []Span) (string, error) {
	var errs []error
	for _, s := range spans {
		switch n := strings.Count(text, s.Placeholder); {
		case n == 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrPlaceholderMissing, s.Placeholder))
		case n > 1:
			errs = append(errs, fmt.Errorf("%w: %s (%d times)", ErrPlaceholderDuplicated, s.Placeholder, n))
		}
	}
	return Restore(text, spans), errors.Join(errs...)
}

// Tokenize replaces all blocks matched by the tokenizer's rules with
// placeholders, in left-to-right order. Empty matches are ignored.
func (t *Tokenizer) Tokenize(text string) (string, []Span) {
	var matches []match
	for _, r := range t.rules {
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			if loc[1] <= loc[0] || strings.TrimSpace(text[loc[0]:loc[1]]) == "" {
				continue
			}
			if overlaps(matches, loc[0], loc[1]) {
				continue
			}
			matches = append(matches, match{loc[0], loc[1], r.Name})
		}
	}
	if len(matches) == 0 {
		return text, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	prefix := choosePrefix(text)
	var sb strings.Builder
	spans := make([]Span, 0, len(matches))
	last := 0
	for i, m := range matches {
		ph := prefix + strconv.Itoa(i) + "__"
		sb.WriteString(text[last:m.start])
		sb.WriteString(ph)
		spans = append(spans, Span{Placeholder: ph, Original: text[m.start:m.end], Rule: m.rule})
		last = m.end
	}
	sb.WriteString(text[last:])
	return sb.String(), spans
}

// choosePrefix returns DefaultPrefix unless the text already contains it, in
// which case a salted prefix that does not occur in the text is used.
func choosePrefix(text string) string {
	if !strings.Contains(text, DefaultPrefix) {
		return DefaultPrefix
	}
	for salt := 0; ; salt++ {
		p := "__PROTECTED" + strconv.Itoa(salt) + "X_"
		if !strings.Contains(text, p) {
			return p
		}
	}
}

type match struct {
	start, end int
	rule       string
}

// overlaps reports whether [start, end) intersects an already accepted match.
// Earlier rules win.
func overlaps(matches []match, start, end int) bool {
	for _, m := range matches {
		if start < m.end && m.start < end {
			return true
		}
	}
	return false
}
