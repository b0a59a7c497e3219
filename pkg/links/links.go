// Package links inserts internal, external and promotional links into
// rendered HTML.
//
// Each Injector owns one kind of link. It asks a Source for candidates and
// links the first whole-word mention of each candidate's anchor text in
// paragraph or list text, at most one injected link per paragraph. Inserted
// anchors carry data-link="<kind>", so running an injector over its own
// output inserts nothing.
package links

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// Kind is the kind of link an injector inserts.
type Kind string

const (
	Internal    Kind = "internal"
	External    Kind = "external"
	Promotional Kind = "promotional"
)

// Kinds lists the link kinds in injection order.
func Kinds() []Kind {
	return []Kind{Internal, External, Promotional}
}

// Candidate is a link suggested by a Source.
type Candidate struct {
	AnchorText string `json:"anchor_text" yaml:"anchor_text" validate:"required"`
	URL        string `json:"url" yaml:"url" validate:"required,http_url"`
}

// Source returns up to n link candidates for a document title.
type Source interface {
	Candidates(ctx context.Context, title string, n int) ([]Candidate, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, title string, n int) ([]Candidate, error)

// Candidates calls f.
func (f SourceFunc) Candidates(ctx context.Context, title string, n int) ([]Candidate, error) {
	return f(ctx, title, n)
}

var (
	// ErrInjectorUnavailable means the candidate source failed, timed out or
	// its circuit breaker is open. No links were inserted.
	ErrInjectorUnavailable = errors.New("injector unavailable")

	// ErrUnknownKind is returned by NewInjector for an unsupported Kind.
	ErrUnknownKind = errors.New("unknown link kind")
)

// Budget tracks insertions of one kind against its maximum.
// Inserted never exceeds Max.
type Budget struct {
	Kind     Kind `json:"kind"`
	Max      int  `json:"max"`
	Inserted int  `json:"inserted"`
}

// Remaining returns how many more links may be inserted.
func (b Budget) Remaining() int {
	return max(b.Max-b.Inserted, 0)
}

// Report describes one injector run.
type Report struct {
	Budget
	// Existing is the number of anchors of this kind already present.
	Existing int `json:"existing"`
	// Candidates is the number of usable candidates the source returned.
	Candidates int `json:"candidates"`
	// Rejected is the number of candidates dropped as invalid, such as a
	// relative or non-http URL.
	Rejected int `json:"rejected"`
	// Err is set when the source could not be used. It wraps
	// ErrInjectorUnavailable.
	Err error `json:"-"`
}

// stopwords are ignored when comparing titles.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "how": true,
	"what": true, "why": true, "when": true, "your": true, "you": true,
	"are": true, "from": true, "this": true, "that": true, "into": true,
	"about": true, "our": true, "can": true, "its": true, "best": true,
}

// Tokens returns the distinct lowercase words of s that are at least three
// characters long and not stopwords.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Overlap counts the tokens a and b share.
func Overlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	n := 0
	for _, t := range b {
		if set[t] {
			n++
		}
	}
	return n
}
