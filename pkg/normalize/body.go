package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	markerNumber = iota + 1
	markerBoldOpen
	markerLabel
	markerColon
	markerBoldClose
	markerColonAfter
	markerRest
)

var (
	contentMarkerRe = regexp.MustCompile(`(?i)^[ \t]*(\d+[.)][ \t]*)?((?:\\?\*){2})?[ \t]*(main[ \t]+content|article[ \t]+content|full[ \t]+article|content|article|body)[ \t]*(:)?[ \t]*((?:\\?\*){2})?[ \t]*(:)?[ \t]*(.*)$`)

	metadataLabelRe = regexp.MustCompile(`(?i)^[ \t]*(\d+[.)][ \t]*)?((?:\\?\*){2})?[ \t]*(seo[ \t]+title|title|meta[ \t]+description|url[ \t]+slug|slug|focus[ \t]+keywords?|keywords?|tags|categor(?:y|ies)|excerpt|image[ \t]+alt[ \t]+text)[ \t]*(:)?[ \t]*((?:\\?\*){2})?[ \t]*(:)?[ \t]*(.*)$`)
)

// BodyResult is the output of IsolateBody.
type BodyResult struct {
	Body string

	// Reference is the input with metadata sections and the content marker
	// removed. The content floor is measured against it.
	Reference string

	UsedMarker        bool
	Fallback          bool
	MetadataRemoved   int
	DuplicatesRemoved int
}

// Retention is the body length as a fraction of the reference length.
func (b BodyResult) Retention() float64 {
	ref := runeLen(strings.TrimSpace(b.Reference))
	if ref == 0 {
		return 1
	}
	return float64(runeLen(strings.TrimSpace(b.Body))) / float64(ref)
}

// IsolateBody slices the article body out of legacy lines.
//
// Everything after the content marker is the body; without a marker the
// whole input is. Metadata label sections are removed in both cases, and
// leading lines that repeat the title are dropped. The body is never empty
// when the input has text.
func IsolateBody(lines []string, title string, cfg *Config) BodyResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var res BodyResult
	marker := findContentMarker(lines)

	withoutMarker := lines
	candidate := lines
	if marker >= 0 {
		res.UsedMarker = true
		rest := contentAfterMarker(lines[marker])
		candidate = make([]string, 0, len(lines)-marker)
		if rest != "" {
			candidate = append(candidate, rest)
		}
		candidate = append(candidate, lines[marker+1:]...)
		withoutMarker = dropLines(lines, []int{marker})
	}

	reference, _ := stripMetadataSections(withoutMarker)
	res.Reference = strings.TrimSpace(joinLines(reference))

	stripped, removed := stripMetadataSections(candidate)
	if isBlank(stripped) {
		stripped = candidate
		removed = 0
	}
	res.MetadataRemoved = removed

	body, dups := removeLeadingTitles(stripped, title, cfg)
	res.DuplicatesRemoved = dups
	res.Body = strings.TrimSpace(joinLines(body))

	if res.Body == "" {
		res.Fallback = true
		res.Body = res.Reference
		if res.Body == "" {
			res.Body = strings.TrimSpace(joinLines(withoutMarker))
		}
	}
	return res
}

// findContentMarker returns the index of the first content marker line, or -1.
func findContentMarker(lines []string) int {
	for i, line := range lines {
		if m := contentMarkerRe.FindStringSubmatch(line); m != nil && isLabelLine(m) {
			return i
		}
	}
	return -1
}

func contentAfterMarker(line string) string {
	m := contentMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[markerRest])
}

// isLabelLine decides whether a marker regex match is a label rather than
// prose that happens to start with the label word. Labels are bold, end in a
// colon, or are a numbered item with nothing after the word.
func isLabelLine(m []string) bool {
	bold := m[markerBoldOpen] != "" && m[markerBoldClose] != ""
	colon := m[markerColon] != "" || m[markerColonAfter] != ""
	if bold || colon {
		return true
	}
	return m[markerNumber] != "" && strings.TrimSpace(m[markerRest]) == ""
}

func isMetadataLabel(line string) (bool, string) {
	m := metadataLabelRe.FindStringSubmatch(line)
	if m == nil || !isLabelLine(m) {
		return false, ""
	}
	return true, strings.TrimSpace(m[markerRest])
}

// stripMetadataSections removes metadata label lines. A label without an
// inline value also takes its value lines, up to the next blank line or
// label.
func stripMetadataSections(lines []string) ([]string, int) {
	out := make([]string, 0, len(lines))
	removed := 0
	for i := 0; i < len(lines); i++ {
		ok, inline := isMetadataLabel(lines[i])
		if !ok {
			out = append(out, lines[i])
			continue
		}
		removed++
		if inline != "" {
			continue
		}
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" && !isAnyLabel(lines[i+1]) {
			i++
			removed++
		}
	}
	return out, removed
}

func isAnyLabel(line string) bool {
	if ok, _ := isMetadataLabel(line); ok {
		return true
	}
	if m := contentMarkerRe.FindStringSubmatch(line); m != nil && isLabelLine(m) {
		return true
	}
	return legacyMarkerRe.MatchString(line)
}

// removeLeadingTitles drops leading lines that repeat or resemble the title,
// scanning at most cfg.DuplicateScanLines lines. It stops at the first line
// that is content.
func removeLeadingTitles(lines []string, title string, cfg *Config) ([]string, int) {
	removed := 0
	first := 0
	for i := 0; i < len(lines) && i < cfg.DuplicateScanLines; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			first = i + 1
			continue
		}
		if isTitleDuplicate(lines[i], title) ||
			(cfg.StripTitleLikeLines && isTitleLikeLine(lines, i, cfg)) {
			removed++
			first = i + 1
			continue
		}
		break
	}
	if removed == 0 {
		return lines, 0
	}
	out := lines[first:]
	for len(out) > 0 && strings.TrimSpace(out[0]) == "" {
		out = out[1:]
	}
	return out, removed
}

// isTitleDuplicate reports whether line renders the same title, ignoring
// case, heading markers, emphasis, quotes and punctuation.
func isTitleDuplicate(line, title string) bool {
	kind := ClassifyLine(line)
	if kind != KindHeading && kind != KindParagraph {
		return false
	}
	want := comparable(title)
	if want == "" {
		return false
	}
	text := line
	if kind == KindHeading {
		text = headingText(line)
	}
	return comparable(text) == want
}

// isTitleLikeLine applies the title-like heuristic to an H1 or plain line.
func isTitleLikeLine(lines []string, i int, cfg *Config) bool {
	line := lines[i]
	switch ClassifyLine(line) {
	case KindHeading:
		if headingLevel(line) != 1 {
			return false
		}
		line = headingText(line)
	case KindParagraph:
		line = cleanInline(line)
	default:
		return false
	}
	return isStandalone(lines, i) && looksLikeTitle(line, cfg.TitleLikeMinLength, cfg.TitleLikeMaxLength)
}

// isStandalone reports whether line i has no paragraph text directly above
// or below it.
func isStandalone(lines []string, i int) bool {
	if i > 0 && strings.TrimSpace(lines[i-1]) != "" {
		return false
	}
	if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
		return false
	}
	return true
}

// looksLikeTitle reports whether s is short, starts with an uppercase letter
// and has no sentence punctuation.
func looksLikeTitle(s string, minLen, maxLen int) bool {
	n := runeLen(s)
	if n == 0 || n < minLen || n > maxLen {
		return false
	}
	first := []rune(s)[0]
	if !unicode.IsUpper(first) {
		return false
	}
	if strings.ContainsAny(s[len(s)-1:], ".!?;:") {
		return false
	}
	return !strings.Contains(s, ". ")
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
