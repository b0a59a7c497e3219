package normalize

import (
	"regexp"
	"strings"
)

// Title sources, recorded in Stats.TitleSource.
const (
	TitleSourceBoldLabel = "bold-label"
	TitleSourceLabel     = "label"
	TitleSourceQuoted    = "quoted"
	TitleSourceContentH1 = "content-h1"
	TitleSourceH1        = "h1"
	TitleSourceTopic     = "topic"
	TitleSourceFirstLine = "first-line"
)

// Untitled is the title of a document with no text to take one from.
const Untitled = "Untitled"

// maxFallbackTitle bounds a title cut from the first line of prose.
const maxFallbackTitle = 80

var (
	// boldTitleRe matches "**Title**", "2. **Title:**" and "**Title:** value".
	boldTitleRe = regexp.MustCompile(`(?i)^[ \t]*(?:\d+[.)][ \t]*)?(?:\\?\*){2}[ \t]*title[ \t]*:?[ \t]*(?:\\?\*){2}[ \t]*:?[ \t]*(.*)$`)

	// boldInlineTitleRe matches "**Title: value**".
	boldInlineTitleRe = regexp.MustCompile(`(?i)^[ \t]*(?:\d+[.)][ \t]*)?(?:\\?\*){2}[ \t]*title[ \t]*:[ \t]*(.+?)[ \t]*(?:\\?\*){2}[ \t]*$`)

	labelTitleRe = regexp.MustCompile(`(?i)^[ \t]*(?:\d+[.)][ \t]*)?title[ \t]*:[ \t]*(.+)$`)

	quotedTitleRe = regexp.MustCompile(`^[ \t]*(?:"([^"]+)"|“([^”]+)”)[ \t]*$`)

	h1Re = regexp.MustCompile(`^ {0,3}#[ \t]+(.+)$`)
)

// sectionWords are H1 texts that name a section rather than the article.
var sectionWords = map[string]bool{
	"title":            true,
	"content":          true,
	"article":          true,
	"article content":  true,
	"body":             true,
	"introduction":     true,
	"intro":            true,
	"conclusion":       true,
	"summary":          true,
	"faq":              true,
	"faqs":             true,
	"key takeaways":    true,
	"meta description": true,
	"seo title":        true,
	"keywords":         true,
	"tags":             true,
	"slug":             true,
}

// titleCandidate is a possible title and the input lines it occupies.
type titleCandidate struct {
	text     string
	consumed []int
}

// titleFamily finds every candidate of one pattern family, in document order.
type titleFamily struct {
	source string
	find   func(lines []string) []titleCandidate
}

// titleFamilies are tried in order. Earlier families are more reliable.
var titleFamilies = []titleFamily{
	{TitleSourceBoldLabel, titleFromBoldLabel},
	{TitleSourceLabel, titleFromLabel},
	{TitleSourceQuoted, titleFromQuoted},
	{TitleSourceContentH1, titleFromContentH1},
	{TitleSourceH1, titleFromAnyH1},
}

// ExtractTitle returns the first qualifying title candidate, the input lines
// without the lines that carried it, and the family that produced it.
// When nothing qualifies the topic is returned with TitleSourceTopic and the
// lines are returned unchanged. Without a topic the first heading or line is
// used as is, with TitleSourceFirstLine; the title is never empty.
func ExtractTitle(lines []string, topic string, cfg *Config) (title string, remaining []string, source string) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	for _, fam := range titleFamilies {
		for _, c := range fam.find(lines) {
			text := cleanTitle(c.text)
			if !qualifiesAsTitle(text, cfg.MinTitleLength) {
				continue
			}
			return text, dropLines(lines, c.consumed), fam.source
		}
	}
	if t := strings.TrimSpace(topic); t != "" {
		return t, lines, TitleSourceTopic
	}
	return firstLineTitle(lines), lines, TitleSourceFirstLine
}

// firstLineTitle is the last resort: the first heading of any length, else
// the first line of prose cut at a word boundary. Label lines are skipped.
func firstLineTitle(lines []string) string {
	prose := ""
	for _, line := range lines {
		kind := ClassifyLine(line)
		if kind == KindBlank || kind == KindBlock || kind == KindImage || isAnyLabel(line) {
			continue
		}
		if kind == KindHeading {
			if t := headingText(line); t != "" && !isSectionWord(t) {
				return t
			}
			continue
		}
		if prose == "" {
			prose = cleanInline(strings.TrimLeft(strings.TrimSpace(line), ">-*+ "))
		}
	}
	if prose == "" {
		return Untitled
	}
	return truncateWords(prose, maxFallbackTitle)
}

// truncateWords cuts s to at most n runes, backing up to the last space.
func truncateWords(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}

// titleFromBoldLabel finds "**Title**" labels. The value is taken from the
// same line or from the next non-empty line within three lines.
func titleFromBoldLabel(lines []string) []titleCandidate {
	var out []titleCandidate
	for i, line := range lines {
		if m := boldInlineTitleRe.FindStringSubmatch(line); m != nil {
			out = append(out, titleCandidate{m[1], []int{i}})
			continue
		}
		m := boldTitleRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.TrimSpace(m[1]) != "" {
			out = append(out, titleCandidate{m[1], []int{i}})
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+3; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			kind := ClassifyLine(lines[j])
			if legacyMarkerRe.MatchString(lines[j]) || (kind != KindParagraph && kind != KindHeading) {
				break
			}
			out = append(out, titleCandidate{next, []int{i, j}})
			break
		}
	}
	return out
}

// titleFromLabel finds plain "Title: value" lines.
func titleFromLabel(lines []string) []titleCandidate {
	var out []titleCandidate
	for i, line := range lines {
		if m := labelTitleRe.FindStringSubmatch(line); m != nil {
			out = append(out, titleCandidate{m[1], []int{i}})
		}
	}
	return out
}

// titleFromQuoted finds standalone lines wrapped in double quotes.
func titleFromQuoted(lines []string) []titleCandidate {
	var out []titleCandidate
	for i, line := range lines {
		m := quotedTitleRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := m[1]
		if text == "" {
			text = m[2]
		}
		out = append(out, titleCandidate{text, []int{i}})
	}
	return out
}

// titleFromContentH1 finds H1 headings after the content marker. The heading
// stays in the body; the body isolator removes it as a duplicate.
func titleFromContentH1(lines []string) []titleCandidate {
	start := findContentMarker(lines)
	if start < 0 {
		return nil
	}
	return h1Candidates(lines, start+1, false)
}

// titleFromAnyH1 finds H1 headings anywhere that are not section names.
func titleFromAnyH1(lines []string) []titleCandidate {
	return h1Candidates(lines, 0, true)
}

func h1Candidates(lines []string, from int, skipSections bool) []titleCandidate {
	var out []titleCandidate
	for i := from; i < len(lines); i++ {
		m := h1Re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if skipSections && isSectionWord(m[1]) {
			continue
		}
		out = append(out, titleCandidate{text: m[1]})
	}
	return out
}

func isSectionWord(s string) bool {
	s = strings.ToLower(cleanTitle(s))
	s = strings.TrimRight(s, ":")
	return sectionWords[strings.TrimSpace(s)]
}

// cleanTitle strips heading markers, emphasis, escapes and quotes.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimRight(s, "# \t")
	return cleanInline(s)
}

// qualifiesAsTitle reports whether a cleaned candidate is usable.
func qualifiesAsTitle(s string, minLen int) bool {
	if runeLen(s) <= minLen {
		return false
	}
	return !strings.EqualFold(strings.TrimRight(s, ":"), "title")
}

func dropLines(lines []string, idx []int) []string {
	if len(idx) == 0 {
		return lines
	}
	skip := make(map[int]bool, len(idx))
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]string, 0, len(lines)-len(idx))
	for i, l := range lines {
		if !skip[i] {
			out = append(out, l)
		}
	}
	return out
}
