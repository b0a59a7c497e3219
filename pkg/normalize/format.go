package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	faqQuestionRe    = regexp.MustCompile(`^\s*(?:\\?\*){2}Q[:.]`)
	boldStarRe       = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	headingNoSpaceRe = regexp.MustCompile(`^(#{2,6})([^\s#])`)

	// boldUnderscoreRe only matches __x__ delimited by non-word characters,
	// so placeholder tokens like __PROTECTED_0__ never pair up.
	boldUnderscoreRe = regexp.MustCompile(`(^|\W)__([^_\s](?:[^_\n]*[^_\s])?)__(\W|$)`)
)

// FormatReport counts what Format changed.
type FormatReport struct {
	BoldStripped     int
	ParagraphsMerged int
}

// Format runs the line passes over a body: bold stripping, heading and
// whitespace hygiene, broken paragraph repair and block spacing. Format is
// idempotent.
func Format(body string, cfg *Config) (string, FormatReport) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var rep FormatReport

	lines := splitLines(body)
	lines = hygiene(lines)
	if cfg.StripBold {
		lines, rep.BoldStripped = stripBold(lines)
	}
	lines = space(lines)
	if cfg.MergeBrokenParagraphs {
		lines, rep.ParagraphsMerged = mergeBrokenParagraphs(lines)
	}
	return joinLines(lines), rep
}

// hygiene trims trailing whitespace and puts a space after heading markers.
func hygiene(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		l = strings.TrimRight(l, " \t")
		out[i] = headingNoSpaceRe.ReplaceAllString(l, "$1 $2")
	}
	return out
}

// stripBold removes bold markers from every line except FAQ questions.
// inFAQ is set by an FAQ heading and cleared by the next heading of the
// same or a higher level.
func stripBold(lines []string) ([]string, int) {
	out := make([]string, len(lines))
	inFAQ := false
	faqLevel := 0
	stripped := 0

	for i, line := range lines {
		if ClassifyLine(line) == KindHeading {
			level := headingLevel(line)
			switch {
			case faqHeadingRe.MatchString(line):
				inFAQ, faqLevel = true, level
			case inFAQ && level <= faqLevel:
				inFAQ = false
			}
		}
		if inFAQ && faqQuestionRe.MatchString(line) {
			out[i] = line
			continue
		}
		n := 0
		out[i], n = unbold(line)
		stripped += n
	}
	return out, stripped
}

// unbold removes **x** and __x__ pairs and stray double asterisks.
func unbold(line string) (string, int) {
	if !strings.Contains(line, "**") && !strings.Contains(line, "__") {
		return line, 0
	}
	n := 0
	line = boldStarRe.ReplaceAllStringFunc(line, func(m string) string {
		n++
		return m[2 : len(m)-2]
	})
	// Adjacent pairs share a delimiter, so repeat until nothing matches.
	for {
		c := len(boldUnderscoreRe.FindAllStringIndex(line, -1))
		if c == 0 {
			break
		}
		n += c
		line = boldUnderscoreRe.ReplaceAllString(line, "${1}${2}${3}")
	}
	if c := strings.Count(line, "**"); c > 0 {
		n += c
		line = strings.ReplaceAll(line, "**", "")
	}
	return line, n
}

// mergeBrokenParagraphs joins a paragraph line that ends without terminal
// punctuation to the next paragraph when exactly one blank line separates
// them and the next line starts lowercase.
func mergeBrokenParagraphs(lines []string) ([]string, int) {
	out := make([]string, 0, len(lines))
	merged := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+2 < len(lines) &&
			ClassifyLine(line) == KindParagraph &&
			strings.TrimSpace(lines[i+1]) == "" &&
			ClassifyLine(lines[i+2]) == KindParagraph &&
			!endsSentence(line) &&
			startsLower(lines[i+2]) {
			line = line + " " + strings.TrimSpace(lines[i+2])
			i += 2
			merged++
		}
		out = append(out, line)
	}
	return out, merged
}

func endsSentence(line string) bool {
	line = strings.TrimRight(line, " \t*_)\"'”’")
	if line == "" {
		return true
	}
	r := []rune(line)
	return strings.ContainsRune(".!?:;…", r[len(r)-1])
}

func startsLower(line string) bool {
	line = strings.TrimSpace(line)
	for _, r := range line {
		return unicode.IsLower(r)
	}
	return false
}

// space rebuilds blank lines between blocks.
//
// Headings, images and protected blocks get exactly one blank line on each
// side. Consecutive list items, table rows and blockquote lines stay
// together. A paragraph that was directly attached to a previous paragraph,
// list item or quote stays attached (lazy continuation); otherwise kinds are
// separated by one blank line. Leading and trailing blank lines are dropped.
func space(lines []string) []string {
	out := make([]string, 0, len(lines))
	prev := KindBlank
	pending := 0

	for _, line := range lines {
		kind := ClassifyLine(line)
		if kind == KindBlank {
			pending++
			continue
		}
		if prev != KindBlank {
			for i := 0; i < blanksBetween(prev, kind, pending); i++ {
				out = append(out, "")
			}
		}
		out = append(out, line)
		prev = kind
		pending = 0
	}
	return out
}

func blanksBetween(prev, next LineKind, pending int) int {
	isolated := func(k LineKind) bool {
		return k == KindHeading || k == KindImage || k == KindBlock
	}
	switch {
	case prev == KindBlock && next == KindBlock:
		return min(pending, 1)
	case isolated(prev) || isolated(next):
		return 1
	case prev == next && (prev == KindListItem || prev == KindTableRow || prev == KindBlockquote):
		return min(pending, 1)
	case prev == next:
		if pending == 0 {
			return 0
		}
		return 1
	case next == KindParagraph && (prev == KindListItem || prev == KindBlockquote) && pending == 0:
		return 0
	default:
		return 1
	}
}
