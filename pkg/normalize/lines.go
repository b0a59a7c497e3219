package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LineKind is the structural role of a single markdown line.
type LineKind int

const (
	KindBlank LineKind = iota
	KindHeading
	KindParagraph
	KindListItem
	KindBlockquote
	KindTableRow
	KindImage
	// KindBlock is a protected placeholder or a raw HTML block line.
	KindBlock
)

func (k LineKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindListItem:
		return "list-item"
	case KindBlockquote:
		return "blockquote"
	case KindTableRow:
		return "table-row"
	case KindImage:
		return "image"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

var (
	headingLineRe     = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+|$)`)
	imageLineRe       = regexp.MustCompile(`^\s*!\[[^\]]*\]\([^)]*\)\s*$`)
	placementLineRe   = regexp.MustCompile(`^\s*\[IMAGE_PLACEMENT:[^\]]*\]\s*$`)
	tableRowRe        = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	listItemRe        = regexp.MustCompile(`^\s*(?:[-*+]|\d{1,9}[.)])\s+\S`)
	placeholderLineRe = regexp.MustCompile(`^\s*__PROTECTED\w*?_\d+__\s*$`)
	htmlBlockLineRe   = regexp.MustCompile(`(?i)^\s*</?(?:div|p|figure|figcaption|table|thead|tbody|tr|td|th|iframe|embed|object|video|audio|section|article|aside|hr|br|img|pre|ul|ol|li|blockquote)\b`)
	thematicBreakRe   = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
)

// ClassifyLine returns the kind of a single line.
func ClassifyLine(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return KindBlank
	case headingLineRe.MatchString(line):
		return KindHeading
	case placeholderLineRe.MatchString(line), htmlBlockLineRe.MatchString(line), thematicBreakRe.MatchString(line):
		return KindBlock
	case imageLineRe.MatchString(line), placementLineRe.MatchString(line):
		return KindImage
	case tableRowRe.MatchString(line):
		return KindTableRow
	case strings.HasPrefix(trimmed, ">"):
		return KindBlockquote
	case listItemRe.MatchString(line):
		return KindListItem
	default:
		return KindParagraph
	}
}

// headingLevel returns the level of a heading line, or 0.
func headingLevel(line string) int {
	m := headingLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

// headingText returns the text of a heading line without markers or bold.
func headingText(line string) string {
	m := headingLineRe.FindStringIndex(line)
	if m == nil {
		return strings.TrimSpace(line)
	}
	text := strings.TrimSpace(line[m[1]:])
	text = strings.TrimRight(text, "# \t")
	return cleanInline(text)
}

// cleanInline strips emphasis markers, escapes and surrounding quotes.
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, `\*`, "*")
	s = strings.ReplaceAll(s, `\_`, "_")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_#")
	s = strings.TrimSpace(s)
	s = trimQuotes(s)
	return strings.TrimSpace(s)
}

func trimQuotes(s string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}, {"‘", "’"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}

// comparable folds text for duplicate detection: lowercase letters and
// digits separated by single spaces.
func comparable(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToLower(cleanInline(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		default:
			space = true
		}
	}
	return sb.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
