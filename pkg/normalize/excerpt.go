package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	excerptImageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	excerptLinkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	excerptPlaceholderRe = regexp.MustCompile(`__PROTECTED\w*?_\d+__`)
	excerptSpaceRe       = regexp.MustCompile(`\s+`)

	plainText = bluemonday.StrictPolicy()
)

// Excerpt returns the first n runes of the plain-text body followed by
// "...". Images, placeholders and markup are removed, links are reduced to
// their text and '#' and '*' are stripped.
func Excerpt(body string, n int) string {
	s := excerptImageRe.ReplaceAllString(body, " ")
	s = placementRe.ReplaceAllString(s, " ")
	s = excerptLinkRe.ReplaceAllString(s, "$1")
	s = excerptPlaceholderRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(plainText.Sanitize(s))
	s = strings.NewReplacer("#", "", "*", "").Replace(s)
	s = strings.TrimSpace(excerptSpaceRe.ReplaceAllString(s, " "))

	if r := []rune(s); len(r) > n {
		s = strings.TrimSpace(string(r[:n]))
	}
	return s + "..."
}

// bodyWithoutTitle drops a leading H1 equal to title from markdown.
func bodyWithoutTitle(markdown, title string) string {
	lines := splitLines(strings.TrimSpace(markdown))
	if len(lines) == 0 || headingLevel(lines[0]) != 1 || comparable(headingText(lines[0])) != comparable(title) {
		return strings.TrimSpace(markdown)
	}
	return strings.TrimSpace(joinLines(lines[1:]))
}
