package cleaner

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/jmylchreest/quill/pkg/protect"
)

// MarkdownCleaner converts HTML to markdown using html-to-markdown.
// Embeds (iframe, embed, object) are carried through verbatim; the
// converter's base plugin would otherwise drop them.
type MarkdownCleaner struct {
	conv   *converter.Converter
	config markdownConfig
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	// StripLinks removes link URLs, keeping only the link text
	StripLinks bool
	// StripImages removes images entirely
	StripImages bool
	// Domain resolves relative link and image URLs
	Domain string
}

// WithStripLinks configures the cleaner to remove link URLs.
func WithStripLinks(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripLinks = strip
	}
}

// WithStripImages configures the cleaner to remove images.
func WithStripImages(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripImages = strip
	}
}

// WithDomain resolves relative URLs against domain.
func WithDomain(domain string) MarkdownOption {
	return func(c *markdownConfig) {
		c.Domain = domain
	}
}

// NewMarkdown creates a new markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	var cfg markdownConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MarkdownCleaner{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
		config: cfg,
	}
}

var (
	mdImageRe = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

	htmlDocRe   = regexp.MustCompile(`(?i)^\s*(?:<!doctype\s+html|<html\b|<body\b|<head\b)`)
	htmlBlockRe = regexp.MustCompile(`(?i)<(?:p|h[1-6]|ul|ol|li|div|article|section|table|blockquote)\b[^>]*>`)
	mdHeadingRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`)
)

// LooksLikeHTML reports whether content is an HTML document or fragment
// rather than markdown that happens to contain some tags.
func LooksLikeHTML(content string) bool {
	if htmlDocRe.MatchString(content) {
		return true
	}
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "<") || mdHeadingRe.MatchString(trimmed) {
		return false
	}
	return len(htmlBlockRe.FindAllStringIndex(trimmed, 3)) >= 2
}

// Clean converts HTML to markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	tokenized, spans := protect.Tokenize(html)

	var markdown string
	var err error
	if c.config.Domain != "" {
		markdown, err = c.conv.ConvertString(tokenized, converter.WithDomain(c.config.Domain))
	} else {
		markdown, err = c.conv.ConvertString(tokenized)
	}
	if err != nil {
		return "", err
	}

	markdown = restoreEscaped(markdown, spans)

	if c.config.StripImages {
		markdown = mdImageRe.ReplaceAllString(markdown, "")
	}
	if c.config.StripLinks {
		markdown = mdLinkRe.ReplaceAllString(markdown, "$1")
	}

	return cleanWhitespace(markdown), nil
}

// restoreEscaped puts embeds back. The converter may have escaped some or
// all of the underscores in a placeholder.
func restoreEscaped(markdown string, spans []protect.Span) string {
	for _, s := range spans {
		pattern := strings.ReplaceAll(regexp.QuoteMeta(s.Placeholder), "_", `\\?_`)
		re := regexp.MustCompile(pattern)
		loc := re.FindStringIndex(markdown)
		if loc == nil {
			continue
		}
		markdown = markdown[:loc[0]] + "\n\n" + s.Original + "\n\n" + markdown[loc[1]:]
	}
	return markdown
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace trims trailing spaces and collapses blank line runs to a
// single blank line.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blankCount := 0

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
			continue
		}
		blankCount = 0
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
