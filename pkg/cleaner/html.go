package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLConfig controls what HTMLCleaner removes.
type HTMLConfig struct {
	// RemoveSelectors are CSS selectors of elements to drop.
	RemoveSelectors []string `json:"remove_selectors,omitempty" yaml:"remove_selectors,omitempty"`
	// KeepSelectors protect matching elements from RemoveSelectors and the
	// hidden element pass.
	KeepSelectors []string `json:"keep_selectors,omitempty" yaml:"keep_selectors,omitempty"`

	StripComments       bool `json:"strip_comments" yaml:"strip_comments"`
	StripHiddenElements bool `json:"strip_hidden_elements" yaml:"strip_hidden_elements"`
	StripEventHandlers  bool `json:"strip_event_handlers" yaml:"strip_event_handlers"`
}

// DefaultHTMLConfig removes page chrome that model output wrapped in a full
// HTML page tends to carry.
func DefaultHTMLConfig() HTMLConfig {
	return HTMLConfig{
		RemoveSelectors: []string{
			"script", "style", "noscript", "template", "svg",
			"nav", "header > nav", "footer", "form", "button",
			"[role='navigation']", "[role='banner']", "[role='contentinfo']",
		},
		StripComments:       true,
		StripHiddenElements: true,
		StripEventHandlers:  true,
	}
}

// HTMLCleaner strips markup noise from HTML before markdown conversion.
// Embeds are left alone. When the page has no <h1>, its <title> becomes
// one so the title survives conversion.
type HTMLCleaner struct {
	config HTMLConfig
}

var _ Cleaner = (*HTMLCleaner)(nil)

// NewHTML creates an HTML cleaner.
func NewHTML(cfg HTMLConfig) *HTMLCleaner {
	return &HTMLCleaner{config: cfg}
}

// Name returns the cleaner name for logging.
func (c *HTMLCleaner) Name() string {
	return "html"
}

// Clean returns the cleaned body markup. Unparseable input is returned
// unchanged.
func (c *HTMLCleaner) Clean(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, nil
	}

	for _, sel := range c.config.RemoveSelectors {
		c.remove(doc.Find("body").Find(sel))
	}
	if c.config.StripHiddenElements {
		c.remove(doc.Find("[hidden], [aria-hidden='true']"))
		doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
			if isHiddenStyle(s.AttrOr("style", "")) && !c.shouldKeep(s) {
				s.Remove()
			}
		})
	}
	if c.config.StripEventHandlers {
		doc.Find("*").Each(func(_ int, s *goquery.Selection) {
			var handlers []string
			for _, attr := range s.Nodes[0].Attr {
				if strings.HasPrefix(attr.Key, "on") {
					handlers = append(handlers, attr.Key)
				}
			}
			for _, key := range handlers {
				s.RemoveAttr(key)
			}
		})
	}
	if c.config.StripComments {
		removeComments(doc.Nodes[0])
	}

	body := doc.Find("body")
	if body.Find("h1").Length() == 0 {
		if title := strings.TrimSpace(doc.Find("head > title").First().Text()); title != "" {
			body.PrependHtml("<h1>" + html.EscapeString(title) + "</h1>")
		}
	}

	out, err := body.Html()
	if err != nil {
		return content, nil
	}
	return strings.TrimSpace(out), nil
}

func (c *HTMLCleaner) remove(sel *goquery.Selection) {
	sel.Each(func(_ int, s *goquery.Selection) {
		if !c.shouldKeep(s) {
			s.Remove()
		}
	})
}

func (c *HTMLCleaner) shouldKeep(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "iframe" {
		return true
	}
	for _, sel := range c.config.KeepSelectors {
		if s.Is(sel) {
			return true
		}
	}
	return false
}

func isHiddenStyle(style string) bool {
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func removeComments(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.CommentNode {
			n.RemoveChild(child)
		} else {
			removeComments(child)
		}
		child = next
	}
}
