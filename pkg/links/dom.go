package links

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses an HTML body fragment under a synthetic <body>.
func parseFragment(src string) (*goquery.Document, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), root)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// noLinkTags are elements whose text is never linked.
var noLinkTags = map[string]bool{
	"a":          true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"code":       true,
	"pre":        true,
	"script":     true,
	"style":      true,
	"figcaption": true,
	"textarea":   true,
	"button":     true,
}

// linkableBlock returns the paragraph or list item that contains text node
// n, or nil when n is outside one or inside an element that must not be
// linked.
func linkableBlock(n *html.Node) *html.Node {
	var block *html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if noLinkTags[p.Data] {
			return nil
		}
		if block == nil && (p.Data == "p" || p.Data == "li") {
			block = p
		}
	}
	return block
}

func textNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// mentionRe matches phrase as a whole word, case-insensitively. Group 2 is
// the phrase itself.
func mentionRe(phrase string) *regexp.Regexp {
	words := strings.Fields(regexp.QuoteMeta(phrase))
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(` + strings.Join(words, `\s+`) + `)([^\p{L}\p{N}]|$)`)
}

// newAnchor builds an injected anchor.
func newAnchor(kind Kind, href string) *html.Node {
	a := &html.Node{Type: html.ElementNode, Data: "a", DataAtom: atom.A, Attr: []html.Attribute{
		{Key: "href", Val: href},
		{Key: "data-link", Val: string(kind)},
	}}
	if kind == External {
		a.Attr = append(a.Attr,
			html.Attribute{Key: "rel", Val: "noopener"},
			html.Attribute{Key: "target", Val: "_blank"},
		)
	}
	return a
}

// wrapText replaces text[start:end] of text node n with anchor a.
func wrapText(n *html.Node, start, end int, a *html.Node) {
	parent := n.Parent
	text := n.Data
	if start > 0 {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[:start]}, n)
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text[start:end]})
	parent.InsertBefore(a, n)
	if end < len(text) {
		n.Data = text[end:]
	} else {
		parent.RemoveChild(n)
	}
}

// anchorHTML renders an injected anchor with the given text.
func anchorHTML(kind Kind, href, text string) string {
	a := newAnchor(kind, href)
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	var sb strings.Builder
	_ = html.Render(&sb, a)
	return sb.String()
}

var faqTextRe = regexp.MustCompile(`(?i)^\s*(?:faqs?|frequently\s+asked\s+questions)\b`)

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// lastBodyParagraph returns the last top-level paragraph outside any FAQ
// section that is not in used. A FAQ section ends at the next heading of the
// same or a higher level.
func lastBodyParagraph(doc *goquery.Document, used map[*html.Node]bool) *goquery.Selection {
	var last *goquery.Selection
	inFAQ, faqLevel := false, 0
	doc.Children().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if level := headingLevel(name); level > 0 {
			switch {
			case faqTextRe.MatchString(s.Text()):
				inFAQ, faqLevel = true, level
			case inFAQ && level <= faqLevel:
				inFAQ = false
			}
			return
		}
		if name == "p" && !inFAQ && !used[s.Nodes[0]] {
			last = s
		}
	})
	return last
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
