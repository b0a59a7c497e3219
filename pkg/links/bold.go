package links

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func isBold(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "strong", "b":
		return true
	}
	return false
}

// StripBold removes <strong> and <b> wrappers inside injected anchors and
// around an injected anchor that is the wrapper's only content. It returns
// the number of wrappers removed; with none, doc is returned unchanged.
func StripBold(doc string) (string, int, error) {
	d, err := parseFragment(doc)
	if err != nil {
		return doc, 0, fmt.Errorf("parse html: %w", err)
	}

	n := 0
	d.Find("a[data-link]").Each(func(_ int, a *goquery.Selection) {
		a.Find("strong, b").Each(func(_ int, b *goquery.Selection) {
			b.ReplaceWithSelection(b.Contents())
			n++
		})
		for p := a.Parent(); isBold(p) && strings.TrimSpace(p.Text()) == strings.TrimSpace(a.Text()); p = a.Parent() {
			a.Unwrap()
			n++
		}
	})
	if n == 0 {
		return doc, 0, nil
	}

	out, err := d.Html()
	if err != nil {
		return doc, 0, fmt.Errorf("render html: %w", err)
	}
	return out, n, nil
}
