package render

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// repair parses converted HTML as a body fragment and runs the repair
// passes over it.
func (r *Renderer) repair(src, title string, stats *Stats) (string, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), root)
	if err != nil {
		return "", fmt.Errorf("%w: parse output: %w", ErrRenderFailure, err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	doc := goquery.NewDocumentFromNode(root)

	if r.config.DropTitleHeading && title != "" {
		stats.TitleHeadingDropped = dropTitleHeading(doc, title)
	}
	if r.config.FixImages || r.config.DropMalformedImages {
		fixed, dropped := repairLiteralImages(root, r.config.FixImages, r.config.DropMalformedImages)
		stats.ImagesRepaired += fixed
		stats.ImagesDropped += dropped
	}
	if r.config.DropMalformedImages {
		stats.ImagesDropped += dropMalformedImages(doc)
	}
	if r.config.FixTables {
		stats.TablesRepaired = repairPipeTables(doc)
	}
	if r.config.InlineStyles {
		stats.ElementsStyled = applyStyles(doc, r.config.Styles)
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("%w: render output: %w", ErrRenderFailure, err)
	}
	return out, nil
}

// dropTitleHeading removes the first element when it is an <h1> whose text
// equals title.
func dropTitleHeading(doc *goquery.Document, title string) bool {
	first := doc.Children().First()
	if goquery.NodeName(first) != "h1" || fold(first.Text()) != fold(title) {
		return false
	}
	first.Remove()
	return true
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var literalImageRe = regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\n]*)\)`)

// skipTextTags are elements whose text is never rewritten.
var skipTextTags = map[string]bool{
	"code":     true,
	"pre":      true,
	"script":   true,
	"style":    true,
	"textarea": true,
}

// repairLiteralImages rewrites ![alt](url) left in text nodes. Valid images
// become <img> elements when fix is set; malformed ones are removed when
// drop is set.
func repairLiteralImages(root *html.Node, fix, drop bool) (fixed, dropped int) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			switch {
			case c.Type == html.ElementNode && skipTextTags[c.Data]:
			case c.Type == html.TextNode:
				f, d := replaceLiteralImages(c, fix, drop)
				fixed += f
				dropped += d
			default:
				walk(c)
			}
			c = next
		}
	}
	walk(root)
	return fixed, dropped
}

func replaceLiteralImages(text *html.Node, fix, drop bool) (fixed, dropped int) {
	matches := literalImageRe.FindAllStringSubmatchIndex(text.Data, -1)
	if len(matches) == 0 {
		return 0, 0
	}

	var nodes []*html.Node
	last := 0
	for _, m := range matches {
		alt := text.Data[m[2]:m[3]]
		src := strings.Trim(strings.TrimSpace(text.Data[m[4]:m[5]]), "<>")
		valid := validImageURL(src)

		var img *html.Node
		switch {
		case valid && fix:
			img = &html.Node{Type: html.ElementNode, Data: "img", DataAtom: atom.Img, Attr: []html.Attribute{
				{Key: "src", Val: src},
				{Key: "alt", Val: alt},
			}}
			fixed++
		case !valid && drop:
			dropped++
		default:
			continue
		}

		if m[0] > last {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: text.Data[last:m[0]]})
		}
		if img != nil {
			nodes = append(nodes, img)
		}
		last = m[1]
	}
	if fixed+dropped == 0 {
		return 0, 0
	}
	if last < len(text.Data) {
		nodes = append(nodes, &html.Node{Type: html.TextNode, Data: text.Data[last:]})
	}

	parent := text.Parent
	for _, n := range nodes {
		parent.InsertBefore(n, text)
	}
	parent.RemoveChild(text)
	return fixed, dropped
}

// dropMalformedImages removes <img> elements with an invalid src, and their
// paragraph when nothing else is left in it.
func dropMalformedImages(doc *goquery.Document) int {
	n := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if validImageURL(src) {
			return
		}
		parent := s.Parent()
		s.Remove()
		n++
		if goquery.NodeName(parent) == "p" && parent.Children().Length() == 0 && strings.TrimSpace(parent.Text()) == "" {
			parent.Remove()
		}
	})
	return n
}

// truncationMarkers appear in image URLs cut off by the generator.
var truncationMarkers = []string{"...", "…", "&hellip;", "&#8230;", "%E2%80%A6", "%e2%80%a6"}

// validImageURL reports whether src is a complete http(s) URL.
func validImageURL(src string) bool {
	if src == "" || strings.ContainsAny(src, " \t\n\"'<>{}|\\^`") {
		return false
	}
	for _, m := range truncationMarkers {
		if strings.Contains(src, m) {
			return false
		}
	}
	if strings.ContainsAny(src[len(src)-1:], ".,;:!?") {
		return false
	}
	return validate.Var(src, "http_url") == nil
}

var separatorCellRe = regexp.MustCompile(`^\s*:?-+:?\s*$`)

// isSeparatorRow reports whether line is a pipe table delimiter row such as
// |---|:---:|.
func isSeparatorRow(line string) bool {
	if !strings.Contains(line, "|") || !strings.Contains(line, "-") {
		return false
	}
	for _, cell := range splitRow(line) {
		if !separatorCellRe.MatchString(cell) {
			return false
		}
	}
	return true
}

func splitRow(line string) []string {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "|")
	t = strings.TrimSuffix(t, "|")
	cells := strings.Split(t, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// repairPipeTables rebuilds pipe tables that goldmark left as paragraph
// text, for example when the delimiter row has the wrong number of cells.
// Text before and after the table stays in its own paragraph.
func repairPipeTables(doc *goquery.Document) int {
	n := 0
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		lines := strings.Split(p.Text(), "\n")
		sep := -1
		for i := 1; i < len(lines); i++ {
			if isSeparatorRow(lines[i]) && strings.Contains(lines[i-1], "|") {
				sep = i
				break
			}
		}
		if sep < 0 {
			return
		}

		head := sep - 1
		end := sep + 1
		for end < len(lines) && strings.Contains(lines[end], "|") {
			end++
		}

		var sb strings.Builder
		writeParagraph(&sb, lines[:head])
		writeTable(&sb, splitRow(lines[head]), lines[sep+1:end])
		writeParagraph(&sb, lines[end:])
		p.ReplaceWithHtml(sb.String())
		n++
	})
	return n
}

func writeParagraph(sb *strings.Builder, lines []string) {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return
	}
	sb.WriteString("<p>")
	sb.WriteString(html.EscapeString(text))
	sb.WriteString("</p>")
}

func writeTable(sb *strings.Builder, header []string, rows []string) {
	sb.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range header {
		sb.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range rows {
		cells := splitRow(row)
		sb.WriteString("<tr>")
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>")
}

// applyStyles sets the inline style for each styled tag on elements that do
// not carry one.
func applyStyles(doc *goquery.Document, styles map[string]string) int {
	tags := make([]string, 0, len(styles))
	for tag := range styles {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	n := 0
	for _, tag := range tags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if _, ok := s.Attr("style"); ok {
				return
			}
			s.SetAttr("style", styles[tag])
			n++
		})
	}
	return n
}
