package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// Image is an already-hosted image supplied by the media collaborator.
type Image struct {
	URL string `json:"url" yaml:"url" validate:"required,url"`
	Alt string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Markdown returns the image as markdown with the given alt text.
func (img Image) Markdown(alt string) string {
	alt = strings.NewReplacer("[", "", "]", "", "\n", " ").Replace(strings.TrimSpace(alt))
	url := img.URL
	if strings.ContainsAny(url, " ()") {
		url = "<" + url + ">"
	}
	return fmt.Sprintf("![%s](%s)", alt, url)
}

var placementRe = regexp.MustCompile(`\[IMAGE_PLACEMENT:\s*(?:["“]([^"”\]]*)["”]|([^\]]*))\s*\]`)

// MediaReport counts what PlaceImages did.
type MediaReport struct {
	Placed      int
	Distributed int
	Removed     int
	Invalid     int
}

// PlaceImages substitutes [IMAGE_PLACEMENT:"alt"] placeholders with images
// in order, and spreads any images left over evenly across the H2 sections
// that follow the last explicit placement. An image whose URL already
// appears in body counts as placed, so running PlaceImages twice changes
// nothing the second time.
func PlaceImages(body string, images []Image) (string, MediaReport) {
	var rep MediaReport

	var queue []Image
	for _, img := range images {
		if err := validate.Struct(img); err != nil {
			rep.Invalid++
			continue
		}
		if strings.Contains(body, img.URL) {
			continue
		}
		queue = append(queue, img)
	}

	var sb strings.Builder
	last := 0
	lastPlacement := -1
	for _, m := range placementRe.FindAllStringSubmatchIndex(body, -1) {
		sb.WriteString(body[last:m[0]])
		last = m[1]
		if len(queue) == 0 {
			rep.Removed++
			continue
		}
		alt := submatch(body, m, 1)
		if alt == "" {
			alt = strings.Trim(submatch(body, m, 2), `"' `)
		}
		if alt == "" {
			alt = queue[0].Alt
		}
		sb.WriteString(queue[0].Markdown(alt))
		lastPlacement = sb.Len()
		queue = queue[1:]
		rep.Placed++
	}
	sb.WriteString(body[last:])
	out := sb.String()

	if len(queue) > 0 {
		var n int
		out, n = distributeImages(out, queue, lastPlacement)
		rep.Distributed = n
	}
	if rep.Placed+rep.Distributed+rep.Removed > 0 {
		out = collapseBlankLines(out)
	}
	return out, rep
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return strings.TrimSpace(s[m[2*group]:m[2*group+1]])
}

// distributeImages inserts images after the first paragraph of H2 sections
// that start after byte offset after. FAQ sections are skipped. Without a
// usable section the images are appended to the end.
func distributeImages(body string, images []Image, after int) (string, int) {
	lines := splitLines(body)

	var sections []int
	offset := 0
	for i, line := range lines {
		if offset > after && headingLevel(line) == 2 && !faqHeadingRe.MatchString(line) {
			sections = append(sections, i)
		}
		offset += len(line) + 1
	}

	if len(sections) == 0 {
		for _, img := range images {
			lines = append(lines, "", img.Markdown(img.Alt))
		}
		return joinLines(lines), len(images)
	}

	// Image i goes to section floor(i*m/n), spreading n images over m
	// sections. Insert back to front so indexes stay valid.
	type insertion struct {
		at  int
		img string
	}
	inserts := make([]insertion, len(images))
	for i, img := range images {
		sec := sections[i*len(sections)/len(images)]
		alt := img.Alt
		if alt == "" {
			alt = headingText(lines[sec])
		}
		inserts[i] = insertion{afterFirstParagraph(lines, sec), img.Markdown(alt)}
	}
	for i := len(inserts) - 1; i >= 0; i-- {
		at := inserts[i].at
		block := []string{"", inserts[i].img, ""}
		lines = append(lines[:at], append(block, lines[at:]...)...)
	}
	return joinLines(lines), len(images)
}

// afterFirstParagraph returns the line index just past the first paragraph
// under the heading at index h, or h+1 when the section does not open with
// a paragraph.
func afterFirstParagraph(lines []string, h int) int {
	i := h + 1
	for i < len(lines) && ClassifyLine(lines[i]) == KindBlank {
		i++
	}
	if i >= len(lines) || ClassifyLine(lines[i]) != KindParagraph {
		return h + 1
	}
	for i < len(lines) && ClassifyLine(lines[i]) == KindParagraph {
		i++
	}
	return i
}

// collapseBlankLines keeps at most one blank line between blocks and trims
// blank lines at both ends.
func collapseBlankLines(s string) string {
	lines := splitLines(s)
	out := make([]string, 0, len(lines))
	blank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 || len(out) == 0 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return joinLines(out)
}
