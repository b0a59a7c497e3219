package normalize

import (
	"strings"
	"testing"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		body string
		n    int
		want string
	}{
		{
			name: "links and bold reduced to text",
			body: "This is [a link](https://x.com) and **bold** text.",
			n:    160,
			want: "This is a link and bold text....",
		},
		{
			name: "truncated to n runes",
			body: strings.Repeat("abcde ", 40),
			n:    160,
			want: strings.Repeat("abcde ", 26) + "abcd...",
		},
		{
			name: "html tags and entities",
			body: "<p>Fresh &amp; warm <b>bread</b></p>",
			n:    160,
			want: "Fresh & warm bread...",
		},
		{
			name: "images and headings",
			body: "![Loaf](https://x.com/l.jpg)\n\n# Heading\n\nText here.",
			n:    160,
			want: "Heading Text here....",
		},
		{
			name: "placement and placeholder tokens",
			body: "Before [IMAGE_PLACEMENT:\"x\"] __PROTECTED_0__ after",
			n:    160,
			want: "Before after...",
		},
		{
			name: "rune safe",
			body: "ééééé",
			n:    3,
			want: "ééé...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.body, tt.n); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBodyWithoutTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		title    string
		want     string
	}{
		{"matching H1 dropped", "# Bread\n\nBody.", "Bread", "Body."},
		{"different H1 kept", "# Other\n\nBody.", "Bread", "# Other\n\nBody."},
		{"H2 kept", "## Bread\n\nBody.", "Bread", "## Bread\n\nBody."},
		{"no heading", "Body.", "", "Body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bodyWithoutTitle(tt.markdown, tt.title); got != tt.want {
				t.Errorf("bodyWithoutTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
