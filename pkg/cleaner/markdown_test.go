package cleaner

import (
	"strings"
	"testing"
)

func TestMarkdownCleaner_Clean_BasicHTML(t *testing.T) {
	got, err := NewMarkdown().Clean(`<h1>Title</h1><p>A paragraph.</p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(got, "# Title") {
		t.Errorf("expected markdown heading, got %q", got)
	}
	if !strings.Contains(got, "A paragraph.") {
		t.Errorf("expected paragraph text, got %q", got)
	}
}

func TestMarkdownCleaner_Clean_WithHeaders(t *testing.T) {
	got, err := NewMarkdown().Clean(`<h1>H1</h1><h2>H2</h2><h3>H3</h3>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, want := range []string{"# H1", "## H2", "### H3"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestMarkdownCleaner_Clean_Article(t *testing.T) {
	got, err := NewMarkdown().Clean(readTestdata(t, "article.html"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	contains := []string{
		"# Sourdough at Home",
		"## What You Need",
		"**easier**",
		"- Flour",
		"[full guide](https://example.com/guide)",
		"![A finished loaf](https://cdn.example.com/loaf.jpg)",
		`<iframe src="https://www.youtube.com/embed/abc123" width="560" height="315"></iframe>`,
	}
	for _, want := range contains {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got:\n%s", want, got)
		}
	}

	excludes := []string{"tracking", "color: red", "PROTECTED"}
	for _, bad := range excludes {
		if strings.Contains(got, bad) {
			t.Errorf("did not expect %q in output, got:\n%s", bad, got)
		}
	}
}

func TestMarkdownCleaner_Options(t *testing.T) {
	html := `<p>See <a href="https://example.com">the docs</a>.</p><p><img src="https://example.com/a.png" alt="diagram"></p>`

	tests := []struct {
		name     string
		opts     []MarkdownOption
		contains []string
		excludes []string
	}{
		{
			name:     "defaults",
			contains: []string{"[the docs](https://example.com)", "![diagram]"},
		},
		{
			name:     "strip links",
			opts:     []MarkdownOption{WithStripLinks(true)},
			contains: []string{"See the docs."},
			excludes: []string{"](https://example.com)"},
		},
		{
			name:     "strip images",
			opts:     []MarkdownOption{WithStripImages(true)},
			excludes: []string{"![diagram]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMarkdown(tt.opts...).Clean(html)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("did not expect %q in %q", bad, got)
				}
			}
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"doctype", "<!DOCTYPE html><html><body><p>x</p></body></html>", true},
		{"fragment", "<h1>Title</h1>\n<p>Body</p>", true},
		{"markdown", "# Title\n\nBody text.", false},
		{"markdown with embed", "Intro\n\n<iframe src=\"x\"></iframe>\n\nMore", false},
		{"single tag", "<p>Only one block</p>", false},
		{"markdown heading after tags", "<div>a</div>\n<p>b</p>\n# Heading", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeHTML(tt.input); got != tt.want {
				t.Errorf("LooksLikeHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkdownCleaner_Name(t *testing.T) {
	if got := NewMarkdown().Name(); got != "markdown" {
		t.Errorf("Name() = %q, want %q", got, "markdown")
	}
}

func TestCleanWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"multiple blank lines", "Line 1\n\n\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"leading and trailing", "\n\n  Content  \n\n", "Content"},
		{"trailing spaces", "a  \nb\t", "a\nb"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanWhitespace(tt.input); got != tt.want {
				t.Errorf("cleanWhitespace() = %q, want %q", got, tt.want)
			}
		})
	}
}
