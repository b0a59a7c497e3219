package normalize

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		topic     string
		want      string
		source    string
		remaining string
	}{
		{
			name:      "bold label with value on next line",
			input:     "1. **Title**\nMy Great Post\n\n3. **Content**\n# My Great Post",
			want:      "My Great Post",
			source:    TitleSourceBoldLabel,
			remaining: "\n3. **Content**\n# My Great Post",
		},
		{
			name:      "bold label with inline value",
			input:     "**Title:** Bread Basics\nBody",
			want:      "Bread Basics",
			source:    TitleSourceBoldLabel,
			remaining: "Body",
		},
		{
			name:      "label inside bold",
			input:     "**Title: Bread Basics**\nBody",
			want:      "Bread Basics",
			source:    TitleSourceBoldLabel,
			remaining: "Body",
		},
		{
			name:      "escaped bold label",
			input:     "\\*\\*Title\\*\\*\n\"Sourdough Secrets\"\nBody",
			want:      "Sourdough Secrets",
			source:    TitleSourceBoldLabel,
			remaining: "Body",
		},
		{
			name:      "plain label",
			input:     "Title: Bread Basics\n\nBody",
			want:      "Bread Basics",
			source:    TitleSourceLabel,
			remaining: "\nBody",
		},
		{
			name:      "quoted line",
			input:     "“Bread Basics for Beginners”\n\nBody",
			want:      "Bread Basics for Beginners",
			source:    TitleSourceQuoted,
			remaining: "\nBody",
		},
		{
			name:      "h1 after content marker",
			input:     "# Introduction\n\n**Content**\n# Baking Guide\n\nBody",
			want:      "Baking Guide",
			source:    TitleSourceContentH1,
			remaining: "# Introduction\n\n**Content**\n# Baking Guide\n\nBody",
		},
		{
			name:      "any h1 skips section words",
			input:     "# Introduction\n\nText\n\n# Real Title Here",
			want:      "Real Title Here",
			source:    TitleSourceH1,
			remaining: "# Introduction\n\nText\n\n# Real Title Here",
		},
		{
			name:      "short candidate falls through to next family",
			input:     "**Title**\nHi\n\n# Longer Heading",
			want:      "Longer Heading",
			source:    TitleSourceH1,
			remaining: "**Title**\nHi\n\n# Longer Heading",
		},
		{
			name:      "bold heading text is cleaned",
			input:     "# **Bread & Butter**",
			want:      "Bread & Butter",
			source:    TitleSourceH1,
			remaining: "# **Bread & Butter**",
		},
		{
			name:      "topic fallback",
			input:     "just some text",
			topic:     "  Bread  ",
			want:      "Bread",
			source:    TitleSourceTopic,
			remaining: "just some text",
		},
		{
			name:      "short heading without topic",
			input:     "# Tips\n\nKeep the oven hot.",
			want:      "Tips",
			source:    TitleSourceFirstLine,
			remaining: "# Tips\n\nKeep the oven hot.",
		},
		{
			name:      "first line without topic",
			input:     "**Meta Description**\n\njust some text",
			want:      "just some text",
			source:    TitleSourceFirstLine,
			remaining: "**Meta Description**\n\njust some text",
		},
		{
			name:      "nothing to take a title from",
			input:     "",
			want:      Untitled,
			source:    TitleSourceFirstLine,
			remaining: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, remaining, source := ExtractTitle(splitLines(tt.input), tt.topic, nil)
			if title != tt.want {
				t.Errorf("title = %q, want %q", title, tt.want)
			}
			if source != tt.source {
				t.Errorf("source = %q, want %q", source, tt.source)
			}
			if got := joinLines(remaining); got != tt.remaining {
				t.Errorf("remaining = %q, want %q", got, tt.remaining)
			}
		})
	}
}

func TestExtractTitle_RejectsLiteralTitle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTitleLength = 0

	title, _, source := ExtractTitle(splitLines("**Title**\nTitle\n\n# Proper Heading"), "", cfg)
	if title != "Proper Heading" || source != TitleSourceH1 {
		t.Errorf("got %q from %s, want the heading", title, source)
	}
}

func TestExtractTitle_DoesNotMutateInput(t *testing.T) {
	lines := splitLines("1. **Title**\nMy Great Post\n\nBody")
	before := append([]string(nil), lines...)

	ExtractTitle(lines, "", nil)

	if !reflect.DeepEqual(lines, before) {
		t.Error("ExtractTitle modified its input")
	}
}

func TestTitleFamilyPredicates(t *testing.T) {
	lines := splitLines("Intro\n**Title**\n\n\n\n\nToo far away")
	if got := titleFromBoldLabel(lines); len(got) != 0 {
		t.Errorf("value more than three lines away should not be used, got %+v", got)
	}

	lines = splitLines("**Title**\n**Content**\nBody")
	if got := titleFromBoldLabel(lines); len(got) != 0 {
		t.Errorf("a following marker is not a title value, got %+v", got)
	}

	if !isSectionWord("## FAQ") || !isSectionWord("Key Takeaways:") {
		t.Error("expected section words to be recognised")
	}
	if isSectionWord("Baking Bread") {
		t.Error("ordinary heading treated as section word")
	}

	if qualifiesAsTitle("Short", 5) {
		t.Error("five runes should not exceed a minimum of five")
	}
	if !qualifiesAsTitle(strings.Repeat("é", 6), 5) {
		t.Error("length should count runes")
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"bake the bread slowly", 12, "bake the"},
		{"one, two", 5, "one"},
		{"unbrokenword", 4, "unbr"},
	}
	for _, tt := range tests {
		if got := truncateWords(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
