package normalize

import (
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		report FormatReport
	}{
		{
			name:   "bold stripped",
			input:  "Some **bold** text and **more**.",
			want:   "Some bold text and more.",
			report: FormatReport{BoldStripped: 2},
		},
		{
			name:   "underscore bold stripped",
			input:  "Some __bold__ text.",
			want:   "Some bold text.",
			report: FormatReport{BoldStripped: 1},
		},
		{
			name:   "FAQ question bold kept",
			input:  "## FAQ\n\n**Q: Is it hard?**\nNo, it is **easy**.",
			want:   "## FAQ\n\n**Q: Is it hard?**\nNo, it is easy.",
			report: FormatReport{BoldStripped: 1},
		},
		{
			name:  "subheading does not end FAQ",
			input: "## FAQ\n\n### Baking\n\n**Q: Why knead?**\nFor gluten.",
			want:  "## FAQ\n\n### Baking\n\n**Q: Why knead?**\nFor gluten.",
		},
		{
			name:   "same level heading ends FAQ",
			input:  "## FAQ\n\n**Q: Why?**\nBecause.\n\n## Next\n\n**Q: Not a question here**",
			want:   "## FAQ\n\n**Q: Why?**\nBecause.\n\n## Next\n\nQ: Not a question here",
			report: FormatReport{BoldStripped: 1},
		},
		{
			name:  "heading gets space and blank line",
			input: "##Heading\nText",
			want:  "## Heading\n\nText",
		},
		{
			name:  "blank runs collapse",
			input: "\n\nPara one.\n\n\n\nPara two.   \n\n",
			want:  "Para one.\n\nPara two.",
		},
		{
			name:  "list kept together and separated",
			input: "Intro:\n- one\n- two\n\n\nAfter list.",
			want:  "Intro:\n\n- one\n- two\n\nAfter list.",
		},
		{
			name:   "broken paragraph merged",
			input:  "The bread was\n\nbaked slowly.",
			want:   "The bread was baked slowly.",
			report: FormatReport{ParagraphsMerged: 1},
		},
		{
			name:  "no merge after terminal punctuation",
			input: "The bread rose.\n\nthen it baked.",
			want:  "The bread rose.\n\nthen it baked.",
		},
		{
			name:  "no merge before uppercase",
			input: "The bread was\n\nBaked slowly.",
			want:  "The bread was\n\nBaked slowly.",
		},
		{
			name:  "placeholder isolated and untouched",
			input: "Text before.\n__PROTECTED_0__\nText after.",
			want:  "Text before.\n\n__PROTECTED_0__\n\nText after.",
		},
		{
			name:  "image isolated",
			input: "Intro.\n![Loaf](https://example.com/loaf.jpg)\nMore.",
			want:  "Intro.\n\n![Loaf](https://example.com/loaf.jpg)\n\nMore.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rep := Format(tt.input, nil)
			if got != tt.want {
				t.Errorf("Format() =\n%q\nwant\n%q", got, tt.want)
			}
			if rep != tt.report {
				t.Errorf("report = %+v, want %+v", rep, tt.report)
			}
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	input := "##Intro\nThe **crust** was\n\ngolden.\n\n\n- flour\n\n- water\n__PROTECTED_0__\n## FAQ\n**Q: Why?**\nBecause."

	once, _ := Format(input, nil)
	twice, rep := Format(once, nil)
	if once != twice {
		t.Errorf("Format is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
	if rep != (FormatReport{}) {
		t.Errorf("second pass report = %+v, want zero", rep)
	}
}

func TestFormat_Options(t *testing.T) {
	cfg := PresetMinimal()
	cfg.StripBold = false

	got, rep := Format("Keep **this**.\n\nthe end", cfg)
	want := "Keep **this**.\n\nthe end"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if rep != (FormatReport{}) {
		t.Errorf("report = %+v, want zero", rep)
	}
}

func TestEndsSentence(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Done.", true},
		{"Really?", true},
		{"Wait for it…", true},
		{"Quoted end.\"", true},
		{"(aside.)", true},
		{"no end", false},
		{"trailing **bold**", false},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := endsSentence(tt.line); got != tt.want {
				t.Errorf("endsSentence(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
