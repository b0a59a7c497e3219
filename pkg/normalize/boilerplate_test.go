package normalize

import (
	"strings"
	"testing"
)

// filler is a long first paragraph that pushes later sections into the tail.
var filler = strings.Repeat("Bread needs time and patience to rise properly. ", 40)

func TestStripBoilerplate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
		report   BoilerplateReport
	}{
		{
			name:     "stop keyword in tail truncates",
			input:    filler + "\n\n## SEO Suggestions\n- keyword one\n- keyword two",
			contains: []string{"rise properly."},
			excludes: []string{"SEO Suggestions", "keyword one"},
			report:   BoilerplateReport{Truncations: 1},
		},
		{
			name:     "stop keyword variants match",
			input:    filler + "\n\n**Call to Action:**\nBuy bread.",
			excludes: []string{"Call to Action", "Buy bread."},
			report:   BoilerplateReport{Truncations: 1},
		},
		{
			name:     "stop keyword before tail is kept",
			input:    "## SEO Suggestions\n\nThis section is the article.\n\n" + filler,
			contains: []string{"SEO Suggestions"},
		},
		{
			name:     "stop keyword after FAQ is kept",
			input:    filler + "\n\n## FAQ\n\n**Q: Is it hard?**\nNo.\n\n## SEO Suggestions\n- kw",
			contains: []string{"## FAQ", "Is it hard?", "SEO Suggestions"},
		},
		{
			name:     "stop keyword followed by long text is kept",
			input:    filler + "\n\n## Call-to-Action\n" + strings.Repeat("Real content continues here. ", 10),
			contains: []string{"Call-to-Action", "Real content continues here."},
		},
		{
			name:     "stop keyword before FAQ cuts up to the FAQ",
			input:    filler + "\n\n## Image Suggestions\n- a loaf\n\n## FAQ\n\n**Q: Why?**\nBecause.",
			contains: []string{"## FAQ", "**Q: Why?**", "Because."},
			excludes: []string{"Image Suggestions", "a loaf"},
			report:   BoilerplateReport{Truncations: 1},
		},
		{
			name:     "key takeaways in tail removed up to next heading",
			input:    filler + "\n\n## Key Takeaways\n- Knead well\n- Be patient\n\n## Conclusion\n\nHappy baking.",
			contains: []string{"## Conclusion", "Happy baking."},
			excludes: []string{"Key Takeaways", "Knead well"},
			report:   BoilerplateReport{KeyTakeaways: 1},
		},
		{
			name:     "key takeaways before tail kept",
			input:    "## Key Takeaways\n- Knead well\n\n" + filler,
			contains: []string{"Key Takeaways", "Knead well"},
		},
		{
			name:     "repeated promo sentences removed after last heading",
			input:    filler + "\n\n## Get Started\n\nWe bake daily. Contact us today for a quote. Don't wait to order your loaf!",
			contains: []string{"## Get Started", "We bake daily."},
			excludes: []string{"Contact us today", "Don't wait"},
			report:   BoilerplateReport{Promos: 2},
		},
		{
			name:     "single promo sentence kept",
			input:    filler + "\n\n## Get Started\n\nWe bake daily. Contact us today for a quote.",
			contains: []string{"Contact us today for a quote."},
		},
		{
			name:     "heading left empty by promos is dropped",
			input:    filler + "\n\n## Wrap up\n\nContact us today for a quote. Don't wait to order!\n\n## FAQ\n\n**Q: Do you deliver?**\nYes. Contact us today.",
			contains: []string{"rise properly.\n\n## FAQ", "Yes. Contact us today."},
			excludes: []string{"Wrap up", "Don't wait"},
			report:   BoilerplateReport{Promos: 2},
		},
		{
			name:     "promos inside the FAQ do not count",
			input:    filler + "\n\n## Wrap up\n\nContact us today for a quote.\n\n## FAQ\n\n**Q: Call?**\nDon't wait. Call us today.",
			contains: []string{"## Wrap up", "Contact us today for a quote.", "Don't wait. Call us today."},
		},
		{
			name:     "curly apostrophe matches",
			input:    filler + "\n\nContact us today. Don’t wait any longer.",
			excludes: []string{"Contact us", "wait any longer"},
			report:   BoilerplateReport{Promos: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rep := StripBoilerplate(tt.input, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in output:\n%s", want, got[max(0, len(got)-300):])
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("did not expect %q in output:\n%s", bad, got[max(0, len(got)-300):])
				}
			}
			if rep != tt.report {
				t.Errorf("report = %+v, want %+v", rep, tt.report)
			}
			if !strings.Contains(got, strings.TrimSpace(filler)) {
				t.Error("content before the tail was removed")
			}
		})
	}
}

func TestStripBoilerplate_FAQInviolable(t *testing.T) {
	input := filler + "\n\n## FAQ\n\n**Q: Can I call?**\nContact us today. Don't wait.\n\n## Key Takeaways\n- Call us today."

	got, rep := StripBoilerplate(input, nil)
	if got != input {
		t.Errorf("FAQ section was modified:\n%s", got)
	}
	if rep != (BoilerplateReport{}) {
		t.Errorf("report = %+v, want nothing removed", rep)
	}
}

func TestStripBoilerplate_CustomKeywords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StopKeywords = []string{"Social Media Posts"}

	got, rep := StripBoilerplate(filler+"\n\n### Social-Media Posts\nTweet this.", cfg)
	if strings.Contains(got, "Tweet this") || rep.Truncations != 1 {
		t.Errorf("custom keyword not applied: %q", got)
	}
}

func TestRuneOffsetFromEnd(t *testing.T) {
	s := "abcé"
	if got := runeOffsetFromEnd(s, 1); got != 3 {
		t.Errorf("runeOffsetFromEnd(1) = %d, want 3", got)
	}
	if got := runeOffsetFromEnd(s, 2); got != 2 {
		t.Errorf("runeOffsetFromEnd(2) = %d, want 2", got)
	}
	if got := runeOffsetFromEnd(s, 10); got != 0 {
		t.Errorf("runeOffsetFromEnd(10) = %d, want 0", got)
	}
}
