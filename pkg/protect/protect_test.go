package protect

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenize_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		spans int
	}{
		{"empty", "", 0},
		{"plain text", "Just some words.\n\nAnd more.", 0},
		{"single iframe", `Intro <iframe src="https://www.youtube.com/embed/x"></iframe> outro`, 1},
		{"self closing iframe", `<iframe src="a"/>`, 1},
		{"embed and object", "<embed src=\"a.swf\">\n\n<object data=\"b\"><param name=\"x\"></object>", 2},
		{"multiline iframe", "<iframe\n  src=\"x\"\n  width=\"560\">\n</iframe>", 1},
		{"uppercase tags", `<IFRAME SRC="x"></IFRAME>`, 1},
		{"existing placeholder text", "__PROTECTED_0__ literal <iframe src=\"y\"></iframe>", 1},
		{"unicode around", "héllo <iframe src=\"z\"></iframe> wörld ✓", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenized, spans := Tokenize(tt.input)
			if len(spans) != tt.spans {
				t.Fatalf("expected %d spans, got %d", tt.spans, len(spans))
			}
			for _, s := range spans {
				if strings.Contains(tokenized, s.Original) {
					t.Errorf("original %q still present in tokenized text", s.Original)
				}
			}
			if got := Restore(tokenized, spans); got != tt.input {
				t.Errorf("round trip failed:\n got  %q\n want %q", got, tt.input)
			}
		})
	}
}

func TestTokenize_PlaceholderForm(t *testing.T) {
	tokenized, spans := Tokenize(`a <iframe src="1"></iframe> b <iframe src="2"></iframe> c`)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Placeholder != "__PROTECTED_0__" || spans[1].Placeholder != "__PROTECTED_1__" {
		t.Errorf("unexpected placeholders: %q, %q", spans[0].Placeholder, spans[1].Placeholder)
	}
	if tokenized != "a __PROTECTED_0__ b __PROTECTED_1__ c" {
		t.Errorf("unexpected tokenized text: %q", tokenized)
	}
	if spans[0].Rule != "iframe" {
		t.Errorf("expected rule iframe, got %q", spans[0].Rule)
	}
}

func TestTokenize_CollisionFreePrefix(t *testing.T) {
	input := "already has __PROTECTED_0__ here <iframe src=\"x\"></iframe>"
	tokenized, spans := Tokenize(input)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if strings.HasPrefix(spans[0].Placeholder, DefaultPrefix) {
		t.Errorf("placeholder %q collides with existing content", spans[0].Placeholder)
	}
	if strings.Count(tokenized, "__PROTECTED_0__") != 1 {
		t.Errorf("existing literal should be untouched: %q", tokenized)
	}
	if Restore(tokenized, spans) != input {
		t.Error("round trip failed with salted prefix")
	}
}

func TestTokenizer_AllRules(t *testing.T) {
	input := "Text\n\n```html\n<iframe src=\"in-code\"></iframe>\n```\n\n<table><tr><td>a</td></tr></table>\n\n<iframe src=\"live\"></iframe>\n"
	tok := New(AllRules()...)
	tokenized, spans := tok.Tokenize(input)

	if len(spans) != 3 {
		t.Fatalf("expected 3 spans (code, table, iframe), got %d", len(spans))
	}
	if spans[0].Rule != "fenced-code" {
		t.Errorf("expected fenced code first, got %q", spans[0].Rule)
	}
	if !strings.Contains(spans[0].Original, "in-code") {
		t.Error("iframe inside code fence should stay part of the code span")
	}
	if strings.Contains(tokenized, "<table>") || strings.Contains(tokenized, "```") {
		t.Errorf("protected blocks leaked: %q", tokenized)
	}
	if Restore(tokenized, spans) != input {
		t.Error("round trip failed")
	}
}

func TestRestoreStrict(t *testing.T) {
	tokenized, spans := Tokenize(`x <iframe src="a"></iframe> y`)

	t.Run("ok", func(t *testing.T) {
		got, err := RestoreStrict(tokenized, spans)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "<iframe") {
			t.Error("iframe not restored")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := RestoreStrict("placeholder dropped", spans)
		if !errors.Is(err, ErrPlaceholderMissing) {
			t.Errorf("expected ErrPlaceholderMissing, got %v", err)
		}
	})

	t.Run("duplicated", func(t *testing.T) {
		_, err := RestoreStrict(tokenized+" "+spans[0].Placeholder, spans)
		if !errors.Is(err, ErrPlaceholderDuplicated) {
			t.Errorf("expected ErrPlaceholderDuplicated, got %v", err)
		}
	})
}
