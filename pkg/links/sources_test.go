package links

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestTokens(t *testing.T) {
	got := Tokens("How to Bake the Best Rye-Bread at home, at HOME")
	want := []string{"bake", "rye", "bread", "home"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	if got := Overlap([]string{"a1x", "b2x", "c3x"}, []string{"b2x", "c3x", "d4x"}); got != 2 {
		t.Errorf("Overlap() = %d, want 2", got)
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(
		Candidate{AnchorText: "Bagels", URL: "https://example.com/bagels"},
		Candidate{AnchorText: "Rye bread recipe", URL: "https://example.com/rye"},
		Candidate{AnchorText: "Sourdough rye bread", URL: "https://example.com/sourdough-rye"},
	)

	got, err := src.Candidates(context.Background(), "Rye Sourdough Bread", 2)
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	var urls []string
	for _, c := range got {
		urls = append(urls, c.URL)
	}
	want := []string{"https://example.com/sourdough-rye", "https://example.com/rye"}
	if !slices.Equal(urls, want) {
		t.Errorf("Candidates() = %v, want %v", urls, want)
	}

	all, _ := src.Candidates(context.Background(), "Bagels", 0)
	if len(all) != 3 || all[0].AnchorText != "Bagels" {
		t.Errorf("Candidates(n=0) = %v, want all three with Bagels first", all)
	}
}

type fakeChecker struct {
	mu      sync.Mutex
	bad     map[string]bool
	checked []string
}

func (f *fakeChecker) Check(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, url)
	if f.bad[url] {
		return errors.New("404")
	}
	return nil
}

func TestVerifiedSource(t *testing.T) {
	inner := NewStaticSource(
		Candidate{AnchorText: "one", URL: "https://example.com/1"},
		Candidate{AnchorText: "two", URL: "https://example.com/2"},
		Candidate{AnchorText: "three", URL: "https://example.com/3"},
	)
	checker := &fakeChecker{bad: map[string]bool{"https://example.com/2": true}}
	src := &VerifiedSource{Source: inner, Checker: checker, Concurrency: 2}

	got, err := src.Candidates(context.Background(), "numbers", 0)
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	if len(got) != 2 || got[0].AnchorText != "one" || got[1].AnchorText != "three" {
		t.Errorf("Candidates() = %v, want one and three in order", got)
	}
	if len(checker.checked) != 3 {
		t.Errorf("checked %d urls, want 3", len(checker.checked))
	}
}

func TestVerifiedSource_Errors(t *testing.T) {
	errDown := errors.New("down")
	src := &VerifiedSource{
		Source: SourceFunc(func(context.Context, string, int) ([]Candidate, error) {
			return nil, errDown
		}),
		Checker: &fakeChecker{},
	}
	if _, err := src.Candidates(context.Background(), "t", 1); !errors.Is(err, errDown) {
		t.Errorf("err = %v, want source error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src = &VerifiedSource{Source: NewStaticSource(Candidate{AnchorText: "a", URL: "https://example.com"}), Checker: &fakeChecker{}}
	if _, err := src.Candidates(ctx, "t", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
