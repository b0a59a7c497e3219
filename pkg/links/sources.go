package links

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
)

// StaticSource serves a fixed candidate list ranked by how many title words
// each anchor text shares with the requested title.
type StaticSource struct {
	candidates []Candidate
}

// NewStaticSource creates a StaticSource.
func NewStaticSource(candidates ...Candidate) *StaticSource {
	return &StaticSource{candidates: slices.Clone(candidates)}
}

// Candidates returns up to n candidates, best match first. n <= 0 returns
// all of them.
func (s *StaticSource) Candidates(_ context.Context, title string, n int) ([]Candidate, error) {
	words := Tokens(title)
	ranked := slices.Clone(s.candidates)
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		return Overlap(words, Tokens(b.AnchorText)) - Overlap(words, Tokens(a.AnchorText))
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Checker reports whether a URL is reachable.
type Checker interface {
	Check(ctx context.Context, url string) error
}

// VerifiedSource drops candidates from Source whose URL fails Checker.
// URLs are checked concurrently, at most Concurrency at a time.
type VerifiedSource struct {
	Source      Source
	Checker     Checker
	Concurrency int
}

// Candidates returns the reachable candidates among those Source returns.
func (v *VerifiedSource) Candidates(ctx context.Context, title string, n int) ([]Candidate, error) {
	cands, err := v.Source.Candidates(ctx, title, n)
	if err != nil {
		return nil, err
	}

	ok := make([]bool, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(v.Concurrency, 1))
	for i, c := range cands {
		g.Go(func() error {
			ok[i] = v.Checker.Check(gctx, c.URL) == nil
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(cands))
	for i, c := range cands {
		if ok[i] {
			out = append(out, c)
		}
	}
	return out, nil
}
