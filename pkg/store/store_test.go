package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/quill/pkg/links"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "quill.db"), append([]Option{WithMkdirAll()}, opts...)...)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t, WithBusyTimeout(5000))

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var busy int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&busy); err != nil {
		t.Fatal(err)
	}
	if busy != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busy)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Put(ctx, Document{Slug: "a", Title: "A"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, err := s.GetBySlug(ctx, "a"); err != nil {
		t.Errorf("GetBySlug() error: %v", err)
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	put, err := s.Put(ctx, Document{
		Slug:     "rye-bread",
		Title:    "Rye Bread",
		Topic:    "rye bread",
		Excerpt:  "Dense and dark...",
		Markdown: "# Rye Bread\n\nDense and dark.",
		HTML:     "<p>Dense and dark.</p>",
	})
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if put.ID == "" {
		t.Fatal("Put() did not assign an ID")
	}
	if put.CreatedAt.IsZero() || put.UpdatedAt.IsZero() {
		t.Error("Put() did not set timestamps")
	}

	got, err := s.Get(ctx, put.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != "Rye Bread" || got.Markdown != put.Markdown || got.HTML != put.HTML {
		t.Errorf("Get() = %+v, want stored document", got)
	}

	bySlug, err := s.GetBySlug(ctx, "rye-bread")
	if err != nil {
		t.Fatalf("GetBySlug() error: %v", err)
	}
	if bySlug.ID != put.ID {
		t.Errorf("GetBySlug().ID = %q, want %q", bySlug.ID, put.ID)
	}
}

func TestStore_PutReplacesBySlug(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, Document{Slug: "bagels", Title: "Bagels"})
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	second, err := s.Put(ctx, Document{Slug: "bagels", Title: "Better Bagels"})
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on replace: %q -> %q", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on replace")
	}

	docs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "Better Bagels" {
		t.Errorf("List() = %v, want one replaced document", docs)
	}
}

func TestStore_PutEmptySlug(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Put(context.Background(), Document{Title: "x"}); err == nil {
		t.Error("expected error for empty slug")
	}
}

func TestStore_ListDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, slug := range []string{"a", "b", "c"} {
		d, err := s.Put(ctx, Document{Slug: slug, Title: slug})
		if err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		ids = append(ids, d.ID)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d documents", len(limited))
	}

	if err := s.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete(): err = %v, want ErrNotFound", err)
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 2 {
		t.Errorf("List() after delete returned %d documents, want 2", len(all))
	}
}

func TestStore_Candidates(t *testing.T) {
	s := openTestStore(t, WithBaseURL("https://blog.example.com/posts/"))
	ctx := context.Background()

	for _, d := range []Document{
		{Slug: "sourdough-starter", Title: "Keeping a Sourdough Starter Alive", Topic: "sourdough starter"},
		{Slug: "rye-sourdough", Title: "Rye Sourdough Loaf", Topic: "rye sourdough"},
		{Slug: "bagels", Title: "Boiled Bagels", Topic: ""},
		{Slug: "self", Title: "Sourdough Rye Bread"},
	} {
		if _, err := s.Put(ctx, d); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}

	got, err := s.Candidates(ctx, "Sourdough Rye Bread", 5)
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	want := []links.Candidate{
		{AnchorText: "rye sourdough", URL: "https://blog.example.com/posts/rye-sourdough"},
		{AnchorText: "sourdough starter", URL: "https://blog.example.com/posts/sourdough-starter"},
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	one, _ := s.Candidates(ctx, "Sourdough Rye Bread", 1)
	if len(one) != 1 {
		t.Errorf("Candidates(n=1) returned %d", len(one))
	}

	if none, _ := s.Candidates(ctx, "the and", 3); len(none) != 0 {
		t.Errorf("stopword title returned %v", none)
	}
}

func TestStore_AsLinkSource(t *testing.T) {
	s := openTestStore(t, WithBaseURL("https://blog.example.com"))
	ctx := context.Background()
	if _, err := s.Put(ctx, Document{Slug: "starter", Title: "Starter Care", Topic: "sourdough starter"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	inj, err := links.NewInjector(links.Internal, s, nil)
	if err != nil {
		t.Fatalf("NewInjector() error: %v", err)
	}
	out, n := inj.Inject(ctx, "<p>Feed the sourdough starter.</p>", "Sourdough Starter Feeding", 3)
	if n != 1 {
		t.Fatalf("inserted = %d, want 1: %s", n, out)
	}
	want := `<a href="https://blog.example.com/starter" data-link="internal">sourdough starter</a>`
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q: %s", want, out)
	}
}

func TestStore_CandidatesWithoutBaseURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, Document{Slug: "starter", Title: "Sourdough Starter Care"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	_, err := s.Candidates(ctx, "Sourdough Starter Feeding", 3)
	if !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("err = %v, want ErrNoBaseURL", err)
	}
}
