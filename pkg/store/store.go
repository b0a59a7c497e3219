// Package store persists published documents in SQLite and serves them
// back as internal link candidates.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/quill/pkg/links"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")

	// ErrNoBaseURL is returned by Candidates when the store was opened
	// without WithBaseURL. Internal links need absolute URLs.
	ErrNoBaseURL = errors.New("no base URL configured")
)

// Document is a published document.
type Document struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic,omitempty"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Markdown  string    `json:"markdown,omitempty"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a SQLite backed document store. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	baseURL string
}

var _ links.Source = (*Store)(nil)

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts doc, or replaces the stored document with the same slug. A
// missing ID is generated. The stored document is returned.
func (s *Store) Put(ctx context.Context, doc Document) (*Document, error) {
	if strings.TrimSpace(doc.Slug) == "" {
		return nil, errors.New("store: put: empty slug")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	var created int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, slug, title, topic, excerpt, markdown, html, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			topic = excluded.topic,
			excerpt = excluded.excerpt,
			markdown = excluded.markdown,
			html = excluded.html,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		doc.ID, doc.Slug, doc.Title, doc.Topic, doc.Excerpt, doc.Markdown, doc.HTML,
		now.UnixNano(), now.UnixNano(),
	).Scan(&doc.ID, &created)
	if err != nil {
		return nil, fmt.Errorf("store: put %s: %w", doc.Slug, err)
	}

	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = now
	return &doc, nil
}

const columns = `id, slug, title, topic, excerpt, markdown, html, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var d Document
	var created, updated int64
	if err := row.Scan(&d.ID, &d.Slug, &d.Title, &d.Topic, &d.Excerpt, &d.Markdown, &d.HTML, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt = time.Unix(0, created).UTC()
	d.UpdatedAt = time.Unix(0, updated).UTC()
	return &d, nil
}

func (s *Store) getOne(ctx context.Context, where string, arg any) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM documents WHERE `+where+` = ?`, arg)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, where, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return d, nil
}

// Get returns the document with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	return s.getOne(ctx, "id", id)
}

// GetBySlug returns the document with the given slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Document, error) {
	return s.getOne(ctx, "slug", slug)
}

// List returns up to limit documents, most recently updated first. A limit
// of zero or less returns every document.
func (s *Store) List(ctx context.Context, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM documents ORDER BY updated_at DESC, slug LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Delete removes the document with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return nil
}

// URL returns the public URL of the document with the given slug.
func (s *Store) URL(slug string) string {
	return strings.TrimSuffix(s.baseURL, "/") + "/" + slug
}

// Candidates returns up to n stored documents related to title, for use as
// internal links. Documents are ranked by how many words their title and
// topic share with title. The anchor text is the document's topic, or its
// title when it has none. A document with the same title is never offered.
// Without a base URL ErrNoBaseURL is returned.
func (s *Store) Candidates(ctx context.Context, title string, n int) ([]links.Candidate, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("store: candidates: %w", ErrNoBaseURL)
	}
	words := links.Tokens(title)
	if len(words) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT slug, title, topic FROM documents ORDER BY updated_at DESC, slug`)
	if err != nil {
		return nil, fmt.Errorf("store: candidates: %w", err)
	}
	defer rows.Close()

	type scored struct {
		links.Candidate
		score int
	}
	var found []scored
	for rows.Next() {
		var slug, docTitle, topic string
		if err := rows.Scan(&slug, &docTitle, &topic); err != nil {
			return nil, fmt.Errorf("store: candidates: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(docTitle), strings.TrimSpace(title)) {
			continue
		}
		score := links.Overlap(words, links.Tokens(docTitle+" "+topic))
		if score == 0 {
			continue
		}
		anchor := topic
		if strings.TrimSpace(anchor) == "" {
			anchor = docTitle
		}
		found = append(found, scored{links.Candidate{AnchorText: anchor, URL: s.URL(slug)}, score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: candidates: %w", err)
	}

	slices.SortStableFunc(found, func(a, b scored) int { return b.score - a.score })
	if n > 0 && len(found) > n {
		found = found[:n]
	}
	out := make([]links.Candidate, len(found))
	for i, f := range found {
		out[i] = f.Candidate
	}
	return out, nil
}
