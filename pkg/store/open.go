package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type options struct {
	busyTimeout int
	synchronous string
	cacheSize   int
	mkdirAll    bool
	baseURL     string
}

func defaults() options {
	return options{
		busyTimeout: 10_000,
		synchronous: "NORMAL",
	}
}

// Option customises Open.
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithCacheSize sets PRAGMA cache_size. Negative values are KiB.
func WithCacheSize(pages int) Option { return func(o *options) { o.cacheSize = pages } }

// WithMkdirAll creates the parent directories of the database path.
func WithMkdirAll() Option { return func(o *options) { o.mkdirAll = true } }

// WithBaseURL sets the prefix for the URLs of stored documents offered as
// internal link candidates. Candidate URLs are baseURL + "/" + slug.
func WithBaseURL(base string) Option { return func(o *options) { o.baseURL = base } }

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	topic      TEXT NOT NULL DEFAULT '',
	excerpt    TEXT NOT NULL DEFAULT '',
	markdown   TEXT NOT NULL DEFAULT '',
	html       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_updated_at ON documents(updated_at);
`

// dsn builds a modernc DSN that applies the pragmas to every pooled
// connection.
func dsn(path string, o *options) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", o.busyTimeout))
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", o.synchronous))
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	if o.cacheSize != 0 {
		q.Add("_pragma", fmt.Sprintf("cache_size(%d)", o.cacheSize))
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens or creates the document store at path. ":memory:" opens a
// private in-memory store.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}

	if o.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, &o))
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db, baseURL: o.baseURL}, nil
}
