package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/quill/pkg/links"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>  Rye\n Bread </title></head><body>ok</body></html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticFetcher_Fetch(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	res, err := f.Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if res.StatusCode != http.StatusOK || !res.OK() {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if res.Title != "Rye Bread" {
		t.Errorf("Title = %q, want %q", res.Title, "Rye Bread")
	}

	res, err = f.Fetch(context.Background(), srv.URL+"/moved")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !strings.HasSuffix(res.FinalURL, "/ok") {
		t.Errorf("FinalURL = %q, want redirect target", res.FinalURL)
	}

	res, err = f.Fetch(context.Background(), srv.URL+"/missing")
	if err != nil {
		t.Fatalf("Fetch() error for 404: %v", err)
	}
	if res.StatusCode != http.StatusNotFound || res.OK() {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
}

func TestStaticFetcher_Check(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{Timeout: 200 * time.Millisecond})

	tests := []struct {
		path    string
		wantErr bool
		is      error
	}{
		{"/ok", false, nil},
		{"/moved", false, nil},
		{"/missing", true, ErrBadStatus},
		{"/slow", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := f.Check(context.Background(), srv.URL+tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Check() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestStaticFetcher_Canceled(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Check(ctx, srv.URL+"/ok"); !errors.Is(err, context.Canceled) {
		t.Errorf("Check() error = %v, want context.Canceled", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := f.Check(ctx, srv.URL+"/slow"); err == nil {
		t.Error("expected error for slow page")
	}
	if time.Since(start) > time.Second {
		t.Error("context deadline not honoured")
	}
}

func TestStaticFetcher_VerifiedSource(t *testing.T) {
	srv := newTestServer(t)
	src := &links.VerifiedSource{
		Source: links.NewStaticSource(
			links.Candidate{AnchorText: "good", URL: srv.URL + "/ok"},
			links.Candidate{AnchorText: "gone", URL: srv.URL + "/missing"},
		),
		Checker:     NewStatic(StaticConfig{}),
		Concurrency: 2,
	}

	got, err := src.Candidates(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	if len(got) != 1 || got[0].AnchorText != "good" {
		t.Errorf("Candidates() = %v, want only the reachable page", got)
	}
}
