package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchEntriesHTTP(t *testing.T) {
	fixture := loadFixture(t, "python-insider.xml")

	var hits atomic.Int32
	var userAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		userAgent.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write(fixture)
	}))
	defer server.Close()

	fetcher := NewFetcher(&http.Client{Timeout: 5 * time.Second}, NewParser(), "content-comb/test")
	seq := fetcher.FetchEntries(context.Background(), server.URL, nil)

	if hits.Load() != 0 {
		t.Error("Expected no request before iteration")
	}

	entries, err := Collect(seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 25 {
		t.Errorf("Expected 25 entries, got %d", len(entries))
	}
	if ua, _ := userAgent.Load().(string); ua != "content-comb/test" {
		t.Errorf("Expected User-Agent 'content-comb/test', got %q", ua)
	}

	if _, err := Collect(seq); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected every iteration to fetch again, got %d requests", hits.Load())
	}
}

func TestFetchEntriesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	fetcher := NewFetcher(http.DefaultClient, NewParser(), "test")
	if _, err := Collect(fetcher.FetchEntries(context.Background(), server.URL, nil)); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestFetchEntriesLocalFile(t *testing.T) {
	path, err := filepath.Abs("testdata/python-insider.xml")
	if err != nil {
		t.Fatal(err)
	}

	fetcher := NewFetcher(http.DefaultClient, NewParser(), "test")
	rewriter := NewDomainRewriter(map[string]string{"pythoninsider.blogspot.com": "blog.python.org"})

	for _, source := range []string{path, "file://" + path} {
		entries, err := Collect(fetcher.FetchEntries(context.Background(), source, rewriter))
		if err != nil {
			t.Fatalf("%s: %v", source, err)
		}
		if len(entries) != 25 {
			t.Errorf("%s: expected 25 entries, got %d", source, len(entries))
		}
		if entries[0].URL != "http://blog.python.org/2026/03/post-25.html" {
			t.Errorf("%s: expected rewritten URL, got %s", source, entries[0].URL)
		}
	}
}

func TestFetchEntriesUnsupportedScheme(t *testing.T) {
	fetcher := NewFetcher(http.DefaultClient, NewParser(), "test")
	if _, err := Collect(fetcher.FetchEntries(context.Background(), "ftp://example.com/feed.xml", nil)); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
}
