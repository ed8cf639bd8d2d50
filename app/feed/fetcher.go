package feed

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"
	"strings"
)

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
}

func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
	}
}

// FetchEntries retrieves feedURL and yields its normalized entries. Nothing
// is fetched until the sequence is ranged over, and every range fetches
// again. feedURL may be http(s), a file:// URI or a local path.
func (f *Fetcher) FetchEntries(ctx context.Context, feedURL string, rewriter *DomainRewriter) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		data, err := f.fetch(ctx, feedURL)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for entry, err := range f.parser.Entries(data, rewriter) {
			if !yield(entry, err) || err != nil {
				return
			}
		}
	}
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %q: %w", feedURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, feedURL)
	case "file":
		return f.readFile(u.Path)
	case "":
		return f.readFile(feedURL)
	}
	return nil, fmt.Errorf("unsupported feed URL scheme: %s", u.Scheme)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
