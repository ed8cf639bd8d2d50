package feed

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/mmcdole/gofeed"
)

var ErrMalformedEntry = errors.New("malformed feed entry")

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Entries parses data lazily on first iteration and yields normalized
// entries in feed order. A parse failure or a malformed entry is yielded as
// the error of the final pair.
func (p *Parser) Entries(data []byte, rewriter *DomainRewriter) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
		if err != nil {
			yield(Entry{}, fmt.Errorf("failed to parse feed: %w", err))
			return
		}

		for i, item := range feed.Items {
			entry, err := p.normalizeItem(item, rewriter)
			if err != nil {
				yield(Entry{}, fmt.Errorf("entry %d: %w", i, err))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (p *Parser) normalizeItem(item *gofeed.Item, rewriter *DomainRewriter) (Entry, error) {
	if item == nil {
		return Entry{}, fmt.Errorf("%w: empty item", ErrMalformedEntry)
	}
	if item.Link == "" {
		return Entry{}, fmt.Errorf("%w: missing link", ErrMalformedEntry)
	}
	if item.PublishedParsed == nil {
		return Entry{}, fmt.Errorf("%w: missing publication date for %s", ErrMalformedEntry, item.Link)
	}

	return Entry{
		Title:   item.Title,
		Summary: cmp.Or(item.Description, item.Content),
		PubDate: item.PublishedParsed.UTC().Truncate(time.Second),
		URL:     rewriter.Rewrite(item.Link),
	}, nil
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[Entry, error]) ([]Entry, error) {
	var entries []Entry
	for entry, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Latest returns the entry with the most recent publication date.
func Latest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.PubDate.After(latest.PubDate) {
			latest = e
		}
	}
	return latest, true
}
