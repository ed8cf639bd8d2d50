package tasks

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/markup"
)

const SupernavBoxLabel = "supernav-python-blog"

var supernavTemplate = template.Must(template.New("supernav").Parse(
	`<li class="tier-2 element-1" role="treeitem">` +
		`<p class="date-posted">{{.Entry.PubDate.Format "2006-01-02"}}</p>` +
		`<p class="excerpt"><a href="{{.Entry.URL}}">{{.Entry.Title}}</a></p>` +
		`<p class="more"><a href="{{.Feed.WebsiteURL}}">More from {{.Feed.Name}}</a></p>` +
		`</li>`))

// RenderSupernav renders the supernav fragment announcing entry.
func RenderSupernav(f *database.Feed, entry feed.Entry) (string, error) {
	var buf bytes.Buffer
	err := supernavTemplate.Execute(&buf, struct {
		Feed  *database.Feed
		Entry feed.Entry
	}{f, entry})
	if err != nil {
		return "", fmt.Errorf("failed to render supernav: %w", err)
	}
	return buf.String(), nil
}

// UpdateSupernav points the supernav box at the most recent of entries. A
// feed URL with no stored feed is not an error; nothing is written.
func UpdateSupernav(feedURL string, entries []feed.Entry, feedRepo database.FeedRepository, boxRepo database.BoxRepository) (bool, error) {
	latest, ok := feed.Latest(entries)
	if !ok {
		return false, nil
	}

	f, err := feedRepo.GetFeedByURL(feedURL)
	if err != nil {
		return false, fmt.Errorf("failed to look up feed: %w", err)
	}
	if f == nil {
		slog.Debug("No feed record for supernav, skipping", "feed_url", feedURL)
		return false, nil
	}

	fragment, err := RenderSupernav(f, latest)
	if err != nil {
		return false, err
	}

	if _, _, err := boxRepo.UpdateOrCreate(SupernavBoxLabel, markup.Content{Raw: fragment, Dialect: markup.DialectHTML}); err != nil {
		return false, fmt.Errorf("failed to update supernav box: %w", err)
	}
	return true, nil
}
