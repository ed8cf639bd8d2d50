package database

import (
	"time"

	"github.com/lysyi3m/content-comb/app/markup"
)

type PageRepository interface {
	GetPage(path string) (*Page, error)
	GetPageCount() (int, error)
	ListPagesByPrefix(prefix string) ([]Page, error)

	// GetOrCreate returns the page at path, inserting defaults when it does
	// not exist yet. created reports whether an insert happened.
	GetOrCreate(path string, defaults Page) (*Page, bool, error)
	Save(page *Page) error

	AddPageImage(pageID int64, image string) (bool, error)
	ListPageImages(pageID int64) ([]string, error)
}

type BoxRepository interface {
	GetBox(label string) (*Box, error)
	UpdateOrCreate(label string, content markup.Content) (*Box, bool, error)
}

type FeedRepository interface {
	GetFeedByURL(feedURL string) (*Feed, error)
	GetFeedCount() (int, error)
	ListFeeds() ([]Feed, error)

	UpsertFeed(name, feedURL, websiteURL string) (*Feed, error)
	UpdateLastImport(feedID int64, at time.Time) error
}

type BlogEntryRepository interface {
	UpdateOrCreate(entry BlogEntry) (bool, error)
	LatestEntry(feedID int64) (*BlogEntry, error)
	GetEntryCount(feedID int64) (int, error)
}

type StoryRepository interface {
	GetStory(slug string) (*Story, error)
	GetStoryCount() (int, error)
	UpdateOrCreate(story *Story) (bool, error)
}
