package api

import (
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/tasks"
)

// Repositories groups the stores the HTTP surface reads from.
type Repositories struct {
	Pages   database.PageRepository
	Boxes   database.BoxRepository
	Feeds   database.FeedRepository
	Entries database.BlogEntryRepository
	Stories database.StoryRepository
}

type Handler struct {
	repos       Repositories
	configCache *feed.ConfigCache
	fetcher     *feed.Fetcher
	scheduler   tasks.TaskSchedulerInterface
}
