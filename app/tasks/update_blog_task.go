package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
)

type UpdateBlogTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    *feed.Fetcher
	feedRepo   database.FeedRepository
	entryRepo  database.BlogEntryRepository
	boxRepo    database.BoxRepository
}

func NewUpdateBlogTask(feedName string, feedConfig *feed.Config, fetcher *feed.Fetcher, feedRepo database.FeedRepository, entryRepo database.BlogEntryRepository, boxRepo database.BoxRepository) *UpdateBlogTask {
	return &UpdateBlogTask{
		Task:       NewTask(TaskTypeUpdateBlog, feedName),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		feedRepo:   feedRepo,
		entryRepo:  entryRepo,
		boxRepo:    boxRepo,
	}
}

func (t *UpdateBlogTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.Target)
		return nil
	}

	dbFeed, err := t.feedRepo.UpsertFeed(t.FeedConfig.DisplayName(), t.FeedConfig.URL, t.FeedConfig.WebsiteURL)
	if err != nil {
		return fmt.Errorf("failed to register feed: %w", err)
	}

	fetchCtx := ctx
	if t.FeedConfig.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
		defer cancel()
	}

	rewriter := feed.NewDomainRewriter(t.FeedConfig.LegacyDomains)
	entries, err := feed.Collect(t.fetcher.FetchEntries(fetchCtx, t.FeedConfig.URL, rewriter))
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	newCount := 0
	for _, entry := range entries {
		created, err := t.entryRepo.UpdateOrCreate(database.BlogEntry{
			FeedID:  dbFeed.ID,
			URL:     entry.URL,
			Title:   entry.Title,
			Summary: entry.Summary,
			PubDate: entry.PubDate,
		})
		if err != nil {
			return fmt.Errorf("failed to store entry %s: %w", entry.URL, err)
		}
		if created {
			newCount++
		}
	}

	if err := t.feedRepo.UpdateLastImport(dbFeed.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to stamp last import: %w", err)
	}

	supernav := false
	if t.FeedConfig.Supernav {
		supernav, err = UpdateSupernav(t.FeedConfig.URL, entries, t.feedRepo, t.boxRepo)
		if err != nil {
			return err
		}
	}

	slog.Info("Task completed",
		"type", "UpdateBlog",
		"feed", t.Target,
		"duration", t.GetDuration(),
		"total", len(entries),
		"new", newCount,
		"supernav", supernav)

	return nil
}
