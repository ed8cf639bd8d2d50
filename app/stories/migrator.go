// Package stories turns imported legacy success story pages into story
// records.
package stories

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/report"
)

const PagePrefix = "about/success/"

var (
	ErrMissingField = errors.New("missing structured field")
	ErrInvalidDate  = errors.New("invalid date")
)

type Migrator struct {
	pages   database.PageRepository
	stories database.StoryRepository
}

func NewMigrator(pages database.PageRepository, stories database.StoryRepository) *Migrator {
	return &Migrator{
		pages:   pages,
		stories: stories,
	}
}

// Run migrates every success story page. A page missing a required field
// fails on its own; the rest of the batch continues.
func (m *Migrator) Run(ctx context.Context) (*report.Report, error) {
	pages, err := m.pages.ListPagesByPrefix(PagePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list success story pages: %w", err)
	}

	start := time.Now()
	rep := report.New()
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		page := &pages[i]
		story, err := StoryFromPage(page)
		if err != nil {
			rep.Fail(page.Path, err)
			continue
		}

		created, err := m.stories.UpdateOrCreate(story)
		if err != nil {
			rep.Fail(page.Path, fmt.Errorf("failed to save story: %w", err))
			continue
		}

		rep.Processed++
		if created {
			rep.Created++
		} else {
			rep.Updated++
		}
		slog.Debug("Story migrated", "slug", story.Slug, "created", created)
	}

	slog.Info("Story migration completed", "report", rep, "duration", time.Since(start))
	return rep, nil
}

// StoryFromPage builds a story from a success story page. author and date
// are required.
func StoryFromPage(page *database.Page) (*database.Story, error) {
	fields := collectFields(contentFields(page.Content))

	author, ok := fields["author"]
	if !ok {
		return nil, fmt.Errorf("%w: author", ErrMissingField)
	}
	date, ok := fields["date"]
	if !ok {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}
	pubDate, ok := ConvertToDatetime(date)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	slug := storySlug(page.Path)
	if slug == "" {
		return nil, fmt.Errorf("no story slug in page path %q", page.Path)
	}
	name := page.Title
	if name == "" {
		name = slug
	}

	return &database.Story{
		Slug:        slug,
		Name:        name,
		CompanyName: cmp.Or(fields.first("company name", "company", "organization"), name),
		CompanyURL:  fields.first("web site", "website", "url"),
		Author:      author,
		AuthorEmail: fields.first("author email", "email"),
		Category:    fields.first("category"),
		PubDate:     pubDate,
		Content:     page.Content,
		IsPublished: page.IsPublished,
	}, nil
}

// storySlug joins every segment below PagePrefix, so nested pages sharing a
// final segment still get distinct slugs.
func storySlug(pagePath string) string {
	rest := strings.Trim(strings.TrimPrefix(pagePath, PagePrefix), "/")
	return strings.ReplaceAll(rest, "/", "-")
}
