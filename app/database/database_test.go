package database

import (
	"testing"
	"time"

	"github.com/lysyi3m/content-comb/app/markup"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected no error on second run, got: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected clean version 1, got %d (dirty=%t)", version, dirty)
	}
}

func TestPageGetOrCreate(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	defaults := Page{
		Title:       "About",
		Keywords:    "python, about",
		IsPublished: true,
		Content:     markup.Content{Raw: "Some *text*", Dialect: markup.DialectReStructuredText},
	}

	page, created, err := repo.GetOrCreate("about", defaults)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !created {
		t.Error("Expected page to be created")
	}
	if page.ID == 0 {
		t.Error("Expected page ID to be set")
	}
	if page.Content.Rendered != "<p>Some <em>text</em></p>\n" {
		t.Errorf("Expected rendered content on create, got %q", page.Content.Rendered)
	}

	again, created, err := repo.GetOrCreate("about", Page{Title: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Expected existing page to be returned")
	}
	if again.ID != page.ID || again.Title != "About" {
		t.Errorf("Expected original page, got %+v", again)
	}

	count, err := repo.GetPageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 page, got %d", count)
	}
}

func TestPageSaveRecomputesRendered(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	page, _, err := repo.GetOrCreate("doc", Page{Content: markup.PageProfile.New("plain")})
	if err != nil {
		t.Fatal(err)
	}

	page.Content.Raw = "<div>wrapped</div>"
	page.Content.Dialect = markup.DialectHTML
	page.Content.Rendered = "stale"
	if err := repo.Save(page); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetPage("doc")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content.Dialect != markup.DialectHTML {
		t.Errorf("Expected html dialect, got %s", stored.Content.Dialect)
	}
	if stored.Content.Rendered != "<div>wrapped</div>" {
		t.Errorf("Expected rendered cache to be recomputed, got %q", stored.Content.Rendered)
	}
}

func TestPageImagesUnique(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	page, _, err := repo.GetOrCreate("doc", Page{})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		inserted, err := repo.AddPageImage(page.ID, "/media/pages/doc/a.png")
		if err != nil {
			t.Fatal(err)
		}
		if inserted != (i == 0) {
			t.Errorf("Run %d: unexpected inserted=%t", i, inserted)
		}
	}

	images, err := repo.ListPageImages(page.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 {
		t.Errorf("Expected 1 image association, got %d", len(images))
	}
}

func TestListPagesByPrefix(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	for _, path := range []string{"about/success/acme", "about/success/zope", "about/help", "about_success"} {
		if _, _, err := repo.GetOrCreate(path, Page{}); err != nil {
			t.Fatal(err)
		}
	}

	pages, err := repo.ListPagesByPrefix("about/success/")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Path != "about/success/acme" || pages[1].Path != "about/success/zope" {
		t.Errorf("Unexpected pages: %s, %s", pages[0].Path, pages[1].Path)
	}
}

func TestBoxUpdateOrCreate(t *testing.T) {
	repo := NewBoxRepository(newTestDB(t))

	box, created, err := repo.UpdateOrCreate("supernav-python-blog", markup.Content{Raw: "<li>one</li>", Dialect: markup.DialectHTML})
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("Expected box to be created")
	}

	updated, created, err := repo.UpdateOrCreate("supernav-python-blog", markup.Content{Raw: "<li>two</li>", Dialect: markup.DialectHTML})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Expected box to be updated")
	}
	if updated.ID != box.ID {
		t.Errorf("Expected same box ID %d, got %d", box.ID, updated.ID)
	}

	stored, err := repo.GetBox("supernav-python-blog")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content.Rendered != "<li>two</li>" {
		t.Errorf("Expected updated content, got %q", stored.Content.Rendered)
	}

	missing, err := repo.GetBox("nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil box for unknown label, got %v, %v", missing, err)
	}
}

func TestFeedsAndBlogEntries(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	entries := NewBlogEntryRepository(db)

	feed, err := feeds.UpsertFeed("Python Insider", "https://blog.python.org/feeds/posts/default", "https://blog.python.org")
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := feeds.UpsertFeed("Python Insider Blog", feed.FeedURL, feed.WebsiteURL)
	if err != nil {
		t.Fatal(err)
	}
	if renamed.ID != feed.ID || renamed.Name != "Python Insider Blog" {
		t.Errorf("Expected feed to be updated in place, got %+v", renamed)
	}

	older := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)

	for _, e := range []BlogEntry{
		{FeedID: feed.ID, URL: "https://blog.python.org/a.html", Title: "A", PubDate: older},
		{FeedID: feed.ID, URL: "https://blog.python.org/b.html", Title: "B", PubDate: newer},
	} {
		created, err := entries.UpdateOrCreate(e)
		if err != nil {
			t.Fatal(err)
		}
		if !created {
			t.Errorf("Expected %s to be created", e.URL)
		}
	}

	created, err := entries.UpdateOrCreate(BlogEntry{FeedID: feed.ID, URL: "https://blog.python.org/a.html", Title: "A2", PubDate: older})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Expected existing entry to be updated")
	}

	count, _ := entries.GetEntryCount(feed.ID)
	if count != 2 {
		t.Errorf("Expected 2 entries, got %d", count)
	}

	latest, err := entries.LatestEntry(feed.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Title != "B" {
		t.Fatalf("Expected latest entry B, got %+v", latest)
	}
	if !latest.PubDate.Equal(newer) {
		t.Errorf("Expected pub date %v, got %v", newer, latest.PubDate)
	}

	if err := feeds.UpdateLastImport(feed.ID, newer); err != nil {
		t.Fatal(err)
	}
	stored, _ := feeds.GetFeedByURL(feed.FeedURL)
	if stored.LastImport == nil || !stored.LastImport.Equal(newer) {
		t.Errorf("Expected last import %v, got %v", newer, stored.LastImport)
	}

	missing, err := feeds.GetFeedByURL("https://example.com/unknown")
	if err != nil || missing != nil {
		t.Errorf("Expected nil feed for unknown URL, got %v, %v", missing, err)
	}
}

func TestStoryUpdateOrCreate(t *testing.T) {
	repo := NewStoryRepository(newTestDB(t))

	story := &Story{
		Slug:        "acme",
		Name:        "ACME ships Python",
		CompanyName: "ACME",
		Author:      "Guido",
		PubDate:     time.Date(2017, 2, 24, 0, 0, 0, 0, time.UTC),
		Content:     markup.StoryProfile.New("Python *rocks*"),
	}

	created, err := repo.UpdateOrCreate(story)
	if err != nil {
		t.Fatal(err)
	}
	if !created || story.ID == 0 {
		t.Errorf("Expected story to be created with an ID, got created=%t id=%d", created, story.ID)
	}

	story.Author = "Barry"
	created, err = repo.UpdateOrCreate(story)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Expected story to be updated")
	}

	stored, err := repo.GetStory("acme")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Author != "Barry" {
		t.Errorf("Expected updated author, got %s", stored.Author)
	}
	if stored.Content.Rendered == "" {
		t.Error("Expected rendered markdown to be stored")
	}

	count, _ := repo.GetStoryCount()
	if count != 1 {
		t.Errorf("Expected 1 story, got %d", count)
	}
}
