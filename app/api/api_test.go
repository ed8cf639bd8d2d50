package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/markup"
	"github.com/lysyi3m/content-comb/app/tasks"
)

type recordingScheduler struct {
	tasks []tasks.TaskInterface
	err   error
}

func (s *recordingScheduler) Start() {}
func (s *recordingScheduler) Stop()  {}

func (s *recordingScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

type testServer struct {
	engine    *gin.Engine
	repos     Repositories
	scheduler *recordingScheduler
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	feedsDir := t.TempDir()
	config := `
url: "https://pythoninsider.blogspot.com/feeds/posts/default"
title: "Python Insider"
website_url: "https://blog.python.org"
supernav: true
settings:
  enabled: true
`
	if err := os.WriteFile(filepath.Join(feedsDir, "python-insider.yml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	configCache := feed.NewConfigCache(feedsDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	repos := Repositories{
		Pages:   database.NewPageRepository(db),
		Boxes:   database.NewBoxRepository(db),
		Feeds:   database.NewFeedRepository(db),
		Entries: database.NewBlogEntryRepository(db),
		Stories: database.NewStoryRepository(db),
	}
	scheduler := &recordingScheduler{}
	fetcher := feed.NewFetcher(http.DefaultClient, feed.NewParser(), "content-comb/test")

	handler := NewHandler(configCache, fetcher, repos, scheduler)
	return &testServer{
		engine:    NewServer(handler, apiKey),
		repos:     repos,
		scheduler: scheduler,
	}
}

func (s *testServer) do(method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %q: %v", w.Body.String(), err)
	}
	return body
}

func TestGetPage(t *testing.T) {
	s := newTestServer(t, "")

	_, _, err := s.repos.Pages.GetOrCreate("about/intro", database.Page{
		Title:       "Introduction",
		IsPublished: true,
		Content:     markup.Content{Raw: "Some *text*", Dialect: markup.DialectReStructuredText},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = s.repos.Pages.GetOrCreate("about/draft", database.Page{
		Title:   "Draft",
		Content: markup.Content{Raw: "Not yet", Dialect: markup.DialectPlain},
	})
	if err != nil {
		t.Fatal(err)
	}

	w := s.do(http.MethodGet, "/pages/about/intro/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<em>text</em>") {
		t.Errorf("Expected rendered content, got %q", w.Body.String())
	}
	if got := w.Header().Get("X-Page-Title"); got != "Introduction" {
		t.Errorf("Expected X-Page-Title 'Introduction', got '%s'", got)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("Expected html content type, got '%s'", got)
	}

	for _, target := range []string{"/pages/about/draft", "/pages/missing", "/pages/"} {
		if w := s.do(http.MethodGet, target, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, w.Code)
		}
	}
}

func TestGetBox(t *testing.T) {
	s := newTestServer(t, "")

	fragment := `<li><a href="https://blog.python.org/a.html">A</a></li>`
	if _, _, err := s.repos.Boxes.UpdateOrCreate(tasks.SupernavBoxLabel, markup.Content{Raw: fragment, Dialect: markup.DialectHTML}); err != nil {
		t.Fatal(err)
	}

	w := s.do(http.MethodGet, "/boxes/"+tasks.SupernavBoxLabel, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != fragment {
		t.Errorf("Expected box fragment, got %q", w.Body.String())
	}

	if w := s.do(http.MethodGet, "/boxes/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetStory(t *testing.T) {
	s := newTestServer(t, "")

	story := &database.Story{
		Slug:        "acme",
		Name:        "ACME ships Python",
		CompanyName: "ACME",
		Author:      "Guido",
		PubDate:     time.Date(2017, 2, 24, 0, 0, 0, 0, time.UTC),
		Content:     markup.StoryProfile.New("Python *rocks*"),
		IsPublished: true,
	}
	if _, err := s.repos.Stories.UpdateOrCreate(story); err != nil {
		t.Fatal(err)
	}

	w := s.do(http.MethodGet, "/stories/acme", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["author"] != "Guido" {
		t.Errorf("Expected author 'Guido', got %v", body["author"])
	}
	if body["company_name"] != "ACME" {
		t.Errorf("Expected company 'ACME', got %v", body["company_name"])
	}

	if w := s.do(http.MethodGet, "/stories/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHealthAndStats(t *testing.T) {
	s := newTestServer(t, "")

	if _, err := s.repos.Feeds.UpsertFeed("Python Insider", "https://pythoninsider.blogspot.com/feeds/posts/default", "https://blog.python.org"); err != nil {
		t.Fatal(err)
	}

	w := s.do(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	health := decode(t, w)
	if health["feeds"] != float64(1) {
		t.Errorf("Expected 1 feed, got %v", health["feeds"])
	}
	if health["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 loaded configuration, got %v", health["loaded_configurations"])
	}

	w = s.do(http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	stats := decode(t, w)
	for key, want := range map[string]float64{"pages": 0, "stories": 0, "feeds": 1} {
		if stats[key] != want {
			t.Errorf("Expected %s=%v, got %v", key, want, stats[key])
		}
	}
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	s := newTestServer(t, "")

	if w := s.do(http.MethodGet, "/api/feeds", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAPIAuthentication(t *testing.T) {
	s := newTestServer(t, "secret")

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodGet, "/api/feeds", tt.headers); w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIListFeeds(t *testing.T) {
	s := newTestServer(t, "secret")
	auth := map[string]string{"X-API-Key": "secret"}

	w := s.do(http.MethodGet, "/api/feeds", auth)
	body := decode(t, w)
	if body["total"] != float64(1) {
		t.Fatalf("Expected 1 feed, got %v", body["total"])
	}
	first := body["feeds"].([]any)[0].(map[string]any)
	if first["name"] != "python-insider" || first["supernav"] != true {
		t.Errorf("Unexpected feed info: %v", first)
	}
	if _, ok := first["entry_count"]; ok {
		t.Error("Expected no entry count before the first import")
	}

	dbFeed, err := s.repos.Feeds.UpsertFeed("Python Insider", "https://pythoninsider.blogspot.com/feeds/posts/default", "https://blog.python.org")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.repos.Entries.UpdateOrCreate(database.BlogEntry{
		FeedID:  dbFeed.ID,
		URL:     "https://blog.python.org/a.html",
		Title:   "A",
		PubDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	w = s.do(http.MethodGet, "/api/feeds", auth)
	first = decode(t, w)["feeds"].([]any)[0].(map[string]any)
	if first["entry_count"] != float64(1) {
		t.Errorf("Expected entry count 1, got %v", first["entry_count"])
	}

	w = s.do(http.MethodGet, "/api/feeds/python-insider", auth)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	details := decode(t, w)
	stored, ok := details["database"].(map[string]any)
	if !ok {
		t.Fatalf("Expected database details, got %v", details)
	}
	latest := stored["latest_entry"].(map[string]any)
	if latest["url"] != "https://blog.python.org/a.html" {
		t.Errorf("Expected latest entry URL, got %v", latest["url"])
	}

	if w := s.do(http.MethodGet, "/api/feeds/unknown", auth); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAPIUpdateFeed(t *testing.T) {
	s := newTestServer(t, "secret")
	auth := map[string]string{"X-API-Key": "secret"}

	w := s.do(http.MethodPost, "/api/feeds/python-insider/update", auth)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(s.scheduler.tasks) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(s.scheduler.tasks))
	}
	task := s.scheduler.tasks[0]
	if task.GetType() != tasks.TaskTypeUpdateBlog || task.GetTarget() != "python-insider" {
		t.Errorf("Expected update_blog task for python-insider, got %s %s", task.GetType(), task.GetTarget())
	}

	if w := s.do(http.MethodPost, "/api/feeds/unknown/update", auth); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	s.scheduler.err = errors.New("task queue is full")
	if w := s.do(http.MethodPost, "/api/feeds/python-insider/update", auth); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodOptions, "/pages/about", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard CORS origin, got '%s'", got)
	}
}
