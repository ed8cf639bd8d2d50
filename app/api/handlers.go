package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, fetcher *feed.Fetcher, repos Repositories,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		repos:       repos,
		configCache: configCache,
		fetcher:     fetcher,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetPage(c *gin.Context) {
	path := strings.Trim(c.Param("path"), "/")
	if path == "" {
		c.Status(http.StatusNotFound)
		return
	}

	page, err := h.repos.Pages.GetPage(path)
	if err != nil {
		slog.Error("Database error", "operation", "get_page", "path", path, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if page == nil || !page.IsPublished {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("X-Page-Title", page.Title)
	c.Header("X-Markup-Type", page.Content.Dialect.String())
	c.Header("X-Last-Updated", page.UpdatedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Content.Rendered))
}

func (h *Handler) GetBox(c *gin.Context) {
	label := c.Param("label")

	box, err := h.repos.Boxes.GetBox(label)
	if err != nil {
		slog.Error("Database error", "operation", "get_box", "label", label, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if box == nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("X-Last-Updated", box.UpdatedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(box.Content.Rendered))
}

func (h *Handler) GetStory(c *gin.Context) {
	slug := c.Param("slug")

	story, err := h.repos.Stories.GetStory(slug)
	if err != nil {
		slog.Error("Database error", "operation", "get_story", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if story == nil || !story.IsPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug":         story.Slug,
		"name":         story.Name,
		"company_name": story.CompanyName,
		"company_url":  story.CompanyURL,
		"author":       story.Author,
		"author_email": story.AuthorEmail,
		"category":     story.Category,
		"pub_date":     story.PubDate,
		"content":      story.Content.Rendered,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.repos.Feeds.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	pages, err := h.repos.Pages.GetPageCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_pages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stories, err := h.repos.Stories.GetStoryCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_stories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feeds, err := h.repos.Feeds.GetFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pages":   pages,
		"stories": stories,
		"feeds":   feeds,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]gin.H, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := gin.H{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            feedConfig.DisplayName(),
			"enabled":          feedConfig.Settings.Enabled,
			"supernav":         feedConfig.Supernav,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if dbFeed, err := h.repos.Feeds.GetFeedByURL(feedConfig.URL); err == nil && dbFeed != nil {
			feedInfo["last_import"] = dbFeed.LastImport
			feedInfo["updated_at"] = dbFeed.UpdatedAt

			if entryCount, err := h.repos.Entries.GetEntryCount(dbFeed.ID); err == nil {
				feedInfo["entry_count"] = entryCount
			}
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	details := gin.H{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            feedConfig.DisplayName(),
		"website_url":      feedConfig.WebsiteURL,
		"enabled":          feedConfig.Settings.Enabled,
		"supernav":         feedConfig.Supernav,
		"legacy_domains":   feedConfig.LegacyDomains,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
	}

	dbFeed, err := h.repos.Feeds.GetFeedByURL(feedConfig.URL)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dbFeed != nil {
		stored := gin.H{
			"id":          dbFeed.ID,
			"name":        dbFeed.Name,
			"last_import": dbFeed.LastImport,
			"created_at":  dbFeed.CreatedAt,
			"updated_at":  dbFeed.UpdatedAt,
		}
		if latest, err := h.repos.Entries.LatestEntry(dbFeed.ID); err == nil && latest != nil {
			stored["latest_entry"] = gin.H{
				"title":    latest.Title,
				"url":      latest.URL,
				"pub_date": latest.PubDate,
			}
		}
		details["database"] = stored
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIUpdateFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	updateTask := tasks.NewUpdateBlogTask(name, feedConfig, h.fetcher, h.repos.Feeds, h.repos.Entries, h.repos.Boxes)
	if err := h.scheduler.EnqueueTask(updateTask); err != nil {
		slog.Error("Error enqueueing update task", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue update task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and update task enqueued",
		"feed": gin.H{
			"name":  name,
			"title": feedConfig.DisplayName(),
			"url":   feedConfig.URL,
		},
		"task": gin.H{
			"id":   updateTask.ID,
			"type": updateTask.Type,
		},
	})
}
