package database

import (
	"time"

	"github.com/lysyi3m/content-comb/app/markup"
)

type Page struct {
	ID          int64
	Path        string // natural key, e.g. "about/success/acme"
	Title       string
	Keywords    string
	Description string
	Content     markup.Content
	IsPublished bool
	CreatorID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Box is a label-keyed HTML fragment such as a supernav slot.
type Box struct {
	ID        int64
	Label     string
	Content   markup.Content
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Feed struct {
	ID         int64
	Name       string
	FeedURL    string
	WebsiteURL string
	LastImport *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type BlogEntry struct {
	ID        int64
	FeedID    int64
	URL       string
	Title     string
	Summary   string
	PubDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Story struct {
	ID          int64
	Slug        string
	Name        string
	CompanyName string
	CompanyURL  string
	Author      string
	AuthorEmail string
	Category    string
	PubDate     time.Time
	Content     markup.Content
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
