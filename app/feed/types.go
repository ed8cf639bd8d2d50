package feed

import (
	"time"
)

// Entry is one normalized feed item. Entries are produced fresh on every
// fetch and carry no identity beyond URL.
type Entry struct {
	Title   string
	Summary string
	PubDate time.Time // UTC, whole seconds
	URL     string
}

// Configuration types

type Config struct {
	Name          string            // Derived from filename (without .yml extension)
	URL           string            `yaml:"url"`
	Title         string            `yaml:"title"`
	WebsiteURL    string            `yaml:"website_url"`
	LegacyDomains map[string]string `yaml:"legacy_domains"` // retired host -> canonical host
	Supernav      bool              `yaml:"supernav"`       // latest entry feeds the supernav box
	Settings      ConfigSettings    `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
}

// DisplayName is the configured title, falling back to the file-derived name.
func (c *Config) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}
