package markup

import "fmt"

// Content is a markup body together with its rendered HTML. Rendered is
// derived state: it is rewritten by Recompute and never edited directly.
type Content struct {
	Raw      string
	Dialect  Dialect
	Rendered string
}

// Profile carries the per-record-kind defaults for content fields.
type Profile struct {
	DefaultDialect Dialect
}

var (
	PageProfile      = Profile{DefaultDialect: DialectReStructuredText}
	BoxProfile       = Profile{DefaultDialect: DialectHTML}
	BlogEntryProfile = Profile{DefaultDialect: DialectHTML}
	StoryProfile     = Profile{DefaultDialect: DialectMarkdown}
)

func (p Profile) New(raw string) Content {
	return Content{Raw: raw, Dialect: p.DefaultDialect}
}

// Set replaces the raw text and dialect and re-renders.
func (c *Content) Set(raw string, d Dialect) error {
	c.Raw = raw
	c.Dialect = d
	return c.Recompute()
}

// Recompute re-derives Rendered from Raw and Dialect. Persistence layers call
// it before every write.
func (c *Content) Recompute() error {
	rendered, err := Render(c.Raw, c.Dialect)
	if err != nil {
		return fmt.Errorf("failed to render %s content: %w", c.Dialect, err)
	}
	c.Rendered = rendered
	return nil
}
