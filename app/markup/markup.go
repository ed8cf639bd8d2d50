// Package markup renders content bodies from their source dialect to HTML.
package markup

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/lysyi3m/content-comb/app/rst"
)

type Dialect string

const (
	DialectNone             Dialect = ""
	DialectPlain            Dialect = "plain"
	DialectHTML             Dialect = "html"
	DialectMarkdown         Dialect = "markdown"
	DialectReStructuredText Dialect = "restructuredtext"
)

var ErrUnknownDialect = errors.New("unknown markup dialect")

var (
	tagRe        = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*(?:\s[^<>]*)?/?>`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)

	markdownPolicy = bluemonday.UGCPolicy()
)

const markdownExtensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs

// ParseDialect maps a stored dialect tag to a Dialect. "none" and the empty
// string both mean no markup.
func ParseDialect(tag string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(tag))); d {
	case "none", DialectNone:
		return DialectNone, nil
	case "text", DialectPlain:
		return DialectPlain, nil
	case "rst", DialectReStructuredText:
		return DialectReStructuredText, nil
	case DialectHTML, DialectMarkdown:
		return d, nil
	}
	return DialectNone, fmt.Errorf("%w: %q", ErrUnknownDialect, tag)
}

func (d Dialect) String() string {
	if d == DialectNone {
		return "none"
	}
	return string(d)
}

// Render converts raw text in dialect d to HTML. The same input always
// produces the same output.
func Render(raw string, d Dialect) (string, error) {
	switch d {
	case DialectNone, DialectHTML:
		// html bodies are author-trusted and pass through unsanitized
		return raw, nil
	case DialectPlain:
		return renderPlain(raw), nil
	case DialectMarkdown:
		out := blackfriday.Run([]byte(normalizeNewlines(raw)), blackfriday.WithExtensions(markdownExtensions))
		return string(markdownPolicy.SanitizeBytes(out)), nil
	case DialectReStructuredText:
		return rst.ToHTML(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
}

func renderPlain(raw string) string {
	raw = strings.TrimSpace(normalizeNewlines(raw))
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for _, block := range blankLinesRe.Split(raw, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		for i, l := range lines {
			lines[i] = html.EscapeString(l)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br />\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// DetectDialect classifies legacy content: anything carrying recognisable
// tags is html, everything else is assumed to be reStructuredText.
func DetectDialect(content string) Dialect {
	if tagRe.MatchString(content) {
		return DialectHTML
	}
	return DialectReStructuredText
}
