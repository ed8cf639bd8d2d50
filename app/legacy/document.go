package legacy

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/lysyi3m/content-comb/app/markup"
)

// Document is a parsed legacy content file.
type Document struct {
	Headers     map[string]string // lower-cased keys: title, keywords, description, ...
	Content     string
	ContentType markup.Dialect
}

func (d *Document) Header(key string) string {
	return d.Headers[key]
}

type DocumentParser interface {
	Parse(fsys afero.Fs, file string) (*Document, error)
}

// FileParser reads the three legacy file conventions. content.ht and
// content.rst start with a "Key: value" header block ended by a blank line;
// body.html is a complete HTML page.
type FileParser struct{}

func NewFileParser() *FileParser {
	return &FileParser{}
}

func (p *FileParser) Parse(fsys afero.Fs, file string) (*Document, error) {
	data, err := afero.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	var doc *Document
	if path.Base(file) == bodyHTML {
		doc, err = p.parseHTMLPage(data)
	} else {
		doc, err = p.parseHeaderFile(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	doc.ContentType = markup.DetectDialect(doc.Content)
	return doc, nil
}

func (p *FileParser) parseHeaderFile(data []byte) (*Document, error) {
	doc := &Document{Headers: make(map[string]string)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var key string
	var body strings.Builder
	inHeaders := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !inHeaders {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		switch {
		case strings.TrimSpace(line) == "":
			inHeaders = false
		case line[0] == ' ' || line[0] == '\t':
			if key == "" {
				return nil, fmt.Errorf("continuation line without header: %q", line)
			}
			doc.Headers[key] += " " + strings.TrimSpace(line)
		default:
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("malformed header line: %q", line)
			}
			key = strings.ToLower(strings.TrimSpace(name))
			doc.Headers[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc.Content = strings.TrimSpace(body.String())
	return doc, nil
}

func (p *FileParser) parseHTMLPage(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := &Document{Headers: make(map[string]string)}
	if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
		doc.Headers["title"] = title
	}
	for _, name := range []string{"keywords", "description"} {
		if value, ok := page.Find(`meta[name="` + name + `"]`).Attr("content"); ok {
			doc.Headers[name] = strings.TrimSpace(value)
		}
	}

	doc.Content = p.extractContent(data)
	if doc.Content == "" {
		body, err := page.Find("body").Html()
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		doc.Content = strings.TrimSpace(body)
	}
	return doc, nil
}

// extractContent returns the main article HTML, or "" when readability
// finds nothing worth keeping.
func (p *FileParser) extractContent(data []byte) string {
	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		slog.Debug("Readability extraction failed", "error", err)
		return ""
	}

	// readability sometimes keeps only the title of short legacy pages
	var text strings.Builder
	if err := article.RenderText(&text); err != nil || len(strings.TrimSpace(text.String())) < minArticleText {
		return ""
	}

	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil {
		slog.Debug("Readability render failed", "error", err)
		return ""
	}

	content := strings.TrimSpace(buf.String())
	slog.Debug("Content extracted successfully", "content_length", len(content))
	return content
}
