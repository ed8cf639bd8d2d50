// Package legacy moves pages out of the historical content tree into the
// content store.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/markup"
	"github.com/lysyi3m/content-comb/app/report"
	"github.com/lysyi3m/content-comb/app/storage"
)

var ErrRootNotConfigured = errors.New("legacy content root is not configured")

const (
	mediaPages   = "pages"
	wrapperClass = "legacy-page"
)

type Importer struct {
	source afero.Fs
	root   string
	parser DocumentParser
	pages  database.PageRepository
	media  *storage.Storage
}

func NewImporter(source afero.Fs, root string, parser DocumentParser, pages database.PageRepository, media *storage.Storage) *Importer {
	return &Importer{
		source: source,
		root:   root,
		parser: parser,
		pages:  pages,
		media:  media,
	}
}

// Import walks the legacy tree and upserts a page for every content file.
// Per-document failures land in the report; only a missing root or an
// unreadable tree fail the whole run.
func (im *Importer) Import(ctx context.Context) (*report.Report, error) {
	if im.root == "" {
		return nil, ErrRootNotConfigured
	}

	files, err := im.contentFiles()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rep := report.New()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		logicalPath := LogicalPath(im.root, file)
		if logicalPath == "" {
			slog.Debug("Skipping legacy homepage", "file", file)
			rep.Skipped++
			continue
		}

		created, err := im.importDocument(file, logicalPath)
		if err != nil {
			rep.Fail(logicalPath, err)
			continue
		}
		rep.Processed++
		if created {
			rep.Created++
		}
	}

	slog.Info("Legacy import completed", "root", im.root, "report", rep, "duration", time.Since(start))
	return rep, nil
}

func (im *Importer) contentFiles() ([]string, error) {
	var files []string
	err := afero.Walk(im.source, im.root, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsContentFile(file) {
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk legacy root %s: %w", im.root, err)
	}
	return files, nil
}

func (im *Importer) importDocument(file, logicalPath string) (bool, error) {
	doc, err := im.parser.Parse(im.source, file)
	if err != nil {
		return false, err
	}

	page, created, err := im.pages.GetOrCreate(logicalPath, database.Page{
		Title:       doc.Header("title"),
		Keywords:    doc.Header("keywords"),
		Description: doc.Header("description"),
		Content:     markup.Content{Raw: doc.Content, Dialect: doc.ContentType},
		IsPublished: true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert page: %w", err)
	}

	body, err := im.processImages(page, logicalPath)
	if err != nil {
		return created, err
	}

	if body == page.Content.Raw && page.Content.Dialect == markup.DialectHTML {
		return created, nil
	}
	page.Content = markup.Content{Raw: body, Dialect: markup.DialectHTML}
	if err := im.pages.Save(page); err != nil {
		return created, fmt.Errorf("failed to save page: %w", err)
	}

	slog.Debug("Legacy page imported", "path", logicalPath, "created", created)
	return created, nil
}

// processImages rewrites every image in the rendered page body to its media
// URL, copies local assets into media storage and returns the wrapped body.
func (im *Importer) processImages(page *database.Page, logicalPath string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Content.Rendered))
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered content: %w", err)
	}

	body := doc.Find("body")
	body.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		image := im.importImage(strings.TrimSpace(src), logicalPath)
		if image == "" {
			return
		}
		img.SetAttr("src", image)

		if _, err := im.pages.AddPageImage(page.ID, image); err != nil {
			slog.Warn("Failed to record page image", "path", logicalPath, "image", image, "error", err)
		}
	})

	inner, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}
	inner = strings.TrimSpace(inner)

	if body.Children().Length() == 1 && body.ChildrenFiltered("div."+wrapperClass).Length() == 1 {
		return inner, nil
	}
	return `<div class="` + wrapperClass + `">` + inner + `</div>`, nil
}

// importImage returns the final URL for an image reference, copying the
// asset when it lives in the legacy tree and is not stored yet. It returns ""
// for references it cannot place or should not track.
func (im *Importer) importImage(src, logicalPath string) string {
	if src == "" {
		return ""
	}

	u, err := url.Parse(src)
	if err != nil {
		slog.Warn("Skipping unparsable image reference", "path", logicalPath, "src", src, "error", err)
		return ""
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			// data: and friends stay inline and are not tracked
			return ""
		}
		return src
	}
	if u.Host != "" {
		return src
	}
	if strings.HasPrefix(src, im.media.URL(mediaPages)+"/") {
		return src
	}

	var sourcePath, name string
	if strings.HasPrefix(u.Path, "/") {
		sourcePath = filepath.Join(filepath.Dir(filepath.Clean(im.root)), filepath.FromSlash(u.Path))
		name = path.Join(mediaPages, u.Path)
	} else {
		sourcePath = filepath.Join(im.root, filepath.FromSlash(logicalPath), filepath.FromSlash(u.Path))
		name = path.Join(mediaPages, logicalPath, u.Path)
	}
	if !strings.HasPrefix(name, mediaPages+"/") {
		slog.Warn("Skipping image outside the media tree", "path", logicalPath, "src", src)
		return ""
	}

	if im.media.Exists(name) {
		return im.media.URL(name)
	}
	if _, err := im.media.CopyFrom(im.source, sourcePath, name); err != nil {
		// legacy assets are frequently missing
		slog.Debug("Failed to copy legacy image", "path", logicalPath, "src", src, "error", err)
	}
	return im.media.URL(name)
}
