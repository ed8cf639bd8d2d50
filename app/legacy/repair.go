package legacy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/report"
	"github.com/lysyi3m/content-comb/app/storage"
)

const (
	SuccessStoriesPrefix = "about/success/"
	successFilesRef      = "/files/success/"
	successMediaDir      = "successstories"
)

// ImageRepairer re-downloads success story images that never made it into
// media storage and points the page content at the stored copies.
type ImageRepairer struct {
	pages      database.PageRepository
	media      *storage.Storage
	httpClient *http.Client
	serverURL  string
	userAgent  string

	// importedPrefix is where the importer points references it could not
	// copy, e.g. "/media/pages".
	importedPrefix string
	imageRe        *regexp.Regexp
}

func NewImageRepairer(pages database.PageRepository, media *storage.Storage, serverURL string, timeout time.Duration, userAgent string) *ImageRepairer {
	importedPrefix := media.URL(mediaPages)
	return &ImageRepairer{
		pages:          pages,
		media:          media,
		httpClient:     &http.Client{Timeout: timeout},
		serverURL:      strings.TrimRight(serverURL, "/"),
		userAgent:      userAgent,
		importedPrefix: importedPrefix,
		imageRe:        successImageRegexp(importedPrefix),
	}
}

// successImageRegexp matches a legacy success story reference that starts an
// attribute value or a word, optionally behind the importer's media prefix.
// Group 1 is the boundary, group 2 the whole reference.
func successImageRegexp(importedPrefix string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[\s"'(=>])((?:` + regexp.QuoteMeta(importedPrefix) + `)?` +
		regexp.QuoteMeta(successFilesRef) + `[^\s"'()<>]+)`)
}

func (r *ImageRepairer) Repair(ctx context.Context) (*report.Report, error) {
	pages, err := r.pages.ListPagesByPrefix(SuccessStoriesPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list success stories: %w", err)
	}

	start := time.Now()
	rep := report.New()
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		page := &pages[i]
		updated, err := r.repairPage(ctx, page)
		if err != nil {
			rep.Fail(page.Path, err)
			continue
		}
		rep.Processed++
		if updated {
			rep.Updated++
		} else {
			rep.Skipped++
		}
	}

	slog.Info("Story image repair completed", "report", rep, "duration", time.Since(start))
	return rep, nil
}

func (r *ImageRepairer) repairPage(ctx context.Context, page *database.Page) (bool, error) {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range r.imageRe.FindAllStringSubmatch(page.Content.Raw, -1) {
		ref := r.legacyRef(m[2])
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return false, nil
	}

	stored := make(map[string]string, len(refs))
	for _, ref := range refs {
		if mediaURL, ok := r.fetchImage(ctx, ref); ok {
			stored[ref] = mediaURL
		}
	}
	if len(stored) == 0 {
		return false, nil
	}

	raw := r.imageRe.ReplaceAllStringFunc(page.Content.Raw, func(match string) string {
		m := r.imageRe.FindStringSubmatch(match)
		if mediaURL, ok := stored[r.legacyRef(m[2])]; ok {
			return m[1] + mediaURL
		}
		return match
	})

	if raw == page.Content.Raw {
		return false, nil
	}
	page.Content.Raw = raw
	if err := r.pages.Save(page); err != nil {
		return false, fmt.Errorf("failed to save page: %w", err)
	}
	return true, nil
}

// legacyRef strips the importer's media prefix, leaving the path on the
// legacy server.
func (r *ImageRepairer) legacyRef(ref string) string {
	return strings.TrimPrefix(ref, r.importedPrefix)
}

// fetchImage downloads one legacy image and stores it, reporting false when
// the image should be left as it is.
func (r *ImageRepairer) fetchImage(ctx context.Context, ref string) (string, bool) {
	name, err := SanitizeFilename(path.Base(ref))
	if err != nil {
		slog.Warn("Skipping image with unusable filename", "ref", ref, "error", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.serverURL+ref, nil)
	if err != nil {
		slog.Warn("Skipping image", "ref", ref, "error", err)
		return "", false
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Warn("Failed to fetch legacy image", "ref", ref, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Legacy image unavailable", "ref", ref, "status", resp.StatusCode)
		io.Copy(io.Discard, resp.Body)
		return "", false
	}

	mediaURL, err := r.media.Save(path.Join(successMediaDir, name), resp.Body)
	if err != nil {
		slog.Warn("Failed to store legacy image", "ref", ref, "error", err)
		return "", false
	}
	slog.Debug("Legacy image stored", "ref", ref, "url", mediaURL)
	return mediaURL, true
}
