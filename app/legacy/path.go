package legacy

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	contentHT  = "content.ht"
	contentRST = "content.rst"
	bodyHTML   = "body.html"

	minArticleText = 200
)

var suffixes = []string{contentHT, contentRST, bodyHTML}

// IsContentFile reports whether name follows one of the legacy content file
// conventions.
func IsContentFile(name string) bool {
	base := path.Base(filepath.ToSlash(name))
	if base == bodyHTML {
		return true
	}
	for _, suffix := range suffixes[:2] {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// LogicalPath derives the page path of a legacy file: the root prefix and
// the convention suffix are removed and surrounding slashes trimmed. The
// legacy homepage maps to "".
func LogicalPath(root, file string) string {
	rel := filepath.ToSlash(file)
	if r := strings.TrimRight(filepath.ToSlash(root), "/"); r != "" {
		rel = strings.TrimPrefix(rel, r)
	}

	for _, suffix := range suffixes {
		if strings.HasSuffix(rel, suffix) {
			rel = strings.TrimSuffix(rel, suffix)
			break
		}
	}
	return strings.Trim(rel, "/")
}
