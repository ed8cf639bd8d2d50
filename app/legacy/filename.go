package legacy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrInvalidFilename = errors.New("invalid filename")

// SanitizeFilename folds name to ASCII and keeps only letters, digits, dots
// and hyphens. Whitespace and underscores become hyphens.
func SanitizeFilename(name string) (string, error) {
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidFilename, name, err)
	}

	var b strings.Builder
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	safe := b.String()
	if safe == "" || strings.HasPrefix(safe, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return safe, nil
}
