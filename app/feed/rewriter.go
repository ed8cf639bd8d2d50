package feed

import (
	"strings"
)

// DomainRewriter moves links off retired blog hosts onto the canonical site.
// Only the host segment changes; every other byte of the link is kept.
type DomainRewriter struct {
	domains map[string]string
}

func NewDomainRewriter(domains map[string]string) *DomainRewriter {
	normalized := make(map[string]string, len(domains))
	for legacy, canonical := range domains {
		normalized[strings.ToLower(legacy)] = canonical
	}
	return &DomainRewriter{domains: normalized}
}

func (r *DomainRewriter) Rewrite(link string) string {
	if r == nil || len(r.domains) == 0 {
		return link
	}

	sep := strings.Index(link, "://")
	if sep < 0 {
		return link
	}
	start := sep + len("://")

	end := len(link)
	if i := strings.IndexAny(link[start:], "/?#"); i >= 0 {
		end = start + i
	}

	// skip userinfo, stop before port
	hostStart := start
	if at := strings.LastIndex(link[start:end], "@"); at >= 0 {
		hostStart = start + at + 1
	}
	hostEnd := end
	if colon := strings.LastIndex(link[hostStart:end], ":"); colon >= 0 && !strings.Contains(link[hostStart:end], "]") {
		hostEnd = hostStart + colon
	}

	canonical, ok := r.domains[strings.ToLower(link[hostStart:hostEnd])]
	if !ok {
		return link
	}

	return link[:hostStart] + canonical + link[hostEnd:]
}
