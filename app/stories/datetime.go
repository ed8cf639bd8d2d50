package stories

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ConvertToDatetime parses the loosely formatted dates found in legacy
// story headers, e.g. "2017-02-24" or "2017-02-24 21:05:24". Dates without a
// zone are taken as UTC. ok is false when s is not a date.
func ConvertToDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
