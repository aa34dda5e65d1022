package scrapers

import (
	"regexp"
	"strings"
	"time"
)

// Relative-time vocabulary, tried in order. The trailing \b keeps the short
// abbreviations from eating longer units ("m" must not match "months").
var postedPatterns = []struct {
	unit string
	re   *regexp.Regexp
}{
	{"minute", regexp.MustCompile(`(\d+)\s*(minutes?|mins?|m)\b`)},
	{"hour", regexp.MustCompile(`(\d+)\s*(hours?|hrs?|h)\b`)},
	{"day", regexp.MustCompile(`(\d+)\s*(days?|d)\b`)},
	{"week", regexp.MustCompile(`(\d+)\s*(weeks?|w)\b`)},
	{"month", regexp.MustCompile(`(\d+)\s*(months?|mo)\b`)},
	{"year", regexp.MustCompile(`(\d+)\s*(years?|yrs?|y)\b`)},
}

// GetPostedDate converts a relative date string like "3 days ago" or
// "Reposted 2 weeks ago" into an absolute timestamp relative to now.
//
// If nothing in the vocabulary matches, now itself is returned. This
// conflates unparsed dates with freshly posted jobs; the lifecycle sweep
// then keeps such jobs alive for a full TTL, which is the lesser evil
// compared to expiring them immediately.
func GetPostedDate(relative string, now time.Time) time.Time {
	relative = strings.ToLower(relative)
	relative = strings.ReplaceAll(relative, "reposted", "")
	relative = strings.ReplaceAll(relative, "updated", "")
	relative = strings.TrimSpace(relative)

	for _, p := range postedPatterns {
		m := p.re.FindStringSubmatch(relative)
		if m == nil {
			continue
		}
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		switch p.unit {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour)
		case "day":
			return now.AddDate(0, 0, -n)
		case "week":
			return now.AddDate(0, 0, -7*n)
		case "month":
			return now.AddDate(0, -n, 0)
		case "year":
			return now.AddDate(-n, 0, 0)
		}
	}

	return now
}
