package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "jobby/internal/errors"
	"jobby/internal/models"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

var timeNow = time.Now

// CleanText collapses runs of whitespace into single spaces and trims the
// result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Today is the posted-date fallback: the current UTC day at midnight.
func Today() time.Time {
	return timeNow().UTC().Truncate(24 * time.Hour)
}

// DayOrToday truncates t to its UTC day, or falls back to Today for zero
// times.
func DayOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return Today()
	}
	return t.UTC().Truncate(24 * time.Hour)
}

// ResolveURL turns a possibly-relative link into an absolute one against
// base. Links that already carry a scheme pass through untouched.
func ResolveURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return base + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base + href
	}
	return b.ResolveReference(ref).String()
}

// ValidatePosting checks the canonical required fields. A posting that fails
// validation is dropped by its adapter, never surfaced as a batch error.
func ValidatePosting(p *models.JobPosting) error {
	fields := []struct {
		name  string
		value string
	}{
		{"title", p.Title},
		{"company", p.Company},
		{"location", p.Location},
		{"apply_url", p.ApplyURL},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.InvalidRecord(fmt.Sprintf("missing required field: %s", f.name), nil)
		}
	}
	return nil
}
