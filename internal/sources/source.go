// Package sources defines the contract job board adapters implement and
// the registry aggregation uses to find them. Each adapter wraps one
// upstream board (HTML page, JSON API, RSS feeds) and produces canonical
// postings; everything board-specific stays behind the Source interface.
package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	apperrors "jobby/internal/errors"
	"jobby/internal/models"
)

type Source interface {
	Name() string

	// Fetch returns postings matching the query. A failed fetch returns
	// an empty slice together with the error so callers can keep going
	// with other sources.
	Fetch(ctx context.Context, query Query) ([]models.JobPosting, error)
}

type Query struct {
	Keywords []string
	Location string
	Limit    int
}

// CacheKey is stable across runs for the same source and query.
func (q Query) CacheKey(source string) string {
	h := fnv.New32a()
	for _, keyword := range q.Keywords {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(keyword))))
		h.Write([]byte{0})
	}
	h.Write([]byte(strings.ToLower(strings.TrimSpace(q.Location))))
	fmt.Fprintf(h, "|%d", q.Limit)
	return fmt.Sprintf("source:%s:%08x", source, h.Sum32())
}

// MatchesKeywords reports whether the text contains any of the keywords,
// case-insensitively. No keywords means everything matches.
func MatchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// Registry holds the configured adapters keyed by name.
type Registry struct {
	sources map[string]Source
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

func (r *Registry) Register(source Source) error {
	name := source.Name()
	if _, ok := r.sources[name]; ok {
		return apperrors.InvalidConfig(fmt.Sprintf("source %q registered twice", name), nil)
	}
	r.sources[name] = source
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Source, bool) {
	source, ok := r.sources[name]
	return source, ok
}

// Enabled resolves the configured names in order. Unknown names are a
// configuration error.
func (r *Registry) Enabled(names []string) ([]Source, error) {
	enabled := make([]Source, 0, len(names))
	for _, name := range names {
		source, ok := r.sources[name]
		if !ok {
			return nil, apperrors.InvalidConfig(fmt.Sprintf("unknown source %q", name), nil)
		}
		enabled = append(enabled, source)
	}
	return enabled, nil
}

// Names lists the registered sources in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
