package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"jobby/internal/models"
)

// Memory keeps postings in process memory. Everything is lost on
// restart, which is fine for tests and one-off CLI scrapes.
type Memory struct {
	mu       sync.RWMutex
	postings []models.JobPosting
	seen     map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		seen: make(map[string]struct{}),
	}
}

func (m *Memory) SaveJobs(ctx context.Context, postings []models.JobPosting) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, posting := range postings {
		key := posting.DedupeKey()
		if _, ok := m.seen[key]; ok {
			continue
		}
		m.seen[key] = struct{}{}
		m.postings = append(m.postings, posting)
		inserted++
	}

	return inserted, nil
}

func (m *Memory) ListJobs(ctx context.Context, filter ListFilter) ([]models.JobPosting, int, error) {
	m.mu.RLock()
	matched := make([]models.JobPosting, 0, len(m.postings))
	for _, posting := range m.postings {
		if matchesFilter(posting, filter) {
			matched = append(matched, posting)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PostedAt.After(matched[j].PostedAt)
	})

	total := len(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.JobPosting{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return matched[offset:end], total, nil
}

func (m *Memory) Close() error {
	return nil
}

func matchesFilter(posting models.JobPosting, filter ListFilter) bool {
	if filter.Source != "" && posting.Source != filter.Source {
		return false
	}
	if filter.Keyword == "" {
		return true
	}

	keyword := strings.ToLower(filter.Keyword)
	if strings.Contains(strings.ToLower(posting.Title), keyword) {
		return true
	}
	if strings.Contains(strings.ToLower(posting.Description), keyword) {
		return true
	}
	for _, requirement := range posting.Requirements {
		if strings.Contains(strings.ToLower(requirement), keyword) {
			return true
		}
	}

	return false
}
