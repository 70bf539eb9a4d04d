// Package store persists aggregated job postings and serves paginated
// listings over them. Two implementations are provided: an in-memory
// store for tests and single-shot CLI runs, and a ClickHouse store for
// deployments that keep history across runs.
package store

import (
	"context"

	"jobby/internal/models"
)

type ListFilter struct {
	// Keyword restricts results to postings whose title, description or
	// requirements contain the term, case-insensitively.
	Keyword string
	// Source restricts results to postings fetched from one source.
	Source string
	Limit  int
	Offset int
}

const DefaultListLimit = 50

type Store interface {
	// SaveJobs persists the postings and reports how many were newly
	// stored. Postings already present are left untouched.
	SaveJobs(ctx context.Context, postings []models.JobPosting) (int, error)

	// ListJobs returns one page of postings, newest first, together
	// with the total number of postings matching the filter.
	ListJobs(ctx context.Context, filter ListFilter) ([]models.JobPosting, int, error)

	Close() error
}
