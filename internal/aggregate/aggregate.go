// Package aggregate fans a query out to every enabled source, merges the
// results into one deduplicated batch, and hands the batch to storage
// and messaging.
package aggregate

import (
	"context"
	"sync"

	apperrors "jobby/internal/errors"
	"jobby/internal/messaging"
	"jobby/internal/models"
	"jobby/internal/sources"
	"jobby/internal/store"
	"jobby/internal/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobby/aggregate")

// SourceReport describes one source's contribution to a run.
type SourceReport struct {
	Source  string
	Fetched int
	Kept    int
	Err     error
}

// Result is one aggregation run: the deduplicated batch, how much of it
// the store had not seen before, and the per-source reports in
// configured order.
type Result struct {
	Postings []models.JobPosting
	Reports  []SourceReport
	Stored   int
}

type Aggregator struct {
	sources   []sources.Source
	store     store.Store
	publisher messaging.Publisher
	logger    *zap.Logger
}

func New(enabled []sources.Source, st store.Store, publisher messaging.Publisher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sources:   enabled,
		store:     st,
		publisher: publisher,
		logger:    logger,
	}
}

// Run fetches from every source concurrently. A source that fails
// contributes nothing except a report entry; only a cancelled context or
// a storage failure aborts the run.
func (a *Aggregator) Run(ctx context.Context, query sources.Query) (*Result, error) {
	ctx, span := tracer.Start(ctx, "aggregate.Run")
	defer span.End()

	type slot struct {
		postings []models.JobPosting
		err      error
	}
	slots := make([]slot, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			postings, err := src.Fetch(ctx, query)
			slots[i] = slot{postings: postings, err: err}
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Internal("aggregation cancelled", err)
	}

	// Slot order follows a.sources, so output order is deterministic
	// regardless of which goroutine finished first.
	reports := make([]SourceReport, len(a.sources))
	seen := make(map[string]struct{})
	combined := make([]models.JobPosting, 0)

	for i, src := range a.sources {
		result := slots[i]
		report := SourceReport{
			Source:  src.Name(),
			Fetched: len(result.postings),
			Err:     result.err,
		}

		if result.err != nil {
			a.logger.Error("source failed",
				zap.String("source", src.Name()),
				zap.Error(result.err))
		}

		for _, posting := range result.postings {
			key := posting.DedupeKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			combined = append(combined, posting)
			report.Kept++
		}

		reports[i] = report
	}

	stored, err := a.store.SaveJobs(ctx, combined)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Internal("storing job postings", err)
	}

	published := 0
	for _, posting := range combined {
		if err := a.publisher.PublishJobPosting(ctx, posting); err != nil {
			a.logger.Warn("failed to publish posting",
				zap.String("id", posting.ID),
				zap.Error(err))
			continue
		}
		published++
	}

	span.SetAttributes(
		telemetry.Int("postings.combined", len(combined)),
		telemetry.Int("postings.stored", stored),
		telemetry.Int("postings.published", published),
	)
	a.logger.Info("aggregation complete",
		zap.Int("scraped", len(combined)),
		zap.Int("stored", stored),
		zap.Int("published", published),
		zap.Int("sources", len(a.sources)))

	return &Result{
		Postings: combined,
		Reports:  reports,
		Stored:   stored,
	}, nil
}
