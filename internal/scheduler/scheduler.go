// Package scheduler runs the aggregation pipeline on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"jobby/internal/aggregate"
	"jobby/internal/config"
	"jobby/internal/sources"
	"jobby/internal/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobby/scheduler")

type Scheduler struct {
	aggregator *aggregate.Aggregator
	logger     *zap.Logger
	cfg        config.SchedulerConfig
	mutex      sync.Mutex
	isActive   bool
	cancel     context.CancelFunc

	runs     atomic.Int64
	postings atomic.Int64
}

func New(aggregator *aggregate.Aggregator, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		aggregator: aggregator,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start blocks until the context is cancelled or Stop is called. Calling
// Start on an active scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mutex.Lock()
	if s.isActive {
		s.mutex.Unlock()
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.isActive = true
	s.mutex.Unlock()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	if err := s.runOnce(ctx); err != nil {
		s.logger.Error("initial aggregation failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				s.logger.Error("scheduled aggregation failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.isActive = false
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Scheduler.runOnce")
	defer span.End()

	query := sources.Query{
		Keywords: s.cfg.Keywords,
		Location: s.cfg.Location,
		Limit:    s.cfg.Limit,
	}

	result, err := s.aggregator.Run(ctx, query)
	if err != nil {
		span.RecordError(err)
		return err
	}

	runs := s.runs.Add(1)
	total := s.postings.Add(int64(result.Stored))

	span.SetAttributes(
		telemetry.Int("postings.count", len(result.Postings)),
		telemetry.Int("postings.stored", result.Stored),
	)
	s.logger.Info("scheduled aggregation complete",
		zap.Int("scraped", len(result.Postings)),
		zap.Int("stored", result.Stored),
		zap.Int64("total_runs", runs),
		zap.Int64("total_stored", total))
	return nil
}

// Runs reports how many scheduled aggregations have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Postings reports how many postings scheduled runs have stored in total.
func (s *Scheduler) Postings() int64 {
	return s.postings.Load()
}
