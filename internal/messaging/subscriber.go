package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"jobby/internal/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Subscriber consumes postings published on jobs.new inside the
// matchers queue group. It is the attachment point for anything that
// wants to react to freshly aggregated postings.
type Subscriber struct {
	logger   *zap.Logger
	nc       *nats.Conn
	sub      *nats.Subscription
	received atomic.Int64
}

func NewSubscriber(logger *zap.Logger, nc *nats.Conn) *Subscriber {
	return &Subscriber{
		logger: logger,
		nc:     nc,
	}
}

func (s *Subscriber) RegisterSubscriptions(lc fx.Lifecycle) error {
	sub, err := s.nc.QueueSubscribe(JobPostingsSubject, MatchersQueue, s.handleJobPosting)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", JobPostingsSubject, err)
	}

	s.sub = sub
	s.logger.Info("registered NATS subscriptions",
		zap.String("subject", JobPostingsSubject),
		zap.String("queue", MatchersQueue))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.sub.Unsubscribe()
		},
	})

	return nil
}

// Received reports how many postings arrived since startup.
func (s *Subscriber) Received() int64 {
	return s.received.Load()
}

func (s *Subscriber) handleJobPosting(msg *nats.Msg) {
	_, span := tracer.Start(context.Background(), "handleJobPosting")
	defer span.End()

	var posting models.JobPosting
	if err := json.Unmarshal(msg.Data, &posting); err != nil {
		s.logger.Error("failed to decode job posting",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}

	s.received.Add(1)
	s.logger.Info("received job posting",
		zap.String("id", posting.ID),
		zap.String("title", posting.Title),
		zap.String("source", posting.Source),
	)
}
