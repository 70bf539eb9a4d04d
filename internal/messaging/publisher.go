package messaging

import (
	"context"
	"encoding/json"
	"time"

	apperrors "jobby/internal/errors"
	"jobby/internal/models"
	"jobby/internal/telemetry"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobby/messaging")

const (
	// JobPostingsSubject carries every posting that survived
	// aggregation, one JSON message per posting.
	JobPostingsSubject = "jobs.new"

	// MatchersQueue is the queue group downstream consumers join so
	// each posting is handled once per group.
	MatchersQueue = "matchers"
)

// Connect dials NATS with the client options every component of this
// service uses.
func Connect(url string, connTimeout time.Duration) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(connTimeout),
		nats.Name("jobby"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, apperrors.Internal("connecting to NATS", err)
	}
	return conn, nil
}

type Publisher interface {
	PublishJobPosting(ctx context.Context, posting models.JobPosting) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewPublisher(conn *nats.Conn, logger *zap.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}
}

func (p *natsPublisher) PublishJobPosting(ctx context.Context, posting models.JobPosting) error {
	_, span := tracer.Start(ctx, "PublishJobPosting")
	defer span.End()

	data, err := json.Marshal(posting)
	if err != nil {
		span.RecordError(err)
		return apperrors.Internal("marshaling job posting", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", JobPostingsSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(JobPostingsSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish job posting",
			zap.String("id", posting.ID),
			zap.Error(err))
		return apperrors.Internal("publishing to NATS", err)
	}

	p.logger.Debug("published job posting",
		zap.String("id", posting.ID),
		zap.String("subject", JobPostingsSubject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher drops every posting. Used when NATS is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (*NoopPublisher) PublishJobPosting(ctx context.Context, posting models.JobPosting) error {
	return nil
}

func (*NoopPublisher) Close() {}
