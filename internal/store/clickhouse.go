package store

import (
	"context"
	"fmt"
	"strings"

	"jobby/internal/database/schema"
	"jobby/internal/database/schema/migrations"
	"jobby/internal/models"
	"jobby/internal/telemetry"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobby/store")

const insertJobsQuery = `
	INSERT INTO jobs (
		id, title, company, location, description, requirements,
		salary, apply_url, posted_date, source, scraped_at
	)
`

const selectJobsColumns = `
	id, title, company, location, description, requirements,
	salary, apply_url, posted_date, source, scraped_at
`

// ClickHouse stores postings in a ReplacingMergeTree table keyed by
// posting ID, so re-scraping the same job collapses into one row.
type ClickHouse struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

func NewClickHouse(conn clickhouse.Conn, logger *zap.Logger) *ClickHouse {
	return &ClickHouse{
		conn:   conn,
		logger: logger,
	}
}

// Migrate brings the jobs schema up to date before the store is used.
func (s *ClickHouse) Migrate(ctx context.Context) error {
	migrator := schema.NewMigrator(s.conn, s.logger)
	return migrator.ApplyPending(ctx, migrations.All())
}

func (s *ClickHouse) SaveJobs(ctx context.Context, postings []models.JobPosting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}

	ctx, span := tracer.Start(ctx, "ClickHouse.SaveJobs")
	defer span.End()
	span.SetAttributes(telemetry.Int("postings.count", len(postings)))

	batch, err := s.conn.PrepareBatch(ctx, insertJobsQuery)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("prepare jobs batch: %w", err)
	}

	for _, posting := range postings {
		if err := batch.Append(
			posting.ID,
			posting.Title,
			posting.Company,
			posting.Location,
			posting.Description,
			posting.Requirements,
			posting.Salary,
			posting.ApplyURL,
			posting.PostedAt,
			posting.Source,
			posting.ScrapedAt,
		); err != nil {
			return 0, fmt.Errorf("append job posting %s: %w", posting.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("send jobs batch: %w", err)
	}

	return len(postings), nil
}

func (s *ClickHouse) ListJobs(ctx context.Context, filter ListFilter) ([]models.JobPosting, int, error) {
	ctx, span := tracer.Start(ctx, "ClickHouse.ListJobs")
	defer span.End()

	where, args := buildListWhere(filter)

	var total uint64
	countQuery := "SELECT count() FROM jobs FINAL" + where
	if err := s.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT" + selectJobsColumns + "FROM jobs FINAL" + where +
		" ORDER BY posted_date DESC LIMIT ? OFFSET ?"
	rows, err := s.conn.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	postings := make([]models.JobPosting, 0, limit)
	for rows.Next() {
		var posting models.JobPosting
		if err := rows.Scan(
			&posting.ID,
			&posting.Title,
			&posting.Company,
			&posting.Location,
			&posting.Description,
			&posting.Requirements,
			&posting.Salary,
			&posting.ApplyURL,
			&posting.PostedAt,
			&posting.Source,
			&posting.ScrapedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan job posting: %w", err)
		}
		postings = append(postings, posting)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate job postings: %w", err)
	}

	return postings, int(total), nil
}

func (s *ClickHouse) Close() error {
	return s.conn.Close()
}

func buildListWhere(filter ListFilter) (string, []interface{}) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Keyword != "" {
		conds = append(conds, `(
			positionCaseInsensitive(title, ?) > 0
			OR positionCaseInsensitive(description, ?) > 0
			OR arrayExists(r -> positionCaseInsensitive(r, ?) > 0, requirements)
		)`)
		args = append(args, filter.Keyword, filter.Keyword, filter.Keyword)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
