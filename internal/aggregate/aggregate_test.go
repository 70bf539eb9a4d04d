package aggregate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobby/internal/aggregate"
	"jobby/internal/models"
	"jobby/internal/sources"
	"jobby/internal/store"
)

type stubSource struct {
	name     string
	postings []models.JobPosting
	err      error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(ctx context.Context, query sources.Query) ([]models.JobPosting, error) {
	return s.postings, s.err
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []string
	fail      bool
}

func (p *capturingPublisher) PublishJobPosting(ctx context.Context, posting models.JobPosting) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, posting.ID)
	return nil
}

func (p *capturingPublisher) Close() {}

func posting(id, title, company string) models.JobPosting {
	return models.JobPosting{
		ID:       id,
		Title:    title,
		Company:  company,
		Location: "Remote",
		ApplyURL: "https://jobs.example/" + id,
		PostedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunMergesSourcesInConfiguredOrder(t *testing.T) {
	a := posting("a", "Go Developer", "Acme")
	b := posting("b", "Rust Developer", "Initech")
	c := posting("c", "Data Engineer", "Globex")

	agg := aggregate.New(
		[]sources.Source{
			stubSource{name: "linkedin", postings: []models.JobPosting{a, b}},
			stubSource{name: "remoteok", postings: []models.JobPosting{c}},
		},
		store.NewMemory(),
		&capturingPublisher{},
		zap.NewNop(),
	)

	result, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err)

	require.Len(t, result.Postings, 3)
	assert.Equal(t, "a", result.Postings[0].ID)
	assert.Equal(t, "b", result.Postings[1].ID)
	assert.Equal(t, "c", result.Postings[2].ID)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, "linkedin", result.Reports[0].Source)
	assert.Equal(t, 2, result.Reports[0].Fetched)
	assert.Equal(t, "remoteok", result.Reports[1].Source)
	assert.Equal(t, 1, result.Reports[1].Fetched)
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	job := posting("linkedin-1", "Go Developer", "Acme")
	sameJob := job
	sameJob.ID = "remoteok-1"
	sameJob.Source = "remoteok"

	agg := aggregate.New(
		[]sources.Source{
			stubSource{name: "linkedin", postings: []models.JobPosting{job}},
			stubSource{name: "remoteok", postings: []models.JobPosting{sameJob}},
		},
		store.NewMemory(),
		&capturingPublisher{},
		zap.NewNop(),
	)

	result, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err)

	require.Len(t, result.Postings, 1)
	assert.Equal(t, "linkedin-1", result.Postings[0].ID, "the first source to report a job wins")

	assert.Equal(t, 1, result.Reports[0].Kept)
	assert.Equal(t, 1, result.Reports[1].Fetched)
	assert.Equal(t, 0, result.Reports[1].Kept, "the duplicate is counted as fetched but not kept")
}

func TestRunToleratesFailingSource(t *testing.T) {
	ok := posting("a", "Go Developer", "Acme")
	down := errors.New("upstream down")

	agg := aggregate.New(
		[]sources.Source{
			stubSource{name: "linkedin", err: down},
			stubSource{name: "remoteok", postings: []models.JobPosting{ok}},
		},
		store.NewMemory(),
		&capturingPublisher{},
		zap.NewNop(),
	)

	result, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err, "one dead source must not fail the run")

	require.Len(t, result.Postings, 1)
	require.Len(t, result.Reports, 2)
	assert.ErrorIs(t, result.Reports[0].Err, down)
	assert.NoError(t, result.Reports[1].Err)
}

func TestRunReportsNewlyStoredCount(t *testing.T) {
	st := store.NewMemory()
	known := posting("a", "Go Developer", "Acme")
	_, err := st.SaveJobs(context.Background(), []models.JobPosting{known})
	require.NoError(t, err)

	fresh := posting("b", "Rust Developer", "Initech")
	agg := aggregate.New(
		[]sources.Source{stubSource{name: "remoteok", postings: []models.JobPosting{known, fresh}}},
		st,
		&capturingPublisher{},
		zap.NewNop(),
	)

	result, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err)

	assert.Len(t, result.Postings, 2, "the batch includes jobs the store already had")
	assert.Equal(t, 1, result.Stored, "only the fresh job counts as stored")
}

func TestRunPublishesEveryPosting(t *testing.T) {
	pub := &capturingPublisher{}
	agg := aggregate.New(
		[]sources.Source{stubSource{name: "remoteok", postings: []models.JobPosting{
			posting("a", "Go Developer", "Acme"),
			posting("b", "Rust Developer", "Initech"),
		}}},
		store.NewMemory(),
		pub,
		zap.NewNop(),
	)

	_, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pub.published)
}

func TestRunToleratesPublishFailures(t *testing.T) {
	pub := &capturingPublisher{fail: true}
	st := store.NewMemory()
	agg := aggregate.New(
		[]sources.Source{stubSource{name: "remoteok", postings: []models.JobPosting{
			posting("a", "Go Developer", "Acme"),
		}}},
		st,
		pub,
		zap.NewNop(),
	)

	result, err := agg.Run(context.Background(), sources.Query{})
	require.NoError(t, err, "messaging is best effort")
	assert.Equal(t, 1, result.Stored, "postings are stored even when publishing fails")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := aggregate.New(
		[]sources.Source{stubSource{name: "remoteok"}},
		store.NewMemory(),
		&capturingPublisher{},
		zap.NewNop(),
	)

	_, err := agg.Run(ctx, sources.Query{})
	require.Error(t, err)
}
