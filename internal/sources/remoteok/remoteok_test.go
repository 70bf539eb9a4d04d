package remoteok_test

import (
	"context"
	"encoding"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobby/internal/cache"
	"jobby/internal/config"
	apperrors "jobby/internal/errors"
	"jobby/internal/normalize"
	"jobby/internal/skills"
	"jobby/internal/sources"
	"jobby/internal/sources/remoteok"
)

// fakeCache round-trips values through their binary encoding, the same
// way the Redis cache does.
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m, ok := value.(encoding.BinaryMarshaler)
	if !ok {
		return cache.ErrInvalidValue
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	f.entries[key] = b
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, value interface{}) error {
	b, ok := f.entries[key]
	if !ok {
		return cache.ErrNotFound
	}
	u, ok := value.(encoding.BinaryUnmarshaler)
	if !ok {
		return cache.ErrInvalidValue
	}
	return u.UnmarshalBinary(b)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) Clear(ctx context.Context) error {
	f.entries = make(map[string][]byte)
	return nil
}

func (f *fakeCache) Close() error {
	return nil
}

const listingPayload = `[
	{"legal": "API terms of service apply."},
	{
		"id": "101",
		"position": "Go Developer",
		"company": "Acme",
		"location": "Worldwide",
		"description": "Build Go services",
		"tags": ["go", "backend"],
		"url": "https://remoteok.example/remote-jobs/101",
		"date": "2024-03-05T14:30:00Z",
		"salary_min": 50000,
		"salary_max": 80000
	},
	{
		"id": "102",
		"position": "Python Engineer",
		"company": "Initech",
		"description": "Django APIs",
		"tags": ["python"],
		"url": "/remote-jobs/102",
		"date": "2024-03-04",
		"salary": "$90k/year"
	}
]`

func newClient(url string, c cache.Cache) *remoteok.Client {
	cfg := config.RemoteOKConfig{
		APIURL:  url,
		SiteURL: "https://remoteok.example/",
		Timeout: 2 * time.Second,
		Limit:   20,
	}
	extractor := skills.NewExtractor([]string{"Go", "Python", "React"})
	return remoteok.New(cfg, c, time.Minute, extractor, zap.NewNop())
}

func TestFetchNormalizesPostings(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listingPayload))
	}))
	defer server.Close()

	client := newClient(server.URL, cache.NewNoop())
	postings, err := client.Fetch(context.Background(), sources.Query{})
	require.NoError(t, err)
	require.Len(t, postings, 2, "the leading metadata element is not a job")

	assert.Equal(t, "JobbyApp/1.0 (AI Job Tracker)", gotUserAgent)

	first := postings[0]
	assert.Equal(t, sources.PostingID(config.SourceRemoteOK, "101"), first.ID)
	assert.Equal(t, "Go Developer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Worldwide", first.Location)
	assert.Equal(t, []string{"Go"}, first.Requirements)
	assert.Equal(t, "$50,000-80,000/year", first.Salary)
	assert.Equal(t, "https://remoteok.example/remote-jobs/101", first.ApplyURL)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), first.PostedAt)
	assert.Equal(t, config.SourceRemoteOK, first.Source)
	assert.False(t, first.ScrapedAt.IsZero())

	second := postings[1]
	assert.Equal(t, "Remote", second.Location, "missing location means the job is remote")
	assert.Equal(t, []string{"Python"}, second.Requirements)
	assert.Equal(t, "$90k/year", second.Salary, "raw salary text is kept when no range is given")
	assert.Equal(t, "https://remoteok.example/remote-jobs/102", second.ApplyURL,
		"relative urls are rebuilt from the site url and job id")
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), second.PostedAt)
}

func TestFetchFiltersByKeywordBeforeLimit(t *testing.T) {
	payload := `[
		{"legal": "metadata"},
		{"id": "1", "position": "Product Designer", "company": "Acme", "location": "Remote", "description": "Figma all day", "url": "https://remoteok.example/remote-jobs/1"},
		{"id": "2", "position": "Go Developer", "company": "Initech", "location": "Remote", "description": "Build services", "url": "https://remoteok.example/remote-jobs/2"},
		{"id": "3", "position": "Go Platform Engineer", "company": "Globex", "location": "Remote", "description": "Infra work", "url": "https://remoteok.example/remote-jobs/3"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newClient(server.URL, cache.NewNoop())
	postings, err := client.Fetch(context.Background(), sources.Query{Keywords: []string{"go"}, Limit: 1})
	require.NoError(t, err)

	// The limit applies to matching jobs, so the non-matching designer
	// role ahead of them must not consume the single slot.
	require.Len(t, postings, 1)
	assert.Equal(t, "Go Developer", postings[0].Title)
}

func TestFetchDropsIncompletePostings(t *testing.T) {
	payload := `[
		{"legal": "metadata"},
		{"id": "1", "position": "Mystery Role", "location": "Remote", "description": "no company given", "url": "https://remoteok.example/remote-jobs/1"},
		{"id": "2", "position": "Go Developer", "company": "Initech", "location": "Remote", "description": "Build services", "url": "https://remoteok.example/remote-jobs/2"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newClient(server.URL, cache.NewNoop())
	postings, err := client.Fetch(context.Background(), sources.Query{})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "Go Developer", postings[0].Title)
}

func TestFetchServesSecondCallFromCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(listingPayload))
	}))
	defer server.Close()

	client := newClient(server.URL, newFakeCache())

	first, err := client.Fetch(context.Background(), sources.Query{})
	require.NoError(t, err)
	second, err := client.Fetch(context.Background(), sources.Query{})
	require.NoError(t, err)

	assert.Equal(t, 1, requests, "second fetch must not hit the upstream")
	assert.Equal(t, first, second)
}

func TestFetchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(server.URL, cache.NewNoop())
	postings, err := client.Fetch(context.Background(), sources.Query{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSourceUnavailable, apperrors.TypeOf(err))
	assert.Empty(t, postings)
}

func TestFetchDateVariants(t *testing.T) {
	epoch := time.Date(2024, 3, 5, 1, 2, 3, 0, time.UTC).Unix()
	payload := `[
		{"legal": "metadata"},
		{"id": "1", "position": "Go Developer", "company": "Acme", "location": "Remote", "description": "x", "url": "https://remoteok.example/remote-jobs/1", "date": ` + strconv.FormatInt(epoch, 10) + `},
		{"id": "2", "position": "Go Developer Two", "company": "Acme", "location": "Remote", "description": "x", "url": "https://remoteok.example/remote-jobs/2", "date": "not a date"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newClient(server.URL, cache.NewNoop())
	postings, err := client.Fetch(context.Background(), sources.Query{})
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), postings[0].PostedAt,
		"epoch timestamps are truncated to the day")
	assert.True(t, postings[1].PostedAt.Equal(normalize.Today()),
		"unparseable dates fall back to today")
}
