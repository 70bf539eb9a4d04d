package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobby/internal/errors"
	"jobby/internal/models"
	"jobby/internal/sources"
)

type stubSource struct {
	name string
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(ctx context.Context, query sources.Query) ([]models.JobPosting, error) {
	return nil, nil
}

func TestCacheKeyIsStable(t *testing.T) {
	query := sources.Query{Keywords: []string{"go", "backend"}, Location: "Remote", Limit: 20}

	assert.Equal(t, query.CacheKey("remoteok"), query.CacheKey("remoteok"))
}

func TestCacheKeyNormalizesCaseAndSpace(t *testing.T) {
	a := sources.Query{Keywords: []string{"Go", " Backend "}, Location: "Remote", Limit: 20}
	b := sources.Query{Keywords: []string{"go", "backend"}, Location: "remote", Limit: 20}

	assert.Equal(t, a.CacheKey("remoteok"), b.CacheKey("remoteok"))
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	base := sources.Query{Keywords: []string{"go"}, Location: "Remote", Limit: 20}

	otherKeywords := base
	otherKeywords.Keywords = []string{"rust"}
	otherLimit := base
	otherLimit.Limit = 10

	assert.NotEqual(t, base.CacheKey("remoteok"), otherKeywords.CacheKey("remoteok"))
	assert.NotEqual(t, base.CacheKey("remoteok"), otherLimit.CacheKey("remoteok"))
	assert.NotEqual(t, base.CacheKey("remoteok"), base.CacheKey("linkedin"),
		"two sources never share a cache entry")
}

func TestMatchesKeywords(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"no keywords matches everything", "anything at all", nil, true},
		{"case insensitive", "Senior GO Developer", []string{"go"}, true},
		{"any keyword suffices", "Rust Engineer", []string{"go", "rust"}, true},
		{"no match", "Product Designer", []string{"go", "rust"}, false},
		{"blank keywords are ignored", "Product Designer", []string{"  ", ""}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sources.MatchesKeywords(tc.text, tc.keywords))
		})
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := sources.NewRegistry()

	require.NoError(t, registry.Register(stubSource{name: "remoteok"}))

	err := registry.Register(stubSource{name: "remoteok"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeInvalidConfig, apperrors.TypeOf(err))
}

func TestRegistryEnabledKeepsConfiguredOrder(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register(stubSource{name: "linkedin"}))
	require.NoError(t, registry.Register(stubSource{name: "remoteok"}))
	require.NoError(t, registry.Register(stubSource{name: "rssfeed"}))

	enabled, err := registry.Enabled([]string{"rssfeed", "linkedin"})
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "rssfeed", enabled[0].Name())
	assert.Equal(t, "linkedin", enabled[1].Name())
}

func TestRegistryEnabledRejectsUnknownName(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register(stubSource{name: "remoteok"}))

	_, err := registry.Enabled([]string{"remoteok", "indeed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indeed")
}

func TestRegistryNames(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register(stubSource{name: "linkedin"}))
	require.NoError(t, registry.Register(stubSource{name: "remoteok"}))

	assert.Equal(t, []string{"linkedin", "remoteok"}, registry.Names())
}

func TestPostingIDIsStable(t *testing.T) {
	first := sources.PostingID("remoteok", "12345")
	second := sources.PostingID("remoteok", "12345")

	assert.Equal(t, first, second, "re-scraping the same job yields the same id")
	assert.NotEqual(t, first, sources.PostingID("linkedin", "12345"))
	assert.NotEqual(t, first, sources.PostingID("remoteok", "12346"))
}
