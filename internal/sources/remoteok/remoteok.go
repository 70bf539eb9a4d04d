// Package remoteok pulls postings from a RemoteOK-style JSON API. The
// endpoint returns one array whose first element is a legal notice, not
// a job, and must be skipped.
package remoteok

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobby/internal/cache"
	"jobby/internal/config"
	apperrors "jobby/internal/errors"
	"jobby/internal/models"
	"jobby/internal/normalize"
	"jobby/internal/skills"
	"jobby/internal/sources"
	"jobby/internal/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("jobby/sources/remoteok")

const userAgent = "JobbyApp/1.0 (AI Job Tracker)"

type Client struct {
	http      *resty.Client
	logger    *zap.Logger
	cfg       config.RemoteOKConfig
	cache     cache.Cache
	cacheTTL  time.Duration
	extractor *skills.Extractor
	limiter   *rate.Limiter
}

func New(cfg config.RemoteOKConfig, c cache.Cache, cacheTTL time.Duration, extractor *skills.Extractor, logger *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RateDelay > 0 {
		limit = rate.Every(cfg.RateDelay)
	}

	return &Client{
		http:      resty.New().SetTimeout(cfg.Timeout),
		logger:    logger,
		cfg:       cfg,
		cache:     c,
		cacheTTL:  cacheTTL,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Name() string {
	return config.SourceRemoteOK
}

func (c *Client) Fetch(ctx context.Context, query sources.Query) ([]models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "remoteok.Fetch")
	defer span.End()

	cacheKey := query.CacheKey(c.Name())
	var cached models.PostingList
	err := c.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		c.logger.Debug("cache hit for job search", zap.String("key", cacheKey))
		return cached, nil
	} else if err != cache.ErrNotFound {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		c.logger.Warn("cache error for job search", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return []models.JobPosting{}, apperrors.Internal("waiting for rate limit", err)
	}

	span.SetAttributes(telemetry.String("http.url", c.cfg.APIURL))
	c.logger.Debug("cache miss, fetching jobs", zap.String("url", c.cfg.APIURL))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		Get(c.cfg.APIURL)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to execute request", zap.Error(err))
		return []models.JobPosting{}, apperrors.SourceUnavailable("executing request", err)
	}

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode()))

	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("unexpected status code", zap.Int("status_code", resp.StatusCode()))
		return []models.JobPosting{}, apperrors.SourceUnavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode()), nil)
	}

	parsed := gjson.ParseBytes(resp.Body())
	if !parsed.IsArray() {
		return []models.JobPosting{}, apperrors.Internal("unexpected response shape", nil)
	}

	postings := c.normalizeAll(parsed.Array(), query)
	span.SetAttributes(telemetry.Int("postings.count", len(postings)))
	c.logger.Debug("successfully fetched jobs", zap.Int("count", len(postings)))

	if err := c.cache.Set(ctx, cacheKey, models.PostingList(postings), c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache job search results", zap.Error(err))
	}

	return postings, nil
}

func (c *Client) normalizeAll(items []gjson.Result, query sources.Query) []models.JobPosting {
	if len(items) <= 1 {
		return []models.JobPosting{}
	}
	// The first array element is API metadata.
	items = items[1:]

	filtered := make([]gjson.Result, 0, len(items))
	for _, item := range items {
		jobText := item.Get("position").String() + " " +
			item.Get("description").String() + " " +
			joinTags(item)
		if sources.MatchesKeywords(jobText, query.Keywords) {
			filtered = append(filtered, item)
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = c.cfg.Limit
	}

	scrapedAt := time.Now().UTC()
	postings := make([]models.JobPosting, 0, limit)
	dropped := 0

	for i, item := range filtered {
		if i >= limit {
			break
		}

		posting := c.normalize(item, scrapedAt)
		if err := normalize.ValidatePosting(&posting); err != nil {
			dropped++
			c.logger.Warn("dropping incomplete job", zap.String("id", item.Get("id").String()), zap.Error(err))
			continue
		}
		postings = append(postings, posting)
	}

	if dropped > 0 {
		c.logger.Warn("dropped incomplete jobs", zap.Int("count", dropped))
	}

	return postings
}

func (c *Client) normalize(item gjson.Result, scrapedAt time.Time) models.JobPosting {
	title := normalize.CleanText(item.Get("position").String())
	if title == "" {
		title = normalize.CleanText(item.Get("title").String())
	}

	location := "Remote"
	if loc := item.Get("location"); loc.Exists() {
		location = normalize.CleanText(loc.String())
	}

	description := item.Get("description").String()

	applyURL := item.Get("url").String()
	if !strings.HasPrefix(applyURL, "http") {
		applyURL = fmt.Sprintf("%s/remote-jobs/%s",
			strings.TrimRight(c.cfg.SiteURL, "/"), item.Get("id").String())
	}

	externalKey := item.Get("id").String()
	if externalKey == "" {
		externalKey = applyURL
	}

	return models.JobPosting{
		ID:           sources.PostingID(config.SourceRemoteOK, externalKey),
		Title:        title,
		Company:      normalize.CleanText(item.Get("company").String()),
		Location:     location,
		Description:  description,
		Requirements: c.extractor.Extract(title, description, joinTags(item)),
		Salary:       salaryText(item),
		ApplyURL:     applyURL,
		PostedAt:     postedDate(item.Get("date")),
		Source:       config.SourceRemoteOK,
		ScrapedAt:    scrapedAt,
	}
}

func joinTags(item gjson.Result) string {
	tags := item.Get("tags").Array()
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.String() != "" {
			parts = append(parts, tag.String())
		}
	}
	return strings.Join(parts, " ")
}

// salaryText prefers the structured range and falls back to the raw
// salary field. The range keeps the board's "$50,000-80,000/year" shape.
func salaryText(item gjson.Result) string {
	salaryMin := item.Get("salary_min").Int()
	salaryMax := item.Get("salary_max").Int()
	if salaryMin != 0 && salaryMax != 0 {
		return fmt.Sprintf("$%s-%s/year", formatThousands(salaryMin), formatThousands(salaryMax))
	}
	return item.Get("salary").String()
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// postedDate accepts the epoch seconds or RFC 3339 strings the API has
// used over time. Anything unparseable becomes today.
func postedDate(date gjson.Result) time.Time {
	switch date.Type {
	case gjson.Number:
		return time.Unix(date.Int(), 0).UTC().Truncate(24 * time.Hour)
	case gjson.String:
		raw := date.String()
		if strings.Contains(raw, "T") {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return t.UTC().Truncate(24 * time.Hour)
			}
			return normalize.Today()
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t
		}
		return normalize.Today()
	default:
		return normalize.Today()
	}
}
