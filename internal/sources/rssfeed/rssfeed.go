// Package rssfeed aggregates postings from RSS and Atom job feeds. Feed
// items rarely carry structured fields, so company, location and salary
// are recovered from the title and description text.
package rssfeed

import (
	"context"
	"net/http"
	"regexp"
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

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("jobby/sources/rssfeed")

const userAgent = "JobbyApp/1.0 RSS Parser"

var (
	// "Software Engineer at TechCorp"
	companyAtPattern = regexp.MustCompile(`(?i)\s+at\s+([^,\-\|]+)`)
	// "TechCorp - Software Engineer"
	companyDashPattern = regexp.MustCompile(`^([^-]+)\s*-\s*`)

	roleWords = []string{"engineer", "developer", "analyst", "manager"}

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Location:\s*([^,\n]+)`),
		regexp.MustCompile(`(?i)in\s+([A-Za-z\s]+(?:,\s*[A-Za-z]{2,}))`),
		regexp.MustCompile(`(?i)Remote[\s\-]*([A-Za-z\s]+)`),
		regexp.MustCompile(`(?i)([A-Za-z\s]+,\s*[A-Z]{2,3})`),
	}

	salaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)salary[:\s]*([£$€R\s]*[\d,]+k?[\s]*[-–to]*[\s]*[£$€R\s]*[\d,]+k?[/\s]*(?:year|month|hour|annually|monthly|hourly)?)`),
		regexp.MustCompile(`(?i)compensation[:\s]*([£$€R\s]*[\d,]+k?[\s]*[-–to]*[\s]*[£$€R\s]*[\d,]+k?)`),
		regexp.MustCompile(`(?i)pay[:\s]*([£$€R\s]*[\d,]+k?[\s]*[-–to]*[\s]*[£$€R\s]*[\d,]+k?)`),
		regexp.MustCompile(`(?i)([£$€R]\s*[\d,]+k?[\s]*[-–to]*[\s]*[£$€R\s]*[\d,]+k?[/\s]*(?:year|month|hour)?)`),
		regexp.MustCompile(`(?i)(R\$\s*[\d,.]+[\s]*[-–to]*[\s]*R\$\s*[\d,.]+[/\s]*(?:mês|month)?)`),
		regexp.MustCompile(`(?i)([\d,]+k[\s]*[-–to]*[\s]*[\d,]+k[\s]*(?:annually|yearly|per year)?)`),
	}
)

type Parser struct {
	feeds     *gofeed.Parser
	logger    *zap.Logger
	cfg       config.RSSConfig
	cache     cache.Cache
	cacheTTL  time.Duration
	extractor *skills.Extractor
	limiter   *rate.Limiter
}

func New(cfg config.RSSConfig, c cache.Cache, cacheTTL time.Duration, extractor *skills.Extractor, logger *zap.Logger) *Parser {
	feeds := gofeed.NewParser()
	feeds.UserAgent = userAgent
	feeds.Client = &http.Client{Timeout: cfg.Timeout}

	limit := rate.Inf
	if cfg.RateDelay > 0 {
		limit = rate.Every(cfg.RateDelay)
	}

	return &Parser{
		feeds:     feeds,
		logger:    logger,
		cfg:       cfg,
		cache:     c,
		cacheTTL:  cacheTTL,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (p *Parser) Name() string {
	return config.SourceRSS
}

func (p *Parser) Fetch(ctx context.Context, query sources.Query) ([]models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "rssfeed.Fetch")
	defer span.End()

	if len(p.cfg.FeedURLs) == 0 {
		p.logger.Debug("no feed urls configured")
		return []models.JobPosting{}, nil
	}

	cacheKey := query.CacheKey(p.Name())
	var cached models.PostingList
	err := p.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		p.logger.Debug("cache hit for feed fetch", zap.String("key", cacheKey))
		return cached, nil
	} else if err != cache.ErrNotFound {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		p.logger.Warn("cache error for feed fetch", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	scrapedAt := time.Now().UTC()
	all := make([]models.JobPosting, 0, len(p.cfg.FeedURLs)*p.cfg.LimitPerFeed)
	failures := 0

	for _, feedURL := range p.cfg.FeedURLs {
		if err := p.limiter.Wait(ctx); err != nil {
			return []models.JobPosting{}, apperrors.Internal("waiting for rate limit", err)
		}

		p.logger.Debug("parsing feed", zap.String("url", feedURL))
		feed, err := p.feeds.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failures++
			span.RecordError(err)
			p.logger.Warn("failed to parse feed", zap.String("url", feedURL), zap.Error(err))
			continue
		}

		all = append(all, p.extractJobs(feed, query, scrapedAt)...)
	}

	span.SetAttributes(
		telemetry.Int("feeds.failed", failures),
		telemetry.Int("postings.count", len(all)),
	)
	p.logger.Debug("successfully parsed feeds",
		zap.Int("count", len(all)),
		zap.Int("failed_feeds", failures))

	if failures < len(p.cfg.FeedURLs) {
		if err := p.cache.Set(ctx, cacheKey, models.PostingList(all), p.cacheTTL); err != nil {
			p.logger.Warn("failed to cache feed results", zap.Error(err))
		}
	}

	return all, nil
}

func (p *Parser) extractJobs(feed *gofeed.Feed, query sources.Query, scrapedAt time.Time) []models.JobPosting {
	limit := query.Limit
	if limit <= 0 {
		limit = p.cfg.LimitPerFeed
	}

	postings := make([]models.JobPosting, 0, limit)
	matched := 0
	dropped := 0

	for _, item := range feed.Items {
		if matched >= limit {
			break
		}

		title := strings.TrimSpace(item.Title)
		description := strings.TrimSpace(item.Description)
		if description == "" {
			description = strings.TrimSpace(item.Content)
		}

		if !sources.MatchesKeywords(title+" "+description, query.Keywords) {
			continue
		}
		matched++

		company, location := parseCompanyAndLocation(title, description)

		externalKey := item.GUID
		if externalKey == "" {
			externalKey = item.Link
		}

		posting := models.JobPosting{
			ID:           sources.PostingID(config.SourceRSS, externalKey),
			Title:        title,
			Company:      company,
			Location:     location,
			Description:  description,
			Requirements: p.extractor.Extract(title, description),
			Salary:       parseSalary(description),
			ApplyURL:     item.Link,
			PostedAt:     postedDate(item),
			Source:       config.SourceRSS,
			ScrapedAt:    scrapedAt,
		}
		if err := normalize.ValidatePosting(&posting); err != nil {
			dropped++
			p.logger.Warn("dropping incomplete feed item", zap.String("title", title), zap.Error(err))
			continue
		}

		postings = append(postings, posting)
	}

	if dropped > 0 {
		p.logger.Warn("dropped incomplete feed items",
			zap.String("feed", feed.Title),
			zap.Int("count", dropped))
	}

	return postings
}

func parseCompanyAndLocation(title, description string) (string, string) {
	company := "Unknown Company"
	location := "Remote"

	if m := companyAtPattern.FindStringSubmatch(title); m != nil {
		company = strings.TrimSpace(m[1])
	} else if m := companyDashPattern.FindStringSubmatch(title); m != nil {
		candidate := strings.TrimSpace(m[1])
		lowered := strings.ToLower(candidate)
		role := false
		for _, word := range roleWords {
			if strings.Contains(lowered, word) {
				role = true
				break
			}
		}
		if !role {
			company = candidate
		}
	}

	text := title + " " + description
	for _, pattern := range locationPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			location = strings.TrimSpace(m[1])
			break
		}
	}

	return company, location
}

func parseSalary(description string) string {
	for _, pattern := range salaryPatterns {
		if m := pattern.FindStringSubmatch(description); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func postedDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return normalize.DayOrToday(*item.PublishedParsed)
	}
	return normalize.Today()
}
