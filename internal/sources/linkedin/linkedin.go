// Package linkedin scrapes a LinkedIn-style public job search page.
package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
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

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("jobby/sources/linkedin")

const (
	searchPath      = "/jobs/search"
	defaultKeywords = "Python Data Science"
	defaultLocation = "Remote"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Scraper struct {
	client    *http.Client
	logger    *zap.Logger
	cfg       config.LinkedInConfig
	cache     cache.Cache
	cacheTTL  time.Duration
	extractor *skills.Extractor
	limiter   *rate.Limiter
}

func New(cfg config.LinkedInConfig, c cache.Cache, cacheTTL time.Duration, extractor *skills.Extractor, logger *zap.Logger) *Scraper {
	limit := rate.Inf
	if cfg.RateDelay > 0 {
		limit = rate.Every(cfg.RateDelay)
	}

	return &Scraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		cfg:       cfg,
		cache:     c,
		cacheTTL:  cacheTTL,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (s *Scraper) Name() string {
	return config.SourceLinkedIn
}

func (s *Scraper) Fetch(ctx context.Context, query sources.Query) ([]models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "linkedin.Fetch")
	defer span.End()

	cacheKey := query.CacheKey(s.Name())
	var cached models.PostingList
	err := s.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		s.logger.Debug("cache hit for job search", zap.String("key", cacheKey))
		return cached, nil
	} else if err != cache.ErrNotFound {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		s.logger.Warn("cache error for job search", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return []models.JobPosting{}, apperrors.Internal("waiting for rate limit", err)
	}

	searchURL := s.searchURL(query)
	span.SetAttributes(telemetry.String("http.url", searchURL))
	s.logger.Debug("cache miss, fetching job cards", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		span.RecordError(err)
		return []models.JobPosting{}, apperrors.Internal("creating request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to execute request", zap.Error(err))
		return []models.JobPosting{}, apperrors.SourceUnavailable("executing request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(
		telemetry.Int("http.status_code", resp.StatusCode),
		telemetry.String("http.method", http.MethodGet),
	)

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("unexpected status code", zap.Int("status_code", resp.StatusCode))
		return []models.JobPosting{}, apperrors.SourceUnavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		span.RecordError(err)
		return []models.JobPosting{}, apperrors.Internal("parsing search page", err)
	}

	postings := s.parseCards(doc, query.Limit)
	span.SetAttributes(telemetry.Int("postings.count", len(postings)))
	s.logger.Debug("successfully fetched job cards", zap.Int("count", len(postings)))

	if err := s.cache.Set(ctx, cacheKey, models.PostingList(postings), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache job search results", zap.Error(err))
	}

	return postings, nil
}

func (s *Scraper) searchURL(query sources.Query) string {
	keywords := strings.Join(query.Keywords, " ")
	if keywords == "" {
		keywords = defaultKeywords
	}
	location := query.Location
	if location == "" {
		location = defaultLocation
	}

	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("location", location)
	params.Set("f_JT", "F")

	return strings.TrimRight(s.cfg.BaseURL, "/") + searchPath + "?" + params.Encode()
}

func (s *Scraper) parseCards(doc *goquery.Document, limit int) []models.JobPosting {
	if limit <= 0 {
		limit = s.cfg.Limit
	}

	cards := doc.Find("div.job-search-card")
	if cards.Length() == 0 {
		cards = doc.Find("li.result-card")
	}

	scrapedAt := time.Now().UTC()
	postings := make([]models.JobPosting, 0, limit)
	dropped := 0

	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= limit {
			return false
		}

		posting := s.extractCard(card, scrapedAt)
		if err := normalize.ValidatePosting(&posting); err != nil {
			dropped++
			s.logger.Warn("dropping incomplete job card", zap.Int("index", i), zap.Error(err))
			return true
		}

		postings = append(postings, posting)
		return true
	})

	if dropped > 0 {
		s.logger.Warn("dropped incomplete job cards", zap.Int("count", dropped))
	}

	return postings
}

func (s *Scraper) extractCard(card *goquery.Selection, scrapedAt time.Time) models.JobPosting {
	title := normalize.CleanText(card.Find("h3").First().Text())
	if title == "" {
		title = normalize.CleanText(card.Find("a.result-card__full-card-link").First().Text())
	}
	if title == "" {
		title = "Unknown Title"
	}

	company := normalize.CleanText(card.Find("h4").First().Text())
	if company == "" {
		company = normalize.CleanText(card.Find("a.result-card__subtitle-link").First().Text())
	}
	if company == "" {
		company = "Unknown Company"
	}

	location := normalize.CleanText(card.Find("span.job-search-card__location").First().Text())
	if location == "" {
		location = normalize.CleanText(card.Find("span.result-card__location").First().Text())
	}
	if location == "" {
		location = "Unknown Location"
	}

	description := normalize.CleanText(card.Find("span.job-search-card__snippet").First().Text())

	href, ok := card.Find("a.result-card__full-card-link").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		href, _ = card.Find("a").First().Attr("href")
	}
	href = strings.TrimSpace(href)

	applyURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/jobs"
	if href != "" {
		applyURL = normalize.ResolveURL(s.cfg.BaseURL, href)
	}

	return models.JobPosting{
		ID:           sources.PostingID(config.SourceLinkedIn, applyURL+"|"+title+"|"+company),
		Title:        title,
		Company:      company,
		Location:     location,
		Description:  description,
		Requirements: s.extractor.Extract(title, description),
		ApplyURL:     applyURL,
		PostedAt:     normalize.Today(),
		Source:       config.SourceLinkedIn,
		ScrapedAt:    scrapedAt,
	}
}
