package server

import (
	"io"
	"path/filepath"
	"strings"

	"jobby/internal/aggregate"
	"jobby/internal/match"
	"jobby/internal/models"
	"jobby/internal/resume"
	"jobby/internal/sources"
	"jobby/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// defaultMatchLimit caps how many ranked matches a response carries.
	defaultMatchLimit = 10

	// matchCorpusLimit bounds how many stored postings are scored per request.
	matchCorpusLimit = 500

	maxUploadSize = 5 * 1024 * 1024
)

type Handler struct {
	aggregator *aggregate.Aggregator
	store      store.Store
	engine     *match.Engine
	resumes    *resume.Service
	logger     *zap.Logger
}

func NewHandler(aggregator *aggregate.Aggregator, st store.Store, engine *match.Engine, resumes *resume.Service, logger *zap.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		store:      st,
		engine:     engine,
		resumes:    resumes,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Post("/jobs/scrape", h.ScrapeJobs)
	api.Get("/jobs", h.ListJobs)
	api.Post("/match", h.MatchJobs)
	api.Post("/resume/analyze", h.AnalyzeResume)
	api.Post("/resume/match", h.MatchResume)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// ScrapeJobs runs the aggregation pipeline synchronously and reports what
// every source contributed.
func (h *Handler) ScrapeJobs(c *fiber.Ctx) error {
	query := sources.Query{
		Keywords: parseKeywords(c.Query("keywords")),
		Location: c.Query("location"),
		Limit:    c.QueryInt("limit"),
	}

	h.logger.Info("scrape requested",
		zap.Strings("keywords", query.Keywords),
		zap.String("location", query.Location))

	result, err := h.aggregator.Run(c.UserContext(), query)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"scraped": len(result.Postings),
		"new":     result.Stored,
		"sources": sourceStatuses(result.Reports),
	})
}

func (h *Handler) ListJobs(c *fiber.Ctx) error {
	filter := store.ListFilter{
		Keyword: c.Query("keyword"),
		Source:  c.Query("source"),
		Limit:   c.QueryInt("limit", store.DefaultListLimit),
		Offset:  c.QueryInt("offset"),
	}

	postings, total, err := h.store.ListJobs(c.UserContext(), filter)
	if err != nil {
		return err
	}
	if postings == nil {
		postings = []models.JobPosting{}
	}

	return c.JSON(fiber.Map{
		"items":    postings,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
		"has_more": filter.Offset+filter.Limit < total,
	})
}

type matchRequest struct {
	Profile models.CandidateProfile `json:"profile"`

	// Scrape runs the pipeline for a fresh corpus instead of reading the
	// store. Keywords and Location parameterize that run.
	Scrape   bool     `json:"scrape"`
	Keywords []string `json:"keywords"`
	Location string   `json:"location"`

	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

func (h *Handler) MatchJobs(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	postings, err := h.matchCorpus(c, req)
	if err != nil {
		return err
	}

	matches := truncateMatches(h.engine.Score(req.Profile, postings), req.Limit)

	return c.JSON(fiber.Map{
		"matches":             matches,
		"total_matches":       len(matches),
		"total_jobs_analyzed": len(postings),
	})
}

func (h *Handler) matchCorpus(c *fiber.Ctx, req matchRequest) ([]models.JobPosting, error) {
	if req.Scrape {
		result, err := h.aggregator.Run(c.UserContext(), sources.Query{
			Keywords: req.Keywords,
			Location: req.Location,
		})
		if err != nil {
			return nil, err
		}
		return result.Postings, nil
	}

	postings, _, err := h.store.ListJobs(c.UserContext(), store.ListFilter{
		Source: req.Source,
		Limit:  matchCorpusLimit,
	})
	return postings, err
}

func (h *Handler) AnalyzeResume(c *fiber.Ctx) error {
	data, err := resumeUpload(c)
	if err != nil {
		return err
	}

	profile, err := h.resumes.Analyze(data)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// MatchResume is the one-shot endpoint: parse the uploaded resume, overlay
// the expectations the PDF cannot carry, then rank the stored postings.
func (h *Handler) MatchResume(c *fiber.Ctx) error {
	data, err := resumeUpload(c)
	if err != nil {
		return err
	}

	profile, err := h.resumes.Analyze(data)
	if err != nil {
		return err
	}

	if location := c.Query("location"); location != "" {
		profile.Location = location
	}
	profile.SalaryMin = c.QueryInt("salary_min", profile.SalaryMin)
	profile.SalaryMax = c.QueryInt("salary_max", profile.SalaryMax)

	postings, _, err := h.store.ListJobs(c.UserContext(), store.ListFilter{
		Source: c.Query("source"),
		Limit:  matchCorpusLimit,
	})
	if err != nil {
		return err
	}

	matches := truncateMatches(h.engine.Score(profile, postings), c.QueryInt("limit"))

	return c.JSON(fiber.Map{
		"profile":             profile,
		"matches":             matches,
		"total_matches":       len(matches),
		"total_jobs_analyzed": len(postings),
	})
}

func resumeUpload(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "resume file is required")
	}
	if fileHeader.Size > maxUploadSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "resume file is too large (max 5MB)")
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".pdf" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "only pdf resumes are supported")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
	}
	return data, nil
}

func truncateMatches(matches []models.MatchResult, limit int) []models.MatchResult {
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

type sourceStatus struct {
	Source  string `json:"source"`
	Fetched int    `json:"fetched"`
	Kept    int    `json:"kept"`
	Error   string `json:"error,omitempty"`
}

func sourceStatuses(reports []aggregate.SourceReport) []sourceStatus {
	statuses := make([]sourceStatus, 0, len(reports))
	for _, report := range reports {
		status := sourceStatus{
			Source:  report.Source,
			Fetched: report.Fetched,
			Kept:    report.Kept,
		}
		if report.Err != nil {
			status.Error = report.Err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func parseKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}
