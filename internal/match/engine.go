// Package match scores job postings against a candidate profile. The
// scoring model is four weighted components (skills, experience level,
// location, salary) combined into one 0-100 compatibility score, each
// explained by a breakdown payload.
package match

import (
	"math"
	"sort"
	"strings"

	"jobby/internal/config"
	"jobby/internal/models"
	"jobby/internal/normalize"

	"go.uber.org/zap"
)

var levelsOrder = []string{"junior", "mid", "senior", "lead"}

// experienceKeywords maps a level to the words that imply it in a job
// title or description. A level's own name counts as a keyword.
var experienceKeywords = map[string][]string{
	"junior": {"junior", "entry", "associate", "trainee", "graduate"},
	"mid":    {"mid", "intermediate", "experienced", "analyst", "developer"},
	"senior": {"senior", "lead", "principal", "expert", "architect"},
	"lead":   {"lead", "manager", "director", "head", "chief", "principal"},
}

var brazilIndicators = []string{"brazil", "brasil", "br", "são paulo", "rio de janeiro", "bh", "mg", "sp", "rj"}

type Engine struct {
	cfg    config.MatchConfig
	logger *zap.Logger
}

func NewEngine(cfg config.MatchConfig, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger,
	}
}

// Score evaluates every posting independently against the profile and
// returns the results ordered by overall score, highest first. Postings
// with equal scores keep their input order.
func (e *Engine) Score(profile models.CandidateProfile, postings []models.JobPosting) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(postings))

	for _, job := range postings {
		skillScore := skillMatch(profile.Skills, job.Requirements)
		experienceScore := experienceMatch(profile.ExperienceLevel, job.Title, job.Description)
		locationScore := locationMatch(profile.Location, job.Location)
		salaryScore := e.salaryMatch(profile.SalaryMin, profile.SalaryMax, job.Salary)

		// Truncated, not rounded. Tests depend on this.
		overall := int(float64(skillScore)*e.cfg.SkillWeight +
			float64(experienceScore)*e.cfg.ExperienceWeight +
			float64(locationScore)*e.cfg.LocationWeight +
			float64(salaryScore)*e.cfg.SalaryWeight)

		results = append(results, models.MatchResult{
			Job:             job,
			Score:           overall,
			SkillScore:      skillScore,
			ExperienceScore: experienceScore,
			LocationScore:   locationScore,
			SalaryScore:     salaryScore,
			Skills:          skillBreakdown(profile.Skills, job.Requirements),
			Experience:      experienceBreakdown(profile.ExperienceLevel, job.Title, job.Description),
			Salary:          salaryBreakdown(profile.SalaryMin, profile.SalaryMax, job.Salary),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	e.logger.Info("calculated matches", zap.Int("jobs", len(postings)))
	return results
}

func skillMatch(userSkills, requirements []string) int {
	if len(userSkills) == 0 || len(requirements) == 0 {
		return 0
	}

	required := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
		required[strings.TrimSpace(strings.ToLower(req))] = struct{}{}
	}

	matched := 0
	for _, skill := range userSkills {
		if _, ok := required[strings.TrimSpace(strings.ToLower(skill))]; ok {
			matched++
		}
	}

	score := matched * 100 / len(requirements)
	if score > 100 {
		score = 100
	}
	return score
}

func experienceMatch(userLevel, title, description string) int {
	if userLevel == "" {
		return 80
	}

	jobText := strings.ToLower(title + " " + description)
	userLevelLower := strings.ToLower(userLevel)

	if keywords, ok := experienceKeywords[userLevelLower]; ok {
		for _, keyword := range keywords {
			if strings.Contains(jobText, keyword) {
				return 95
			}
		}
	}

	userIndex := 1
	for i, level := range levelsOrder {
		if level == userLevelLower {
			userIndex = i
			break
		}
	}

	jobIndex := 1
	for i, level := range levelsOrder {
		if containsAny(jobText, experienceKeywords[level]) {
			jobIndex = i
			break
		}
	}

	diff := userIndex - jobIndex
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 95
	case 1:
		return 85
	case 2:
		return 70
	default:
		return 50
	}
}

func locationMatch(userLocation, jobLocation string) int {
	if userLocation == "" || jobLocation == "" {
		return 100
	}

	userLoc := strings.ToLower(userLocation)
	jobLoc := strings.ToLower(jobLocation)

	if strings.Contains(jobLoc, "remote") {
		return 100
	}

	if strings.Contains(jobLoc, userLoc) || strings.Contains(userLoc, jobLoc) {
		return 100
	}

	for _, word := range strings.Fields(userLoc) {
		if strings.Contains(jobLoc, word) {
			return 85
		}
	}

	if containsAny(userLoc, brazilIndicators) && containsAny(jobLoc, brazilIndicators) {
		return 75
	}

	return 60
}

func (e *Engine) salaryMatch(userMin, userMax int, jobSalary string) int {
	if userMin == 0 || jobSalary == "" {
		return 90
	}

	parsed, ok := normalize.ParseSalary(jobSalary, e.cfg.BRLDivisor)
	if !ok {
		return 90
	}

	expected := float64(userMin)
	if parsed >= expected {
		if userMax != 0 && parsed <= float64(userMax) {
			return 100
		}
		if parsed >= expected*1.2 {
			return 95
		}
		return 85
	}

	return int(math.Max(parsed/expected*80, 30))
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
