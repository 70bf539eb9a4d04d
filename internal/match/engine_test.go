package match_test

import (
	"testing"

	"jobby/internal/config"
	"jobby/internal/match"
	"jobby/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEngine() *match.Engine {
	return match.NewEngine(config.MatchConfig{
		SkillWeight:      0.40,
		ExperienceWeight: 0.25,
		LocationWeight:   0.20,
		SalaryWeight:     0.15,
		BRLDivisor:       5,
	}, zap.NewNop())
}

func scoreOne(t *testing.T, profile models.CandidateProfile, job models.JobPosting) models.MatchResult {
	t.Helper()
	results := testEngine().Score(profile, []models.JobPosting{job})
	require.Len(t, results, 1)
	return results[0]
}

func TestScoreTruncatesOverall(t *testing.T) {
	profile := models.CandidateProfile{Skills: []string{"Python", "SQL"}}
	job := models.JobPosting{
		Title:        "Data Engineer",
		Requirements: []string{"Python", "SQL", "Docker"},
	}

	result := scoreOne(t, profile, job)

	// skill 66, experience 80, location 100, salary 90
	assert.Equal(t, 66, result.SkillScore)
	assert.Equal(t, 80, result.ExperienceScore)
	assert.Equal(t, 100, result.LocationScore)
	assert.Equal(t, 90, result.SalaryScore)

	// 66*0.40 + 80*0.25 + 100*0.20 + 90*0.15 = 79.9, truncated to 79.
	assert.Equal(t, 79, result.Score)
}

func TestSkillMatch(t *testing.T) {
	tests := []struct {
		name         string
		skills       []string
		requirements []string
		want         int
	}{
		{"no user skills", nil, []string{"Python"}, 0},
		{"no requirements", []string{"Python"}, nil, 0},
		{"case and whitespace insensitive", []string{"python", "DOCKER"}, []string{"Python", " docker "}, 100},
		{"partial match truncates", []string{"Python", "SQL"}, []string{"Python", "SQL", "Docker"}, 66},
		{"extra user skills do not help", []string{"Python", "Rust", "Haskell"}, []string{"Python", "Go"}, 50},
		{"duplicate user skills are capped", []string{"Python", "python"}, []string{"Python"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreOne(t,
				models.CandidateProfile{Skills: tt.skills},
				models.JobPosting{Requirements: tt.requirements})
			assert.Equal(t, tt.want, result.SkillScore)
		})
	}
}

func TestExperienceMatch(t *testing.T) {
	tests := []struct {
		name  string
		level string
		title string
		want  int
	}{
		{"unset level is neutral", "", "Senior Engineer", 80},
		{"own keyword in title", "senior", "Lead Developer", 95},
		{"both default to mid", "mid", "Software Engineer", 95},
		{"one level apart", "junior", "Senior Developer", 85},
		{"two levels apart", "junior", "Senior Engineer", 70},
		{"three levels apart", "junior", "Engineering Manager", 50},
		{"lead against junior role", "lead", "Junior Intern", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreOne(t,
				models.CandidateProfile{ExperienceLevel: tt.level},
				models.JobPosting{Title: tt.title})
			assert.Equal(t, tt.want, result.ExperienceScore)
		})
	}
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		name string
		user string
		job  string
		want int
	}{
		{"no user preference", "", "Berlin", 100},
		{"job without location", "Berlin", "", 100},
		{"remote job", "São Paulo", "Remote - LATAM", 100},
		{"substring match", "São Paulo", "São Paulo, SP", 100},
		{"shared word", "New York City", "York Area", 85},
		{"both brazilian", "Belo Horizonte, MG", "Rio de Janeiro, RJ", 75},
		{"unrelated places", "Toronto", "London", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreOne(t,
				models.CandidateProfile{Location: tt.user},
				models.JobPosting{Location: tt.job})
			assert.Equal(t, tt.want, result.LocationScore)
		})
	}
}

func TestSalaryMatch(t *testing.T) {
	tests := []struct {
		name   string
		min    int
		max    int
		salary string
		want   int
	}{
		{"no expectation", 0, 0, "$100,000", 90},
		{"job without salary", 50000, 0, "", 90},
		{"unparseable salary", 50000, 0, "Competitive", 90},
		{"inside expected range", 50000, 120000, "$100,000", 100},
		{"well above minimum", 50000, 0, "$100,000", 95},
		{"barely above minimum", 90000, 0, "$100,000", 85},
		{"below minimum scales down", 200000, 0, "$100,000", 40},
		{"floor at thirty", 1000000, 0, "$10,000", 30},
		{"brl converted before comparing", 2000, 0, "R$ 15,000/month", 95},
		{"brl inside range", 3000, 3200, "R$ 15,000/month", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreOne(t,
				models.CandidateProfile{SalaryMin: tt.min, SalaryMax: tt.max},
				models.JobPosting{Salary: tt.salary})
			assert.Equal(t, tt.want, result.SalaryScore)
		})
	}
}

func TestScoreOrderingIsStable(t *testing.T) {
	profile := models.CandidateProfile{Skills: []string{"Go"}}
	postings := []models.JobPosting{
		{ID: "j2", Title: "Backend Engineer", Requirements: []string{"Rust"}},
		{ID: "j1", Title: "Platform Engineer", Requirements: []string{"Go"}},
		{ID: "j3", Title: "Systems Engineer", Requirements: []string{"Rust"}},
	}

	results := testEngine().Score(profile, postings)
	require.Len(t, results, 3)

	assert.Equal(t, "j1", results[0].Job.ID)
	assert.Equal(t, "j2", results[1].Job.ID, "equal scores keep input order")
	assert.Equal(t, "j3", results[2].Job.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, results[1].Score, results[2].Score)
}

func TestSkillBreakdown(t *testing.T) {
	profile := models.CandidateProfile{Skills: []string{"python", "Docker", "Terraform"}}
	job := models.JobPosting{Requirements: []string{"Python", "Kubernetes", "docker "}}

	result := scoreOne(t, profile, job)
	breakdown := result.Skills

	assert.Equal(t, []string{"python", "Docker"}, breakdown.MatchingSkills, "user casing preserved")
	assert.Equal(t, []string{"Kubernetes"}, breakdown.MissingSkills, "requirement casing preserved")
	assert.InDelta(t, 200.0/3.0, breakdown.MatchPercentage, 1e-9)
	assert.Equal(t, 3, breakdown.TotalRequired)
	assert.Equal(t, 2, breakdown.TotalMatched)
}

func TestExperienceBreakdown(t *testing.T) {
	t.Run("unset level", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{},
			models.JobPosting{Title: "Senior Engineer"})

		assert.Equal(t, "Not specified", result.Experience.UserLevel)
		assert.Equal(t, "Senior", result.Experience.JobLevelDetected)
		assert.Equal(t, "Level not specified", result.Experience.Compatibility)
		assert.Equal(t, "Complete your profile with experience level for better matching", result.Experience.Recommendation)
	})

	t.Run("junior against senior role", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{ExperienceLevel: "junior"},
			models.JobPosting{Title: "Senior Engineer"})

		assert.Equal(t, "Good match", result.Experience.Compatibility)
		assert.Equal(t, "Consider developing more experience before applying", result.Experience.Recommendation)
	})

	t.Run("senior against junior role", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{ExperienceLevel: "senior"},
			models.JobPosting{Title: "Junior Analyst"})

		assert.Equal(t, "Junior", result.Experience.JobLevelDetected)
		assert.Equal(t, "This role might be below your experience level", result.Experience.Recommendation)
	})

	t.Run("aligned levels", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{ExperienceLevel: "mid"},
			models.JobPosting{Title: "Software Developer"})

		assert.Equal(t, "Mid-level", result.Experience.JobLevelDetected)
		assert.Equal(t, "Good experience level match for this position", result.Experience.Recommendation)
	})
}

func TestSalaryBreakdown(t *testing.T) {
	t.Run("with expectation", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{SalaryMin: 5000, SalaryMax: 8000},
			models.JobPosting{Salary: "$6,000/month"})

		assert.Equal(t, 5000, result.Salary.UserExpectation.Min)
		assert.Equal(t, 8000, result.Salary.UserExpectation.Max)
		assert.Equal(t, "USD", result.Salary.UserExpectation.Currency)
		assert.Equal(t, "$6,000/month", result.Salary.JobOffer)
		assert.Equal(t, "Competitive", result.Salary.Analysis)
	})

	t.Run("without expectation", func(t *testing.T) {
		result := scoreOne(t,
			models.CandidateProfile{},
			models.JobPosting{})

		assert.Equal(t, "Not specified", result.Salary.JobOffer)
		assert.Equal(t, "No salary expectation specified", result.Salary.Analysis)
	})
}
