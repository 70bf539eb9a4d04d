package match

import (
	"strings"

	"jobby/internal/models"
)

var (
	seniorLevelWords = []string{"senior", "lead", "principal", "architect"}
	juniorLevelWords = []string{"junior", "entry", "associate", "trainee"}
)

func skillBreakdown(userSkills, requirements []string) models.SkillBreakdown {
	userSet := make(map[string]struct{}, len(userSkills))
	for _, skill := range userSkills {
		userSet[strings.TrimSpace(strings.ToLower(skill))] = struct{}{}
	}
	requiredSet := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
		requiredSet[strings.TrimSpace(strings.ToLower(req))] = struct{}{}
	}

	matching := make([]string, 0, len(userSkills))
	for _, skill := range userSkills {
		if _, ok := requiredSet[strings.ToLower(skill)]; ok {
			matching = append(matching, skill)
		}
	}

	missing := make([]string, 0, len(requirements))
	for _, req := range requirements {
		if _, ok := userSet[strings.ToLower(req)]; !ok {
			missing = append(missing, req)
		}
	}

	total := len(requirements)
	if total < 1 {
		total = 1
	}

	return models.SkillBreakdown{
		MatchingSkills:  matching,
		MissingSkills:   missing,
		MatchPercentage: float64(len(matching)) / float64(total) * 100,
		TotalRequired:   len(requirements),
		TotalMatched:    len(matching),
	}
}

func experienceBreakdown(userLevel, title, description string) models.ExperienceBreakdown {
	displayedLevel := userLevel
	if displayedLevel == "" {
		displayedLevel = "Not specified"
	}
	compatibility := "Good match"
	if userLevel == "" {
		compatibility = "Level not specified"
	}

	return models.ExperienceBreakdown{
		UserLevel:        displayedLevel,
		JobLevelDetected: detectJobLevel(title, description),
		Compatibility:    compatibility,
		Recommendation:   experienceRecommendation(userLevel, title),
	}
}

func detectJobLevel(title, description string) string {
	text := strings.ToLower(title + " " + description)
	if containsAny(text, seniorLevelWords) {
		return "Senior"
	}
	if containsAny(text, juniorLevelWords) {
		return "Junior"
	}
	return "Mid-level"
}

func experienceRecommendation(userLevel, title string) string {
	if userLevel == "" {
		return "Complete your profile with experience level for better matching"
	}

	titleLower := strings.ToLower(title)
	if strings.Contains(titleLower, "senior") && userLevel == "junior" {
		return "Consider developing more experience before applying"
	}
	if strings.Contains(titleLower, "junior") && (userLevel == "senior" || userLevel == "lead") {
		return "This role might be below your experience level"
	}
	return "Good experience level match for this position"
}

func salaryBreakdown(userMin, userMax int, jobSalary string) models.SalaryBreakdown {
	offer := jobSalary
	if offer == "" {
		offer = "Not specified"
	}
	analysis := "Competitive"
	if userMin == 0 {
		analysis = "No salary expectation specified"
	}

	return models.SalaryBreakdown{
		UserExpectation: models.SalaryExpectation{
			Min:      userMin,
			Max:      userMax,
			Currency: "USD",
		},
		JobOffer: offer,
		Analysis: analysis,
	}
}
