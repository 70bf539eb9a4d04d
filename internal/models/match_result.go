package models

// MatchResult pairs a posting with its compatibility scores. Component
// scores and the overall score are integers in [0, 100].
type MatchResult struct {
	Job             JobPosting          `json:"job"`
	Score           int                 `json:"match_score"`
	SkillScore      int                 `json:"skill_match"`
	ExperienceScore int                 `json:"experience_match"`
	LocationScore   int                 `json:"location_match"`
	SalaryScore     int                 `json:"salary_match"`
	Skills          SkillBreakdown      `json:"skill_breakdown"`
	Experience      ExperienceBreakdown `json:"experience_compatibility"`
	Salary          SalaryBreakdown     `json:"salary_analysis"`
}

// SkillBreakdown explains the skill component of a match.
type SkillBreakdown struct {
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	MatchPercentage float64  `json:"match_percentage"`
	TotalRequired   int      `json:"total_required"`
	TotalMatched    int      `json:"total_matched"`
}

// ExperienceBreakdown explains the experience component of a match.
type ExperienceBreakdown struct {
	UserLevel        string `json:"user_level"`
	JobLevelDetected string `json:"job_level_detected"`
	Compatibility    string `json:"compatibility"`
	Recommendation   string `json:"recommendation"`
}

// SalaryExpectation is the candidate side of the salary analysis.
type SalaryExpectation struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Currency string `json:"currency"`
}

// SalaryBreakdown explains the salary component of a match.
type SalaryBreakdown struct {
	UserExpectation SalaryExpectation `json:"user_expectation"`
	JobOffer        string            `json:"job_offer"`
	Analysis        string            `json:"analysis"`
}
