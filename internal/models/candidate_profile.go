package models

// CandidateProfile is the matching engine's view of a candidate. It is
// assembled from a parsed resume or from request parameters and is never
// mutated by the engine.
type CandidateProfile struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Skills          []string `json:"skills"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty"`
	Location        string   `json:"location,omitempty"`
	SalaryMin       int      `json:"salary_min,omitempty"`
	SalaryMax       int      `json:"salary_max,omitempty"`
}
