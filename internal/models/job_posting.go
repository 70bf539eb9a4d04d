package models

import (
	"encoding/json"
	"time"
)

// JobPosting is the canonical posting shape every source adapter produces.
type JobPosting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Salary       string    `json:"salary,omitempty"`
	ApplyURL     string    `json:"apply_url"`
	PostedAt     time.Time `json:"posted_date"`
	Source       string    `json:"source"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

func (p JobPosting) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *JobPosting) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}

// DedupeKey identifies a posting across sources. Two postings with the same
// key are the same job regardless of which adapter produced them.
func (p JobPosting) DedupeKey() string {
	return p.Title + "\x00" + p.Company + "\x00" + p.ApplyURL
}

// PostingList lets a whole fetch result round-trip through the cache.
type PostingList []JobPosting

func (l PostingList) MarshalBinary() ([]byte, error) {
	return json.Marshal([]JobPosting(l))
}

func (l *PostingList) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, (*[]JobPosting)(l))
}
