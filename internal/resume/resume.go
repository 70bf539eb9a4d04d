// Package resume turns an uploaded PDF résumé into a candidate profile:
// text extraction, skill detection, and a few cheap heuristics for name,
// email and seniority.
package resume

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	apperrors "jobby/internal/errors"
	"jobby/internal/models"
	"jobby/internal/skills"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const defaultYearsExperience = 2

var (
	yearsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\+?\s*years?\s*(?:of\s*)?experience`),
		regexp.MustCompile(`(\d+)\+?\s*anos?\s*de\s*experiência`),
		regexp.MustCompile(`experience:?\s*(\d+)\+?\s*years?`),
	}

	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
)

type Service struct {
	extractor *skills.Extractor
	logger    *zap.Logger
}

func NewService(extractor *skills.Extractor, logger *zap.Logger) *Service {
	return &Service{
		extractor: extractor,
		logger:    logger,
	}
}

// Analyze extracts the résumé text and derives a profile from it.
func (s *Service) Analyze(data []byte) (models.CandidateProfile, error) {
	text, err := s.extractText(data)
	if err != nil {
		return models.CandidateProfile{}, err
	}

	years := yearsOfExperience(text)
	profile := models.CandidateProfile{
		Name:            candidateName(text),
		Email:           candidateEmail(text),
		Skills:          s.extractor.Extract(text),
		ExperienceLevel: levelForYears(years),
		YearsExperience: years,
	}

	s.logger.Info("analyzed resume",
		zap.Int("skills", len(profile.Skills)),
		zap.Int("years_experience", profile.YearsExperience),
		zap.String("experience_level", profile.ExperienceLevel))

	return profile, nil
}

func (s *Service) extractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", apperrors.InvalidRecord("opening pdf", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			s.logger.Warn("failed to extract pdf page", zap.Int("page", n+1), zap.Error(err))
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", apperrors.InvalidRecord("no extractable text in pdf", nil)
	}
	return text, nil
}

func yearsOfExperience(text string) int {
	lowered := strings.ToLower(text)
	for _, pattern := range yearsPatterns {
		if m := pattern.FindStringSubmatch(lowered); m != nil {
			years, err := strconv.Atoi(m[1])
			if err == nil {
				return years
			}
		}
	}
	return defaultYearsExperience
}

func levelForYears(years int) string {
	switch {
	case years < 2:
		return "junior"
	case years <= 5:
		return "mid"
	default:
		return "senior"
	}
}

// candidateName looks for a short all-alphabetic line near the top of
// the document. Headings and contact lines are skipped.
func candidateName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@0123456789") {
			continue
		}
		lowered := strings.ToLower(line)
		if strings.Contains(lowered, "resume") || strings.Contains(lowered, "curriculum") {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if allAlphabetic(words) {
			return line
		}
	}
	return ""
}

func allAlphabetic(words []string) bool {
	for _, word := range words {
		for _, r := range word {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

func candidateEmail(text string) string {
	return emailPattern.FindString(text)
}
