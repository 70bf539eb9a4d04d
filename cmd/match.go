package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"jobby/internal/config"
	apperrors "jobby/internal/errors"
	"jobby/internal/messaging"
	"jobby/internal/models"
	"jobby/internal/resume"
	"jobby/internal/skills"
	"jobby/internal/sources"
	"jobby/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// matchCorpusLimit bounds how many stored postings one match run scores.
const matchCorpusLimit = 500

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank job postings against a candidate profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return matchJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringSlice("skills", nil, "candidate skills")
	matchCmd.Flags().String("level", "", "experience level (junior, mid, senior, lead)")
	matchCmd.Flags().Int("years", 0, "years of experience")
	matchCmd.Flags().String("location", "", "preferred location")
	matchCmd.Flags().Int("min-salary", 0, "minimum expected salary")
	matchCmd.Flags().Int("max-salary", 0, "maximum expected salary")
	matchCmd.Flags().String("resume", "", "path to a pdf resume to build the profile from")
	matchCmd.Flags().Bool("scrape", false, "scrape sources first instead of reading the store")
	matchCmd.Flags().Int("top", 10, "how many matches to print")
	matchCmd.Flags().Bool("json", false, "print matches as JSON")
}

func matchJobs(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	extractor := newExtractor(cfg)

	profile, err := buildProfile(cmd, extractor, log)
	if err != nil {
		return err
	}

	st, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var postings []models.JobPosting
	if scrapeFirst, _ := cmd.Flags().GetBool("scrape"); scrapeFirst {
		c := newCache(cfg)
		defer c.Close()

		registry, err := newRegistry(cfg, c, extractor, log)
		if err != nil {
			return err
		}

		aggregator, err := newAggregator(cfg, registry, st, messaging.NewNoopPublisher(), log)
		if err != nil {
			return err
		}

		result, err := aggregator.Run(cmd.Context(), sources.Query{
			Keywords: profile.Skills,
			Location: profile.Location,
		})
		if err != nil {
			return err
		}
		postings = result.Postings
	} else {
		postings, _, err = st.ListJobs(cmd.Context(), store.ListFilter{Limit: matchCorpusLimit})
		if err != nil {
			return err
		}
	}

	matches := newEngine(cfg, log).Score(profile, postings)
	if top, _ := cmd.Flags().GetInt("top"); top > 0 && len(matches) > top {
		matches = matches[:top]
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		pretty, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	}

	if len(matches) == 0 {
		fmt.Println("no postings to match against; run scrape first or pass --scrape")
		return nil
	}

	for i, m := range matches {
		fmt.Printf("%2d. [%3d] %s at %s (%s)\n", i+1, m.Score, m.Job.Title, m.Job.Company, m.Job.Location)
		fmt.Printf("     skills %d  experience %d  location %d  salary %d\n",
			m.SkillScore, m.ExperienceScore, m.LocationScore, m.SalaryScore)
	}
	return nil
}

// buildProfile assembles the candidate profile from a resume, flags, or
// both. Flags win over what the resume parser found.
func buildProfile(cmd *cobra.Command, extractor *skills.Extractor, log *zap.Logger) (models.CandidateProfile, error) {
	var profile models.CandidateProfile

	if resumePath, _ := cmd.Flags().GetString("resume"); resumePath != "" {
		data, err := os.ReadFile(resumePath)
		if err != nil {
			return profile, err
		}
		profile, err = resume.NewService(extractor, log).Analyze(data)
		if err != nil {
			return profile, err
		}
	}

	if skillsFlag, _ := cmd.Flags().GetStringSlice("skills"); len(skillsFlag) > 0 {
		profile.Skills = skillsFlag
	}
	if level, _ := cmd.Flags().GetString("level"); level != "" {
		profile.ExperienceLevel = level
	}
	if years, _ := cmd.Flags().GetInt("years"); years > 0 {
		profile.YearsExperience = years
	}
	if location, _ := cmd.Flags().GetString("location"); location != "" {
		profile.Location = location
	}
	if minSalary, _ := cmd.Flags().GetInt("min-salary"); minSalary > 0 {
		profile.SalaryMin = minSalary
	}
	if maxSalary, _ := cmd.Flags().GetInt("max-salary"); maxSalary > 0 {
		profile.SalaryMax = maxSalary
	}

	if len(profile.Skills) == 0 {
		return profile, apperrors.InvalidConfig("a profile needs at least --skills or --resume", nil)
	}
	return profile, nil
}
