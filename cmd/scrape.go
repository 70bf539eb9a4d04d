package cmd

import (
	"encoding/json"
	"fmt"

	"jobby/internal/config"
	"jobby/internal/messaging"
	"jobby/internal/sources"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one aggregation pass and print the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return scrape(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringSliceP("keywords", "k", nil, "keywords to filter postings by")
	scrapeCmd.Flags().StringP("location", "l", "", "location to search in")
	scrapeCmd.Flags().IntP("limit", "n", 0, "maximum postings per source")
	scrapeCmd.Flags().Bool("json", false, "print the full postings as JSON")
}

func scrape(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	c := newCache(cfg)
	defer c.Close()

	st, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := newRegistry(cfg, c, newExtractor(cfg), log)
	if err != nil {
		return err
	}

	// One-shot runs have no consumers to notify.
	aggregator, err := newAggregator(cfg, registry, st, messaging.NewNoopPublisher(), log)
	if err != nil {
		return err
	}

	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	location, _ := cmd.Flags().GetString("location")
	limit, _ := cmd.Flags().GetInt("limit")

	result, err := aggregator.Run(cmd.Context(), sources.Query{
		Keywords: keywords,
		Location: location,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		pretty, err := json.MarshalIndent(result.Postings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	}

	for _, report := range result.Reports {
		line := fmt.Sprintf("%-10s fetched=%-4d kept=%d", report.Source, report.Fetched, report.Kept)
		if report.Err != nil {
			line += "  error: " + report.Err.Error()
		}
		fmt.Println(line)
	}
	fmt.Printf("stored %d of %d postings\n", result.Stored, len(result.Postings))
	return nil
}
