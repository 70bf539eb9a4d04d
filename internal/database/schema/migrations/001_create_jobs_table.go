package migrations

import "jobby/internal/database/schema"

var CreateJobsTable = schema.Migration{
	Version:     1,
	Description: "Create jobs table",
	Up: `
		CREATE TABLE IF NOT EXISTS jobs (
			id UUID,
			title String,
			company String,
			location String,
			description String,
			requirements Array(String),
			salary String,
			apply_url String,
			posted_date DateTime,
			source String,
			scraped_at DateTime,
			PRIMARY KEY (id)
		) ENGINE = ReplacingMergeTree(scraped_at)
		PARTITION BY toYYYYMM(posted_date)
		ORDER BY (id, posted_date)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS jobs`,
}

// All lists every migration in apply order.
func All() []schema.Migration {
	return []schema.Migration{
		CreateJobsTable,
	}
}
