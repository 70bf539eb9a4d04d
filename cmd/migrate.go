package cmd

import (
	"jobby/internal/config"
	"jobby/internal/database"
	"jobby/internal/database/schema"
	"jobby/internal/database/schema/migrations"
	apperrors "jobby/internal/errors"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending ClickHouse schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return migrate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != "clickhouse" {
		return apperrors.InvalidConfig("store.driver must be clickhouse to run migrations", nil)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ch := cfg.Store.ClickHouse
	db, err := database.New(cmd.Context(), database.Options{
		Addr:            ch.Addr,
		MaxOpenConns:    ch.MaxOpenConns,
		MaxIdleConns:    ch.MaxIdleConns,
		ConnMaxLifetime: ch.ConnMaxLifetime,
		Username:        ch.Username,
		Password:        ch.Password,
		Database:        ch.Database,
	}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), log)
	if err := migrator.ApplyPending(cmd.Context(), migrations.All()); err != nil {
		return err
	}

	log.Info("all migrations completed successfully")
	return nil
}
