package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/groupgate/groupgate/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabaseURL(); err != nil {
			return err
		}
		return store.Migrate(cfg.Database.URL)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabaseURL(); err != nil {
			return err
		}
		return store.MigrationStatus(cfg.Database.URL)
	},
}

func requireDatabaseURL() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required (GROUPGATE_DATABASE_URL)")
	}
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
