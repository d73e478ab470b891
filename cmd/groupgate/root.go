package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/groupgate/groupgate/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "groupgate",
	Short: "Group-scoped GraphQL gateway",
	Long: `groupgate serves a GraphQL API whose fields and types enforce group
membership through the @requiresGroupMembership directive, backed by
PostgreSQL with row-level security.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./groupgate.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func logLevel() slog.Level {
	switch cfg.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
