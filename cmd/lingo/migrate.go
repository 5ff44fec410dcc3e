package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		if err := store.Migrate(cmd.Context(), cfg.DatabaseURL, slog.Default()); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
