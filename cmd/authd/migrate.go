package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/st-angelo/webarena-auth/database"
	"github.com/st-angelo/webarena-auth/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			if err := database.Migrate(cmd.Context(), cfg.Database.DSN); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			cmd.Println("migrations applied")
			return nil
		},
	}
}
