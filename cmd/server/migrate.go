package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/map-veto-backend/internal/config"
	"github.com/DoyleJ11/map-veto-backend/internal/template"
)

var migrateSeed bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "also insert the built-in presets")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the template table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseDSN == "" {
			return errors.New("VETO_DATABASE_DSN is not set")
		}
		db, err := template.OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		store := template.NewGormStore(db)
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		if migrateSeed {
			if err := template.Seed(cmd.Context(), store); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "templates table is up to date")
		return nil
	},
}
