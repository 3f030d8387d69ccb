package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/examwatch/proctor-admin/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Create the Postgres session store schema",
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotation(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithOptions(config.LoadOptions{})
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return &exitError{code: 2, err: errors.New("DATABASE_URL is required for migrate")}
		}

		m, err := migrate.New("file://db/migrations", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open migrations: %w", err)
		}
		defer m.Close()

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				slog.Info("no changes to apply")
				return nil
			}
			return err
		}

		slog.Info("migrations applied successfully")
		return nil
	},
}
