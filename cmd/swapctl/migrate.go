package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/infrastructure/config"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/postgres"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Applies the embedded SQL migrations to the configured PostgreSQL database.
SQLite databases are migrated automatically on startup.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *migrations.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		newMigrateDownCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *migrations.Migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withMigrator(cmd, func(m *migrations.Migrator) error {
					return m.Force(version)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the embedded migration versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				versions, err := migrations.Versions()
				if err != nil {
					return err
				}
				for _, v := range versions {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			},
		},
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*migrations.Migrator) error) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to %s databases only, configured driver is %q", config.DriverPostgres, cfg.Database.Driver)
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	m, err := migrations.New(sqlDB, cfg.Database.Database, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m)
}

func newMigrateDownCommand() *cobra.Command {
	var (
		steps int
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations, one by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && steps < 1 {
				return fmt.Errorf("--steps must be at least 1, use --all to roll back everything")
			}
			if all {
				steps = 0
			}
			return withMigrator(cmd, func(m *migrations.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func printVersion(cmd *cobra.Command, m *migrations.Migrator) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	state := "clean"
	if st.Dirty {
		state = "dirty"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d (%s), %d pending\n", st.Version, state, len(st.Pending))
	return err
}
