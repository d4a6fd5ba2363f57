// Package migrations applies the embedded PostgreSQL schema with
// golang-migrate. SQLite uses gorm AutoMigrate instead.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migrator handles database migrations
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a new migrator instance over an open PostgreSQL handle
func New(db *sql.DB, databaseName string, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    databaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		logger:  logger.Named("migrations"),
	}, nil
}

// ErrDirty means a previous migration failed halfway; the schema must be
// repaired and the version forced before migrating again.
var ErrDirty = errors.New("database schema is dirty")

// Status describes the applied schema against the embedded migrations
type Status struct {
	Version uint
	Dirty   bool
	Pending []uint
}

// Status reports the applied version and the embedded versions above it
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, fmt.Errorf("failed to get current version: %w", err)
	}
	all, err := Versions()
	if err != nil {
		return Status{}, err
	}

	st := Status{Version: version, Dirty: dirty}
	for _, v := range all {
		if v > version {
			st.Pending = append(st.Pending, v)
		}
	}
	return st, nil
}

// Up applies every pending migration. It refuses to run on a dirty schema.
func (m *Migrator) Up() error {
	start := time.Now()

	before, err := m.Status()
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, before.Version)
	}
	if len(before.Pending) == 0 {
		m.logger.Info("Schema is up to date", zap.Uint("version", before.Version))
		return nil
	}

	m.logger.Info("Applying migrations",
		zap.Uint("from_version", before.Version),
		zap.Uints("pending", before.Pending),
	)
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	after, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	m.logger.Info("Migrations applied",
		zap.Uint("to_version", after),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Down rolls back steps migrations; steps <= 0 rolls back all of them
func (m *Migrator) Down(steps int) error {
	m.logger.Info("Rolling back migrations", zap.Int("steps", steps))

	var err error
	if steps <= 0 {
		err = m.migrate.Down()
	} else {
		err = m.migrate.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version returns the current migration version; zero before the first run
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Force records version as applied and clears the dirty flag without
// running any SQL.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}
	return nil
}

// Close releases the source and the database handle passed to New
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// Versions lists the embedded migration versions in ascending order
func Versions() ([]uint, error) {
	entries, err := fs.ReadDir(sqlFiles, "sql")
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	for _, entry := range entries {
		prefix, _, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("migration %q has no version prefix", entry.Name())
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		seen[uint(v)] = true
	}

	versions := make([]uint, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}
