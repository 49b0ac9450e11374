// Package migration manages the registry's schema via embedded SQL
// migrations.
package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Manager applies schema migrations over an existing database connection.
// The connection is shared with the application and stays open after Close.
type Manager struct {
	migrator *migrate.Migrate
}

// NewManager creates a migration manager for the given connection.
func NewManager(db *sql.DB) (*Manager, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Manager{migrator: migrator}, nil
}

// Up applies all pending migrations. Already being current is not an error.
func (m *Manager) Up() error {
	err := m.migrator.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("Database schema is up to date")
	} else {
		log.Println("Database migrations applied")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Manager) Down() error {
	err := m.migrator.Steps(-1)
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// Version returns the current schema version. A fresh database reports
// version zero.
func (m *Manager) Version() (uint, bool, error) {
	version, dirty, err := m.migrator.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Run applies all pending migrations over db. Shorthand for callers that do
// not need the manager afterwards.
func Run(db *sql.DB) error {
	m, err := NewManager(db)
	if err != nil {
		return err
	}
	return m.Up()
}
