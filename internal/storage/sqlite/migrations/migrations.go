// Package migrations holds the run journal schema.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/questline/internal/log"
)

//go:embed sql/*.sql
var journalSchema embed.FS

// ErrDirtySchema is returned when a previous migration did not finish and the
// journal needs manual repair.
var ErrDirtySchema = errors.New("journal schema is dirty")

// Up brings the journal schema of db to the latest embedded version and
// returns that version.
func Up(db *sql.DB, logger log.Logger) (uint, error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	m, err := newMigrate(db)
	if err != nil {
		return 0, err
	}

	from, _, err := version(m)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("could not migrate journal schema: %w", err)
	}

	to, dirty, err := version(m)
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("%w at version %d", ErrDirtySchema, to)
	}

	if from != to {
		logger.Infof("Journal schema migrated from version %d to %d", from, to)
	}

	return to, nil
}

// Down removes the whole journal schema from db.
func Down(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not drop journal schema: %w", err)
	}

	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(journalSchema, "sql")
	if err != nil {
		return nil, fmt.Errorf("could not load journal schema: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migration instance: %w", err)
	}

	return m, nil
}

// version returns 0 for a database without schema.
func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not get journal schema version: %w", err)
	}

	return v, dirty, nil
}
