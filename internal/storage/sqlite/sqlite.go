package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
	"github.com/slok/questline/internal/storage/sqlite/migrations"
)

// JournalConfig is the configuration for the SQLite journal.
type JournalConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *JournalConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLiteJournal"})
	return nil
}

// Journal is a SQLite implementation of storage.JournalRepository.
type Journal struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.JournalRepository = &Journal{}

// NewJournal creates a new SQLite journal, migrating the database if required.
func NewJournal(ctx context.Context, cfg JournalConfig) (*Journal, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	version, err := migrations.Up(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite journal initialized at %s (schema version %d)", cfg.DBPath, version)

	return &Journal{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error { return j.db.Close() }

// CreateRun stores a new run.
func (j *Journal) CreateRun(ctx context.Context, r model.Run) error {
	query := `
		INSERT INTO runs (
			id, quest_id, status,
			sequence, step,
			reason, error,
			started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(
		ctx,
		query,
		r.ID,
		r.QuestID,
		r.Status,
		r.Sequence,
		r.Step,
		r.Reason,
		r.Error,
		r.StartedAt.Unix(),
		unixOrNil(r.FinishedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	j.logger.Debugf("Created run in journal: %s", r.ID)
	return nil
}

// UpdateRun updates an existing run.
func (j *Journal) UpdateRun(ctx context.Context, r model.Run) error {
	query := `
		UPDATE runs
		SET
			quest_id = ?,
			status = ?,
			sequence = ?,
			step = ?,
			reason = ?,
			error = ?,
			started_at = ?,
			finished_at = ?
		WHERE id = ?
	`

	result, err := j.db.ExecContext(
		ctx,
		query,
		r.QuestID,
		r.Status,
		r.Sequence,
		r.Step,
		r.Reason,
		r.Error,
		r.StartedAt.Unix(),
		unixOrNil(r.FinishedAt),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", r.ID, model.ErrNotFound)
	}

	j.logger.Debugf("Updated run in journal: %s", r.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (j *Journal) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
		SELECT
			id, quest_id, status,
			sequence, step,
			reason, error,
			started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(j.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	return &run, nil
}

// ListRuns returns the runs newest first.
func (j *Journal) ListRuns(ctx context.Context, opts storage.ListRunsOpts) ([]model.Run, error) {
	query := `
		SELECT
			id, quest_id, status,
			sequence, step,
			reason, error,
			started_at, finished_at
		FROM runs
	`
	args := []any{}
	if opts.QuestID != nil {
		query += ` WHERE quest_id = ?`
		args = append(args, *opts.QuestID)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.Run, error) {
	var r model.Run
	var startedAt int64
	var finishedAt sql.NullInt64

	err := s.Scan(
		&r.ID,
		&r.QuestID,
		&r.Status,
		&r.Sequence,
		&r.Step,
		&r.Reason,
		&r.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return model.Run{}, err
	}

	r.StartedAt = timeFromUnix(startedAt)
	if finishedAt.Valid {
		t := timeFromUnix(finishedAt.Int64)
		r.FinishedAt = &t
	}

	return r, nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
