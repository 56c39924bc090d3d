package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/questline/internal/model"
)

// AddTaskRecord appends a finished task to its run.
func (j *Journal) AddTaskRecord(ctx context.Context, r model.TaskRecord) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	var maxPos int
	query := `SELECT COALESCE(MAX(position), 0) FROM task_records WHERE run_id = ?`
	if err := tx.QueryRowContext(ctx, query, r.RunID).Scan(&maxPos); err != nil {
		return fmt.Errorf("could not get max position: %w", err)
	}

	insertQuery := `
		INSERT INTO task_records (
			id, run_id, position,
			sequence, step, task_index,
			name, result, error,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(
		ctx,
		insertQuery,
		r.ID,
		r.RunID,
		maxPos+1,
		r.Sequence,
		r.Step,
		r.Index,
		r.Name,
		r.Result,
		r.Error,
		r.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("run %s: %w", r.RunID, model.ErrNotFound)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: task_records.") {
			return fmt.Errorf("task record already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// ListTaskRecords returns the task records of a run in insertion order.
func (j *Journal) ListTaskRecords(ctx context.Context, runID string) ([]model.TaskRecord, error) {
	if _, err := j.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT
			id, run_id,
			sequence, step, task_index,
			name, result, error,
			created_at
		FROM task_records
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := j.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("could not query task records: %w", err)
	}
	defer rows.Close()

	records := []model.TaskRecord{}
	for rows.Next() {
		var r model.TaskRecord
		var createdAt int64
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.Sequence,
			&r.Step,
			&r.Index,
			&r.Name,
			&r.Result,
			&r.Error,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		r.CreatedAt = timeFromUnix(createdAt)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
