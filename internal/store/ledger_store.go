package store

import (
	"context"
	"fmt"

	"github.com/nhle/goal-tracker/internal/model"
)

// recomputeCurrentValue rewrites a progress task's materialized
// current_value from the ledger sum and bumps updated_at. It is idempotent:
// repeating it from the same ledger state writes the same value, which is
// what keeps a partially-failed mutation recoverable.
const recomputeCurrentValue = `
	UPDATE tasks SET
		current_value = (SELECT COALESCE(SUM(value), 0) FROM progress_entries WHERE task_id = ?),
		updated_at = ?
	WHERE id = ? AND user_id = ?`

// AddDailyCompletion records a completion date for a daily task. The insert
// is idempotent: an already-recorded date changes nothing, including
// updated_at.
func (s *SQLiteStore) AddDailyCompletion(ctx context.Context, ownerID, taskID, date string) (*model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedDailyTask(tx, ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO daily_completions (task_id, completed_date) VALUES (?, ?)",
		taskID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting completion for task %s: %w", taskID, err)
	}

	inserted, _ := result.RowsAffected()
	if inserted > 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET updated_at = ? WHERE id = ? AND user_id = ?",
			s.now().UTC(), taskID, ownerID,
		); err != nil {
			return nil, fmt.Errorf("bumping task %s: %w", taskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing completion: %w", err)
	}

	return s.GetTaskByID(ctx, ownerID, taskID)
}

// AddProgressEntry appends a ledger entry and recomputes the task's
// current_value from the ledger sum, ledger-first so the snapshot can
// always be rebuilt from ledger state.
func (s *SQLiteStore) AddProgressEntry(ctx context.Context, ownerID, taskID, date string, value float64) (*model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownedProgressTask(tx, ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO progress_entries (task_id, entry_date, value) VALUES (?, ?, ?)",
		taskID, date, value,
	); err != nil {
		return nil, fmt.Errorf("inserting progress entry for task %s: %w", taskID, err)
	}

	if _, err := tx.ExecContext(ctx, recomputeCurrentValue,
		taskID, s.now().UTC(), taskID, ownerID,
	); err != nil {
		return nil, fmt.Errorf("recomputing current value for task %s: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing progress entry: %w", err)
	}

	return s.GetTaskByID(ctx, ownerID, taskID)
}

// RemoveProgressEntry deletes exactly one ledger entry scoped to the given
// task and owner, then recomputes current_value. A missing entry, wrong
// task, or wrong owner is ErrNotFound with the ledger untouched.
func (s *SQLiteStore) RemoveProgressEntry(ctx context.Context, ownerID, taskID string, entryID int64) (*model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM progress_entries
		WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE id = ? AND user_id = ?)`,
		entryID, taskID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("deleting progress entry %d: %w", entryID, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, recomputeCurrentValue,
		taskID, s.now().UTC(), taskID, ownerID,
	); err != nil {
		return nil, fmt.Errorf("recomputing current value for task %s: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing entry removal: %w", err)
	}

	return s.GetTaskByID(ctx, ownerID, taskID)
}

// CompleteOneTime sets completed_at on a one-time task. Re-completing an
// already-completed task writes the same date again, which makes the
// operation idempotent apart from the updated_at bump.
func (s *SQLiteStore) CompleteOneTime(ctx context.Context, ownerID, taskID, date string) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND type = 'one-time'`,
		date, s.now().UTC(), taskID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("completing task %s: %w", taskID, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetTaskByID(ctx, ownerID, taskID)
}

// execer abstracts *sqlx.Tx for the ownership guards below.
type execer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func ownedDailyTask(tx execer, ctx context.Context, ownerID, taskID string) error {
	return ownedTaskOfType(tx, ctx, ownerID, taskID, "daily")
}

func ownedProgressTask(tx execer, ctx context.Context, ownerID, taskID string) error {
	return ownedTaskOfType(tx, ctx, ownerID, taskID, "progress")
}

// ownedTaskOfType verifies the task exists, belongs to the owner, and has
// the expected type, without distinguishing which check failed.
func ownedTaskOfType(tx execer, ctx context.Context, ownerID, taskID, taskType string) error {
	var count int
	err := tx.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tasks WHERE id = ? AND user_id = ? AND type = ?",
		taskID, ownerID, taskType,
	)
	if err != nil {
		return fmt.Errorf("checking task %s: %w", taskID, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
