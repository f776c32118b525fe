package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/goal-tracker/internal/model"
)

// taskColumns is the canonical select list for the tasks table.
const taskColumns = `id, user_id, title, description, type, check_in_enabled,
	created_at, updated_at, target_days, target_value, current_value, unit, completed_at`

// ListTasks retrieves all tasks for an owner with their ledgers populated.
// Ledger rows are loaded in two bulk queries regardless of task count.
func (s *SQLiteStore) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY updated_at DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]string, len(tasks))
	byID := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		byID[tasks[i].ID] = &tasks[i]
	}

	if err := s.loadDailyCompletions(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := s.loadProgressEntries(ctx, ids, byID); err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetTaskByID retrieves a single task scoped to its owner, including its
// ledger rows. Unknown id and wrong owner both return ErrNotFound.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, ownerID, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?",
		id, ownerID,
	)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	byID := map[string]*model.Task{task.ID: &task}
	switch task.Type {
	case model.TaskTypeDaily:
		if err := s.loadDailyCompletions(ctx, []string{task.ID}, byID); err != nil {
			return nil, err
		}
	case model.TaskTypeProgress:
		if err := s.loadProgressEntries(ctx, []string{task.ID}, byID); err != nil {
			return nil, err
		}
	}

	return &task, nil
}

// CreateTask inserts a new task row. Generates a UUID if ID is empty and
// stamps created_at/updated_at with the current UTC time.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := s.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	var (
		targetDays   *int
		targetValue  *float64
		currentValue *float64
		unit         *string
	)
	switch task.Type {
	case model.TaskTypeDaily:
		targetDays = &task.TargetDays
	case model.TaskTypeProgress:
		targetValue = &task.TargetValue
		currentValue = &task.CurrentValue
		unit = &task.Unit
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, description, type, check_in_enabled,
			created_at, updated_at,
			target_days, target_value, current_value, unit, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, task.Description,
		string(task.Type), boolToInt(task.CheckInEnabled),
		task.CreatedAt, task.UpdatedAt,
		targetDays, targetValue, currentValue, unit, task.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return s.GetTaskByID(ctx, task.OwnerID, task.ID)
}

// UpdateTask updates the mutable fields of an existing task. The type
// column and current_value are never taken from the input: the former is
// immutable, the latter is ledger-derived. For daily tasks the completion
// date set is replaced wholesale (delete then reinsert) in the same
// transaction, so snapshot and ledger stay in sync.
func (s *SQLiteStore) UpdateTask(ctx context.Context, ownerID string, task model.Task) (*model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()

	var result sql.Result
	switch task.Type {
	case model.TaskTypeDaily:
		result, err = tx.ExecContext(ctx, `
			UPDATE tasks SET
				title = ?, description = ?, check_in_enabled = ?,
				target_days = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND type = 'daily'`,
			task.Title, task.Description, boolToInt(task.CheckInEnabled),
			task.TargetDays, now,
			task.ID, ownerID,
		)
	case model.TaskTypeProgress:
		result, err = tx.ExecContext(ctx, `
			UPDATE tasks SET
				title = ?, description = ?, check_in_enabled = ?,
				target_value = ?, unit = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND type = 'progress'`,
			task.Title, task.Description, boolToInt(task.CheckInEnabled),
			task.TargetValue, task.Unit, now,
			task.ID, ownerID,
		)
	case model.TaskTypeOneTime:
		result, err = tx.ExecContext(ctx, `
			UPDATE tasks SET
				title = ?, description = ?, check_in_enabled = ?,
				completed_at = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND type = 'one-time'`,
			task.Title, task.Description, boolToInt(task.CheckInEnabled),
			task.CompletedAt, now,
			task.ID, ownerID,
		)
	default:
		return nil, fmt.Errorf("unknown task type %q", task.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", task.ID, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	if task.Type == model.TaskTypeDaily {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM daily_completions WHERE task_id = ?", task.ID,
		); err != nil {
			return nil, fmt.Errorf("clearing completions for task %s: %w", task.ID, err)
		}
		for _, date := range task.CompletedDates {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO daily_completions (task_id, completed_date) VALUES (?, ?)",
				task.ID, date,
			); err != nil {
				return nil, fmt.Errorf("inserting completion for task %s: %w", task.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task update: %w", err)
	}

	return s.GetTaskByID(ctx, ownerID, task.ID)
}

// DeleteTask removes a task; its ledger rows go with it via ON DELETE
// CASCADE, so the caller sees both disappear or neither. Returns whether a
// row was deleted.
func (s *SQLiteStore) DeleteTask(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting task %s: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// loadDailyCompletions bulk-loads completion dates for the given task ids
// and attaches them to the matching tasks.
func (s *SQLiteStore) loadDailyCompletions(ctx context.Context, ids []string, byID map[string]*model.Task) error {
	query, args, err := sqlx.In(
		"SELECT task_id, completed_date FROM daily_completions WHERE task_id IN (?) ORDER BY completed_date",
		ids,
	)
	if err != nil {
		return fmt.Errorf("building completions query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("querying daily completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, date string
		if err := rows.Scan(&taskID, &date); err != nil {
			return fmt.Errorf("scanning completion row: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.CompletedDates = append(task.CompletedDates, date)
		}
	}
	return rows.Err()
}

// loadProgressEntries bulk-loads progress ledger entries for the given task
// ids and attaches them to the matching tasks.
func (s *SQLiteStore) loadProgressEntries(ctx context.Context, ids []string, byID map[string]*model.Task) error {
	query, args, err := sqlx.In(
		"SELECT id, task_id, entry_date, value FROM progress_entries WHERE task_id IN (?) ORDER BY id",
		ids,
	)
	if err != nil {
		return fmt.Errorf("building entries query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("querying progress entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry  model.ProgressEntry
			taskID string
		)
		if err := rows.Scan(&entry.ID, &taskID, &entry.Date, &entry.Value); err != nil {
			return fmt.Errorf("scanning progress entry row: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.CompletedValues = append(task.CompletedValues, entry)
		}
	}
	return rows.Err()
}

// scanTask scans a task row, mapping nullable variant columns onto the
// union's fields.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task         model.Task
		taskType     string
		checkInInt   int
		targetDays   *int
		targetValue  *float64
		currentValue *float64
		unit         *string
		completedAt  *string
	)

	err := row.Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Description,
		&taskType, &checkInInt,
		&task.CreatedAt, &task.UpdatedAt,
		&targetDays, &targetValue, &currentValue, &unit, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Type = model.TaskType(taskType)
	task.CheckInEnabled = checkInInt != 0
	if targetDays != nil {
		task.TargetDays = *targetDays
	}
	if targetValue != nil {
		task.TargetValue = *targetValue
	}
	if currentValue != nil {
		task.CurrentValue = *currentValue
	}
	if unit != nil {
		task.Unit = *unit
	}
	task.CompletedAt = completedAt

	return task, nil
}
