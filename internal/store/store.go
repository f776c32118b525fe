package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/goal-tracker/internal/model"
)

// ErrNotFound is returned when a row does not exist or belongs to a
// different owner. The two cases are intentionally indistinguishable so
// non-owners cannot probe for existence.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for tasks, their completion
// ledgers, and user sessions.
//
// Every task method is scoped by ownerID: a mutation matching zero rows
// (unknown id or wrong owner) returns ErrNotFound with no side effects.
type Store interface {
	// === Tasks ===

	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	GetTaskByID(ctx context.Context, ownerID, id string) (*model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, ownerID string, task model.Task) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) (bool, error)

	// === Completion ledgers ===

	// AddDailyCompletion records a calendar date for a daily task.
	// Inserting an already-recorded date is a no-op that does not bump
	// updated_at.
	AddDailyCompletion(ctx context.Context, ownerID, taskID, date string) (*model.Task, error)

	// AddProgressEntry appends a positive value to a progress task's
	// ledger, then recomputes current_value from the ledger sum.
	AddProgressEntry(ctx context.Context, ownerID, taskID, date string, value float64) (*model.Task, error)

	// RemoveProgressEntry deletes one ledger entry, then recomputes
	// current_value. An entry id that does not belong to the given task
	// (or owner) is ErrNotFound.
	RemoveProgressEntry(ctx context.Context, ownerID, taskID string, entryID int64) (*model.Task, error)

	// CompleteOneTime sets completed_at on a one-time task.
	CompleteOneTime(ctx context.Context, ownerID, taskID, date string) (*model.Task, error)

	// === Users & sessions ===

	UpsertUserByTwitchID(ctx context.Context, twitchID, displayName string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	GetSessionUser(ctx context.Context, token string) (*model.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	Close() error
}
