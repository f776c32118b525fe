// Package checkin decides how a single check-in event mutates a task.
//
// The engine is a one-step state machine: each request starts Pending and
// terminates immediately as either a no-op or an applied mutation. Nothing
// is held between requests; "already checked in today" is derived from the
// task's ledger, not stored as engine state.
package checkin

import (
	"time"

	"github.com/nhle/goal-tracker/internal/model"
)

// Action is what the check-in resolved to. The store executes the action;
// the engine itself never touches persistence.
type Action int

const (
	// ActionNone leaves the task untouched. Used for skipped check-ins,
	// duplicate daily check-ins, and progress check-ins without a
	// positive value.
	ActionNone Action = iota

	// ActionAppendDate appends Date to a daily task's completion set.
	ActionAppendDate

	// ActionAppendValue appends a ledger entry of Value for a progress
	// task and recomputes its current value from the ledger sum.
	ActionAppendValue

	// ActionCompleteOneTime marks a one-time task completed on Date.
	ActionCompleteOneTime
)

// Decision is the terminal outcome of evaluating one check-in event.
type Decision struct {
	Action Action
	Date   string
	Value  float64
}

// Applied reports whether the decision mutates the task.
func (d Decision) Applied() bool {
	return d.Action != ActionNone
}

// Evaluate applies the transition rules for a check-in event against the
// task's current snapshot.
//
// completed=false always resolves to a no-op: the client may record a
// "skipped" answer without mutating anything. For daily tasks a check-in on
// an already-recorded date is idempotent (no duplicate, no timestamp bump).
// For progress tasks a missing or non-positive value is a no-op rather than
// an error. One-time tasks resolve to completion even when already
// completed; re-applying yields the same completedAt.
func Evaluate(task model.Task, completed bool, value *float64, now time.Time) Decision {
	if !completed {
		return Decision{Action: ActionNone}
	}

	today := model.CurrentDate(now)

	switch task.Type {
	case model.TaskTypeDaily:
		if task.IsCompletedToday(today) {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionAppendDate, Date: today}

	case model.TaskTypeProgress:
		if value == nil || *value <= 0 {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionAppendValue, Date: today, Value: *value}

	case model.TaskTypeOneTime:
		date := today
		if task.CompletedAt != nil {
			date = *task.CompletedAt
		}
		return Decision{Action: ActionCompleteOneTime, Date: date}
	}

	return Decision{Action: ActionNone}
}
