package model

import (
	"encoding/json"
	"time"
)

// TaskType discriminates the three task variants. It is assigned at
// creation and never changes afterwards.
type TaskType string

const (
	TaskTypeDaily    TaskType = "daily"
	TaskTypeProgress TaskType = "progress"
	TaskTypeOneTime  TaskType = "one-time"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeDaily, TaskTypeProgress, TaskTypeOneTime:
		return true
	}
	return false
}

// ProgressEntry is a single append-only ledger record for a progress task.
type ProgressEntry struct {
	ID    int64   `json:"id" db:"id"`
	Date  string  `json:"date" db:"entry_date"`
	Value float64 `json:"value" db:"value"`
}

// Task is the tagged union over the three task kinds. Only the fields
// matching Type are meaningful; the rest stay at their zero values and are
// omitted from the JSON encoding.
//
// CurrentValue is a materialized view over the progress ledger: it always
// equals the sum of CompletedValues and is recomputed by the store after
// every ledger mutation. It is never written from client input.
type Task struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"-" db:"user_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description,omitempty" db:"description"`
	Type           TaskType  `json:"type" db:"type"`
	CheckInEnabled bool      `json:"checkInEnabled" db:"check_in_enabled"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`

	// Daily fields.
	TargetDays     int      `json:"targetDays,omitempty" db:"target_days"`
	CompletedDates []string `json:"completedDates,omitempty" db:"-"`

	// Progress fields.
	TargetValue     float64         `json:"targetValue,omitempty" db:"target_value"`
	CurrentValue    float64         `json:"currentValue" db:"current_value"`
	Unit            string          `json:"unit,omitempty" db:"unit"`
	CompletedValues []ProgressEntry `json:"completedValues,omitempty" db:"-"`

	// One-time fields.
	CompletedAt *string `json:"completedAt,omitempty" db:"completed_at"`
}

// taskJSON is the wire shape for Task. Variant fields are pointers so each
// encoded task carries only the fields of its own type.
type taskJSON struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Type           TaskType `json:"type"`
	CheckInEnabled bool     `json:"checkInEnabled"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`

	TargetDays     *int      `json:"targetDays,omitempty"`
	CompletedDates *[]string `json:"completedDates,omitempty"`

	TargetValue     *float64         `json:"targetValue,omitempty"`
	CurrentValue    *float64         `json:"currentValue,omitempty"`
	Unit            *string          `json:"unit,omitempty"`
	CompletedValues *[]ProgressEntry `json:"completedValues,omitempty"`

	CompletedAt *string `json:"completedAt,omitempty"`
}

// MarshalJSON encodes only the fields belonging to the task's variant.
func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Type:           t.Type,
		CheckInEnabled: t.CheckInEnabled,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.UTC().Format(time.RFC3339),
	}

	switch t.Type {
	case TaskTypeDaily:
		days := t.TargetDays
		dates := t.CompletedDates
		if dates == nil {
			dates = []string{}
		}
		out.TargetDays = &days
		out.CompletedDates = &dates
	case TaskTypeProgress:
		target := t.TargetValue
		current := t.CurrentValue
		unit := t.Unit
		entries := t.CompletedValues
		if entries == nil {
			entries = []ProgressEntry{}
		}
		out.TargetValue = &target
		out.CurrentValue = &current
		out.Unit = &unit
		out.CompletedValues = &entries
	case TaskTypeOneTime:
		out.CompletedAt = t.CompletedAt
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape back into the union.
func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	t.ID = in.ID
	t.Title = in.Title
	t.Description = in.Description
	t.Type = in.Type
	t.CheckInEnabled = in.CheckInEnabled
	if in.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339, in.CreatedAt)
		if err != nil {
			return err
		}
		t.CreatedAt = created
	}
	if in.UpdatedAt != "" {
		updated, err := time.Parse(time.RFC3339, in.UpdatedAt)
		if err != nil {
			return err
		}
		t.UpdatedAt = updated
	}

	if in.TargetDays != nil {
		t.TargetDays = *in.TargetDays
	}
	if in.CompletedDates != nil {
		t.CompletedDates = *in.CompletedDates
	}
	if in.TargetValue != nil {
		t.TargetValue = *in.TargetValue
	}
	if in.CurrentValue != nil {
		t.CurrentValue = *in.CurrentValue
	}
	if in.Unit != nil {
		t.Unit = *in.Unit
	}
	if in.CompletedValues != nil {
		t.CompletedValues = *in.CompletedValues
	}
	t.CompletedAt = in.CompletedAt

	return nil
}

// IsCompleted reports whether the task's goal has been reached.
func (t Task) IsCompleted() bool {
	switch t.Type {
	case TaskTypeDaily:
		return len(t.CompletedDates) >= t.TargetDays
	case TaskTypeProgress:
		return t.CurrentValue >= t.TargetValue
	case TaskTypeOneTime:
		return t.CompletedAt != nil
	}
	return false
}

// ProgressPercent returns the task's completion as a percentage in [0,100].
// A zero goal (targetDays or targetValue of 0) counts as trivially
// satisfied and yields 100, never NaN.
func (t Task) ProgressPercent() float64 {
	switch t.Type {
	case TaskTypeDaily:
		if t.TargetDays <= 0 {
			return 100
		}
		return min(100, float64(len(t.CompletedDates))/float64(t.TargetDays)*100)
	case TaskTypeProgress:
		if t.TargetValue <= 0 {
			return 100
		}
		return min(100, t.CurrentValue/t.TargetValue*100)
	case TaskTypeOneTime:
		if t.CompletedAt != nil {
			return 100
		}
		return 0
	}
	return 0
}

// IsCompletedToday reports whether a daily task already has a completion
// recorded for the given calendar date. Always false for other types.
func (t Task) IsCompletedToday(today string) bool {
	if t.Type != TaskTypeDaily {
		return false
	}
	for _, d := range t.CompletedDates {
		if d == today {
			return true
		}
	}
	return false
}

// GlobalProgress returns the arithmetic mean of ProgressPercent over tasks,
// with each task clamped to 100 first. An empty collection yields 0.
func GlobalProgress(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var total float64
	for _, t := range tasks {
		total += t.ProgressPercent()
	}
	return total / float64(len(tasks))
}

// CurrentDate formats the given instant as a UTC calendar date (YYYY-MM-DD),
// the key used by the daily completion ledger.
func CurrentDate(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
