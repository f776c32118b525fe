// Package tasks orchestrates task CRUD and check-ins over the store,
// applying validation, defaults, and the check-in engine's decisions.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nhle/goal-tracker/internal/checkin"
	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/store"
)

// Type-specific defaults applied when creation fields are omitted.
const (
	DefaultTargetDays  = 30
	DefaultTargetValue = 100
	DefaultUnit        = "units"
)

// Draft is the input for creating a task. Optional fields are pointers so
// an omitted field can be told apart from an explicit zero.
type Draft struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Type           model.TaskType `json:"type"`
	CheckInEnabled *bool          `json:"checkInEnabled"`
	TargetDays     *int           `json:"targetDays"`
	TargetValue    *float64       `json:"targetValue"`
	Unit           *string        `json:"unit"`
}

// Service exposes the ownership-scoped task operations consumed by the
// transport layer.
type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates a task service over the given store.
func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{
		store: st,
		log:   log,
		now:   time.Now,
	}
}

// List returns all tasks belonging to the owner, ledgers populated.
func (s *Service) List(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.store.ListTasks(ctx, ownerID)
}

// Get returns one task scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Task, error) {
	return s.store.GetTaskByID(ctx, ownerID, id)
}

// Create validates the draft, applies type-specific defaults, and persists
// a new task for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, draft Draft) (*model.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, invalid("title", "must not be empty")
	}
	if !draft.Type.Valid() {
		return nil, invalid("type", fmt.Sprintf("unknown task type %q", draft.Type))
	}
	description, err := normalizeDescription(draft.Description)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Type:        draft.Type,
	}
	if draft.CheckInEnabled != nil {
		task.CheckInEnabled = *draft.CheckInEnabled
	}

	switch draft.Type {
	case model.TaskTypeDaily:
		task.TargetDays = DefaultTargetDays
		if draft.TargetDays != nil {
			if *draft.TargetDays <= 0 {
				return nil, invalid("targetDays", "must be positive")
			}
			task.TargetDays = *draft.TargetDays
		}
	case model.TaskTypeProgress:
		task.TargetValue = DefaultTargetValue
		task.Unit = DefaultUnit
		if draft.TargetValue != nil {
			if *draft.TargetValue < 0 {
				return nil, invalid("targetValue", "must not be negative")
			}
			task.TargetValue = *draft.TargetValue
		}
		if draft.Unit != nil {
			task.Unit = *draft.Unit
		}
	}

	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.log.Info("task created",
		zap.String("task_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return created, nil
}

// Update validates and persists edits to a task's mutable fields. The type
// discriminant is immutable: a type that differs from the stored one is
// rejected before any write. CurrentValue is ignored entirely; it stays
// ledger-derived.
func (s *Service) Update(ctx context.Context, ownerID string, task model.Task) (*model.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, invalid("title", "must not be empty")
	}
	if !task.Type.Valid() {
		return nil, invalid("type", fmt.Sprintf("unknown task type %q", task.Type))
	}
	description, err := normalizeDescription(task.Description)
	if err != nil {
		return nil, err
	}
	task.Description = description

	existing, err := s.store.GetTaskByID(ctx, ownerID, task.ID)
	if err != nil {
		return nil, err
	}
	if existing.Type != task.Type {
		return nil, invalid("type", "task type cannot change after creation")
	}

	switch task.Type {
	case model.TaskTypeDaily:
		if task.TargetDays <= 0 {
			return nil, invalid("targetDays", "must be positive")
		}
		task.CompletedDates = dedupeDates(task.CompletedDates)
	case model.TaskTypeProgress:
		if task.TargetValue < 0 {
			return nil, invalid("targetValue", "must not be negative")
		}
	}

	return s.store.UpdateTask(ctx, ownerID, task)
}

// Delete removes a task and its ledger rows. Returns whether anything was
// deleted.
func (s *Service) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	deleted, err := s.store.DeleteTask(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("task deleted", zap.String("task_id", id))
	}
	return deleted, nil
}

// CheckIn applies one check-in event to a task. The fetch is
// ownership-checked, so an unknown or non-owned id fails before any
// mutation; a no-op decision returns the task unchanged.
func (s *Service) CheckIn(ctx context.Context, ownerID, id string, completed bool, value *float64) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	decision := checkin.Evaluate(*task, completed, value, s.now())
	if !decision.Applied() {
		return task, nil
	}

	switch decision.Action {
	case checkin.ActionAppendDate:
		return s.store.AddDailyCompletion(ctx, ownerID, id, decision.Date)
	case checkin.ActionAppendValue:
		return s.store.AddProgressEntry(ctx, ownerID, id, decision.Date, decision.Value)
	case checkin.ActionCompleteOneTime:
		return s.store.CompleteOneTime(ctx, ownerID, id, decision.Date)
	}

	return task, nil
}

// AddProgressValue appends a ledger entry outside the check-in flow, used
// for editing history. The value must be positive.
func (s *Service) AddProgressValue(ctx context.Context, ownerID, id string, value float64) (*model.Task, error) {
	if value <= 0 {
		return nil, invalid("value", "must be positive")
	}
	return s.store.AddProgressEntry(ctx, ownerID, id, model.CurrentDate(s.now()), value)
}

// RemoveProgressEntry deletes one ledger entry and returns the task with
// its recomputed current value.
func (s *Service) RemoveProgressEntry(ctx context.Context, ownerID, id string, entryID int64) (*model.Task, error) {
	return s.store.RemoveProgressEntry(ctx, ownerID, id, entryID)
}

// normalizeDescription trims, collapses newline runs, and enforces the
// length bound. The bound counts characters, not bytes.
func normalizeDescription(text string) (string, error) {
	normalized := model.NormalizeDescription(text)
	if utf8.RuneCountInString(normalized) > model.MaxDescriptionLength {
		return "", invalid("description", fmt.Sprintf("must be at most %d characters", model.MaxDescriptionLength))
	}
	return normalized, nil
}

// dedupeDates removes duplicate dates while preserving order.
func dedupeDates(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := dates[:0]
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
