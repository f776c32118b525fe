package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/goal-tracker/internal/model"
)

func at(hour int) time.Time {
	return time.Date(2026, 1, 3, hour, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestSortedActive(t *testing.T) {
	tasks := []model.Task{
		{ID: "done", Type: model.TaskTypeOneTime, CompletedAt: strPtr("2026-01-01"), UpdatedAt: at(9)},
		{ID: "old", Type: model.TaskTypeDaily, TargetDays: 5, UpdatedAt: at(1)},
		{ID: "recent", Type: model.TaskTypeDaily, TargetDays: 5, UpdatedAt: at(8)},
		{ID: "eligible", Type: model.TaskTypeDaily, TargetDays: 5, CheckInEnabled: true, UpdatedAt: at(2)},
	}

	got := SortedActive(tasks)

	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	// Check-in-enabled first, then most recently touched; completed excluded.
	assert.Equal(t, []string{"eligible", "recent", "old"}, ids)
}

func TestSortedCompleted(t *testing.T) {
	tasks := []model.Task{
		{ID: "active", Type: model.TaskTypeDaily, TargetDays: 5, UpdatedAt: at(9)},
		{ID: "first", Type: model.TaskTypeOneTime, CompletedAt: strPtr("2026-01-01"), UpdatedAt: at(3)},
		{ID: "second", Type: model.TaskTypeOneTime, CompletedAt: strPtr("2026-01-02"), UpdatedAt: at(7)},
	}

	got := SortedCompleted(tasks)

	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"second", "first"}, ids)
}

func TestTasksForCheckIn(t *testing.T) {
	today := "2026-01-03"
	tasks := []model.Task{
		{ID: "ready", Type: model.TaskTypeDaily, TargetDays: 5, CheckInEnabled: true},
		{ID: "done-today", Type: model.TaskTypeDaily, TargetDays: 5, CheckInEnabled: true,
			CompletedDates: []string{today}},
		{ID: "disabled", Type: model.TaskTypeDaily, TargetDays: 5},
		{ID: "progress", Type: model.TaskTypeProgress, TargetValue: 100, CheckInEnabled: true},
		{ID: "finished", Type: model.TaskTypeProgress, TargetValue: 100, CurrentValue: 100,
			CheckInEnabled: true},
	}

	got := TasksForCheckIn(tasks, today)

	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"ready", "progress"}, ids)
}
