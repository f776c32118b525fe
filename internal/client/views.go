// Package client mirrors the server's task semantics for UI consumers: it
// keeps a cached task list with stale-while-revalidate refresh and derives
// the sorted and filtered views the check-in flow presents.
package client

import (
	"sort"

	"github.com/nhle/goal-tracker/internal/model"
)

// SortedActive returns the tasks whose goal is not yet reached, ordered so
// check-in-eligible and recently-touched tasks surface first
// (checkInEnabled desc, then updatedAt desc). The sort is stable.
func SortedActive(tasks []model.Task) []model.Task {
	var active []model.Task
	for _, t := range tasks {
		if !t.IsCompleted() {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].CheckInEnabled != active[j].CheckInEnabled {
			return active[i].CheckInEnabled
		}
		return active[i].UpdatedAt.After(active[j].UpdatedAt)
	})
	return active
}

// SortedCompleted returns the completed tasks ordered by updatedAt desc.
func SortedCompleted(tasks []model.Task) []model.Task {
	var completed []model.Task
	for _, t := range tasks {
		if t.IsCompleted() {
			completed = append(completed, t)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].UpdatedAt.After(completed[j].UpdatedAt)
	})
	return completed
}

// TasksForCheckIn returns the set offered in the daily check-in flow:
// active, check-in enabled, and for daily tasks not already completed
// today.
func TasksForCheckIn(tasks []model.Task, today string) []model.Task {
	var eligible []model.Task
	for _, t := range tasks {
		if t.IsCompleted() || !t.CheckInEnabled {
			continue
		}
		if t.Type == model.TaskTypeDaily && t.IsCompletedToday(today) {
			continue
		}
		eligible = append(eligible, t)
	}
	return eligible
}
