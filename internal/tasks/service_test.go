package tasks_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/store"
	"github.com/nhle/goal-tracker/internal/tasks"
	"github.com/nhle/goal-tracker/tests/testutil"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }

func setup(t *testing.T) (*tasks.Service, *store.SQLiteStore, string, string) {
	t.Helper()
	st := testutil.NewTestStore(t)
	owner := testutil.NewTestUser(t, st, "owner")
	stranger := testutil.NewTestUser(t, st, "stranger")
	svc := tasks.NewService(st, zap.NewNop())
	return svc, st, owner.ID, stranger.ID
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name           string
		draft          tasks.Draft
		errorAssertion func(t *testing.T, err error)
		check          func(t *testing.T, task *model.Task)
	}{
		{
			name:  "daily task gets default target days",
			draft: tasks.Draft{Title: "run", Type: model.TaskTypeDaily},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, 30, task.TargetDays)
				assert.False(t, task.CheckInEnabled)
				assert.Empty(t, task.CompletedDates)
			},
		},
		{
			name:  "progress task gets default target, unit, and zero current",
			draft: tasks.Draft{Title: "read", Type: model.TaskTypeProgress},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, 100.0, task.TargetValue)
				assert.Equal(t, 0.0, task.CurrentValue)
				assert.Equal(t, "units", task.Unit)
			},
		},
		{
			name: "explicit fields override defaults",
			draft: tasks.Draft{
				Title: "steps", Type: model.TaskTypeProgress,
				TargetValue: floatPtr(10000), Unit: strPtr("steps"),
				CheckInEnabled: boolPtr(true),
			},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, 10000.0, task.TargetValue)
				assert.Equal(t, "steps", task.Unit)
				assert.True(t, task.CheckInEnabled)
			},
		},
		{
			name:  "one-time task has no completion",
			draft: tasks.Draft{Title: "ship", Type: model.TaskTypeOneTime},
			check: func(t *testing.T, task *model.Task) {
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name:  "title is trimmed",
			draft: tasks.Draft{Title: "  write  ", Type: model.TaskTypeOneTime},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, "write", task.Title)
			},
		},
		{
			name:  "description newline runs are collapsed",
			draft: tasks.Draft{Title: "x", Description: "a\n\n\n\nb", Type: model.TaskTypeOneTime},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, "a\n\nb", task.Description)
			},
		},
		{
			name:  "multibyte description within the character bound",
			draft: tasks.Draft{Title: "x", Description: strings.Repeat("я", 600), Type: model.TaskTypeOneTime},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, strings.Repeat("я", 600), task.Description)
			},
		},
		{
			name:  "description over the character bound is rejected",
			draft: tasks.Draft{Title: "x", Description: strings.Repeat("я", 1001), Type: model.TaskTypeOneTime},
			errorAssertion: func(t *testing.T, err error) {
				var validationErr *tasks.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "description", validationErr.Field)
			},
		},
		{
			name:  "empty title is rejected",
			draft: tasks.Draft{Title: "   ", Type: model.TaskTypeDaily},
			errorAssertion: func(t *testing.T, err error) {
				var validationErr *tasks.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "title", validationErr.Field)
			},
		},
		{
			name:  "unknown type is rejected",
			draft: tasks.Draft{Title: "x", Type: "weekly"},
			errorAssertion: func(t *testing.T, err error) {
				var validationErr *tasks.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			},
		},
		{
			name:  "non-positive target days is rejected",
			draft: tasks.Draft{Title: "x", Type: model.TaskTypeDaily, TargetDays: intPtr(0)},
			errorAssertion: func(t *testing.T, err error) {
				var validationErr *tasks.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, owner, _ := setup(t)
			ctx := context.Background()

			task, err := svc.Create(ctx, owner, tt.draft)
			if tt.errorAssertion != nil {
				tt.errorAssertion(t, err)
				assert.Nil(t, task)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, task)
			assert.NotEmpty(t, task.ID)
			assert.Equal(t, tt.draft.Type, task.Type)
			tt.check(t, task)

			// Round trip: the stored task matches what create returned.
			fetched, err := svc.Get(ctx, owner, task.ID)
			require.NoError(t, err)
			assert.Equal(t, task, fetched)
		})
	}
}

func TestCheckInDaily(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "run", Type: model.TaskTypeDaily, TargetDays: intPtr(3),
	})
	require.NoError(t, err)

	// Seed two past completions via update.
	task.CompletedDates = []string{"2026-01-01", "2026-01-02"}
	task, err = svc.Update(ctx, owner, *task)
	require.NoError(t, err)
	require.Len(t, task.CompletedDates, 2)
	assert.False(t, task.IsCompleted())

	// Today's check-in reaches the goal.
	task, err = svc.CheckIn(ctx, owner, task.ID, true, nil)
	require.NoError(t, err)
	assert.Len(t, task.CompletedDates, 3)
	assert.True(t, task.IsCompleted())

	// A second check-in on the same date is idempotent: no duplicate, no
	// timestamp bump.
	updatedAt := task.UpdatedAt
	task, err = svc.CheckIn(ctx, owner, task.ID, true, nil)
	require.NoError(t, err)
	assert.Len(t, task.CompletedDates, 3)
	assert.True(t, task.UpdatedAt.Equal(updatedAt))
}

func TestCheckInProgress(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress, TargetValue: floatPtr(100),
	})
	require.NoError(t, err)

	task, err = svc.AddProgressValue(ctx, owner, task.ID, 95)
	require.NoError(t, err)
	require.Equal(t, 95.0, task.CurrentValue)
	require.False(t, task.IsCompleted())

	task, err = svc.CheckIn(ctx, owner, task.ID, true, floatPtr(10))
	require.NoError(t, err)
	assert.Equal(t, 105.0, task.CurrentValue)
	assert.True(t, task.IsCompleted())
	assert.Len(t, task.CompletedValues, 2)
}

func TestCheckInProgressWithoutValue(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)

	// Missing and non-positive values are no-ops, not errors.
	for _, value := range []*float64{nil, floatPtr(0), floatPtr(-1)} {
		got, err := svc.CheckIn(ctx, owner, task.ID, true, value)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.CurrentValue)
		assert.Empty(t, got.CompletedValues)
	}
}

func TestCheckInSkipped(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "ship", Type: model.TaskTypeOneTime,
	})
	require.NoError(t, err)
	updatedAt := task.UpdatedAt

	// completed=false records a skip without mutating anything.
	got, err := svc.CheckIn(ctx, owner, task.ID, false, nil)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, got.UpdatedAt.Equal(updatedAt))
}

func TestCheckInOneTimeIdempotent(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "ship", Type: model.TaskTypeOneTime,
	})
	require.NoError(t, err)

	task, err = svc.CheckIn(ctx, owner, task.ID, true, nil)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	firstCompletedAt := *task.CompletedAt

	task, err = svc.CheckIn(ctx, owner, task.ID, true, nil)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, firstCompletedAt, *task.CompletedAt)
}

func TestCheckInNotFound(t *testing.T) {
	svc, _, owner, stranger := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "run", Type: model.TaskTypeDaily,
	})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, stranger, task.ID, true, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CheckIn(ctx, owner, "no-such-id", true, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateOwnership(t *testing.T) {
	svc, _, owner, stranger := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "run", Type: model.TaskTypeDaily,
	})
	require.NoError(t, err)

	// A non-owner's update is not-found with zero side effects.
	edited := *task
	edited.Title = "hijacked"
	_, err = svc.Update(ctx, stranger, edited)
	assert.ErrorIs(t, err, store.ErrNotFound)

	unchanged, err := svc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "run", unchanged.Title)
	assert.True(t, unchanged.UpdatedAt.Equal(task.UpdatedAt))
}

func TestUpdateTypeImmutable(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "run", Type: model.TaskTypeDaily,
	})
	require.NoError(t, err)

	edited := *task
	edited.Type = model.TaskTypeProgress
	_, err = svc.Update(ctx, owner, edited)

	var validationErr *tasks.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "type", validationErr.Field)
}

func TestUpdateReplacesCompletedDates(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "run", Type: model.TaskTypeDaily, TargetDays: intPtr(10),
	})
	require.NoError(t, err)

	task.CompletedDates = []string{"2026-01-01", "2026-01-02", "2026-01-01"}
	task, err = svc.Update(ctx, owner, *task)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01", "2026-01-02"}, task.CompletedDates)

	// Shrinking the set sticks: the ledger is replaced, not merged.
	task.CompletedDates = []string{"2026-01-02"}
	task, err = svc.Update(ctx, owner, *task)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-02"}, task.CompletedDates)
}

func TestUpdateIgnoresCurrentValue(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)

	task, err = svc.AddProgressValue(ctx, owner, task.ID, 40)
	require.NoError(t, err)

	// The client cannot write the materialized view directly.
	edited := *task
	edited.CurrentValue = 999
	updated, err := svc.Update(ctx, owner, edited)
	require.NoError(t, err)
	assert.Equal(t, 40.0, updated.CurrentValue)
}

func TestProgressLedgerSum(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)

	for _, value := range []float64{10, 20, 30} {
		task, err = svc.AddProgressValue(ctx, owner, task.ID, value)
		require.NoError(t, err)
	}
	require.Len(t, task.CompletedValues, 3)
	assert.Equal(t, 60.0, task.CurrentValue)

	// currentValue tracks the ledger sum exactly through removals.
	task, err = svc.RemoveProgressEntry(ctx, owner, task.ID, task.CompletedValues[1].ID)
	require.NoError(t, err)
	assert.Len(t, task.CompletedValues, 2)
	assert.Equal(t, 40.0, task.CurrentValue)

	var sum float64
	for _, entry := range task.CompletedValues {
		sum += entry.Value
	}
	assert.Equal(t, sum, task.CurrentValue)
}

func TestRemoveProgressEntryWrongTask(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "a", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "b", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)

	first, err = svc.AddProgressValue(ctx, owner, first.ID, 15)
	require.NoError(t, err)

	// The entry belongs to first, so removing it through second fails and
	// leaves both ledgers alone.
	_, err = svc.RemoveProgressEntry(ctx, owner, second.ID, first.CompletedValues[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first, err = svc.Get(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, first.CurrentValue)
}

func TestAddProgressValueValidation(t *testing.T) {
	svc, _, owner, _ := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)

	for _, value := range []float64{0, -10} {
		_, err := svc.AddProgressValue(ctx, owner, task.ID, value)
		var validationErr *tasks.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}
}

func TestDelete(t *testing.T) {
	svc, _, owner, stranger := setup(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, tasks.Draft{
		Title: "read", Type: model.TaskTypeProgress,
	})
	require.NoError(t, err)
	_, err = svc.AddProgressValue(ctx, owner, task.ID, 10)
	require.NoError(t, err)

	// A stranger cannot delete it.
	deleted, err := svc.Delete(ctx, stranger, task.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.Delete(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.Get(ctx, owner, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestList(t *testing.T) {
	svc, _, owner, stranger := setup(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, owner, tasks.Draft{Title: title, Type: model.TaskTypeDaily})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, stranger, tasks.Draft{Title: "other", Type: model.TaskTypeDaily})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, task := range list {
		assert.NotEqual(t, "other", task.Title)
	}
}
