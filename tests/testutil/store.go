package testutil

import (
	"context"
	"testing"

	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestUser creates a user to own test tasks. The twitchID doubles as the
// display name.
func NewTestUser(t *testing.T, s *store.SQLiteStore, twitchID string) *model.User {
	t.Helper()

	user, err := s.UpsertUserByTwitchID(context.Background(), twitchID, twitchID)
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}
