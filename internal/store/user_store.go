package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/goal-tracker/internal/model"
)

// UpsertUserByTwitchID finds or creates the user for a Twitch account and
// refreshes the stored display name.
func (s *SQLiteStore) UpsertUserByTwitchID(ctx context.Context, twitchID, displayName string) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowxContext(ctx,
		"SELECT id, twitch_id, display_name, created_at FROM users WHERE twitch_id = ?",
		twitchID,
	).Scan(&user.ID, &user.TwitchID, &user.DisplayName, &user.CreatedAt)

	switch {
	case err == nil:
		if displayName != "" && displayName != user.DisplayName {
			if _, err := s.db.ExecContext(ctx,
				"UPDATE users SET display_name = ? WHERE id = ?",
				displayName, user.ID,
			); err != nil {
				return nil, fmt.Errorf("updating display name for user %s: %w", user.ID, err)
			}
			user.DisplayName = displayName
		}
		return &user, nil

	case errors.Is(err, sql.ErrNoRows):
		user = model.User{
			ID:          uuid.New().String(),
			TwitchID:    twitchID,
			DisplayName: displayName,
			CreatedAt:   s.now().UTC(),
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO users (id, twitch_id, display_name, created_at) VALUES (?, ?, ?, ?)",
			user.ID, user.TwitchID, user.DisplayName, user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("creating user: %w", err)
		}
		return &user, nil

	default:
		return nil, fmt.Errorf("looking up user by twitch id: %w", err)
	}
}

// GetUserByID retrieves a user by internal id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowxContext(ctx,
		"SELECT id, twitch_id, display_name, created_at FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.TwitchID, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &user, nil
}

// CreateSession issues a new opaque session token for a user.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	now := s.now().UTC()
	session := model.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &session, nil
}

// GetSessionUser resolves a session token to its user. Expired or unknown
// tokens return ErrNotFound.
func (s *SQLiteStore) GetSessionUser(ctx context.Context, token string) (*model.User, error) {
	var (
		session model.Session
		user    model.User
	)
	err := s.db.QueryRowxContext(ctx, `
		SELECT s.token, s.user_id, s.expires_at, s.created_at,
			u.id, u.twitch_id, u.display_name, u.created_at
		FROM sessions s
		INNER JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token,
	).Scan(
		&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt,
		&user.ID, &user.TwitchID, &user.DisplayName, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	if session.Expired(s.now().UTC()) {
		return nil, ErrNotFound
	}

	return &user, nil
}

// DeleteSession removes a session token. Deleting an unknown token is not
// an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE token = ?", token,
	); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry and returns
// how many were deleted.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", s.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
