package model

import "time"

// User is an authenticated account. Tasks are scoped to their owning user;
// the rest of the system only ever sees the opaque ID.
type User struct {
	ID          string    `json:"id" db:"id"`
	TwitchID    string    `json:"twitchId" db:"twitch_id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Session is an opaque bearer token bound to a user with an expiry.
type Session struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
