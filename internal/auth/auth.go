// Package auth resolves opaque session tokens to user identities. The core
// task packages never authenticate; they only scope by the owner id this
// package hands them.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/store"
)

// SessionCookie is the cookie carrying the session token for browser
// clients. API clients may send the same token as a bearer header instead.
const SessionCookie = "gt_session"

type contextKey struct{}

// UserFromContext returns the authenticated user stashed by Middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*model.User)
	return user, ok
}

// SessionStore is the slice of the store the auth service needs.
type SessionStore interface {
	UpsertUserByTwitchID(ctx context.Context, twitchID, displayName string) (*model.User, error)
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	GetSessionUser(ctx context.Context, token string) (*model.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// Service issues and resolves sessions.
type Service struct {
	store  SessionStore
	twitch *TwitchClient
	ttl    time.Duration
	log    *zap.Logger
}

// NewService creates an auth service. twitch may be nil when login is
// handled elsewhere (tests, local development with pre-seeded sessions).
func NewService(st SessionStore, twitch *TwitchClient, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, twitch: twitch, ttl: ttl, log: log}
}

// Login exchanges a Twitch authorization code for a local session. The
// OAuth redirect plumbing lives with the transport; this only performs the
// token exchange, upserts the user, and issues the session.
func (s *Service) Login(ctx context.Context, code, redirectURI string) (*model.User, *model.Session, error) {
	if s.twitch == nil {
		return nil, nil, errors.New("twitch login not configured")
	}

	identity, err := s.twitch.Exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.store.UpsertUserByTwitchID(ctx, identity.ID, identity.DisplayName)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.store.CreateSession(ctx, user.ID, s.ttl)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return user, session, nil
}

// Logout invalidates the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// Resolve maps a session token to its user.
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	return s.store.GetSessionUser(ctx, token)
}

// Middleware rejects requests without a valid session and stashes the
// resolved user in the request context for the handlers downstream.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := s.store.GetSessionUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			s.log.Error("resolving session", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest extracts the session token from the Authorization
// bearer header or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
