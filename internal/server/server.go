// Package server exposes the task service over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/goal-tracker/internal/auth"
	"github.com/nhle/goal-tracker/internal/store"
	"github.com/nhle/goal-tracker/internal/tasks"
)

// Server wires the task and auth services into an http.Handler.
type Server struct {
	tasks *tasks.Service
	auth  *auth.Service
	log   *zap.Logger
}

// New creates the server around its collaborators.
func New(taskSvc *tasks.Service, authSvc *auth.Service, log *zap.Logger) *Server {
	return &Server{tasks: taskSvc, auth: authSvc, log: log}
}

// Handler builds the route table. All /api/tasks routes require a session;
// the auth routes sit outside the middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/twitch", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/auth/me", s.handleMe)
	api.HandleFunc("GET /api/tasks", s.handleList)
	api.HandleFunc("GET /api/tasks/{id}", s.handleGet)
	api.HandleFunc("POST /api/tasks", s.handleCreate)
	api.HandleFunc("PUT /api/tasks/{id}", s.handleUpdate)
	api.HandleFunc("DELETE /api/tasks/{id}", s.handleDelete)
	api.HandleFunc("POST /api/tasks/{id}/checkin", s.handleCheckIn)
	api.HandleFunc("POST /api/tasks/{id}/progress", s.handleAddProgress)
	api.HandleFunc("DELETE /api/tasks/{id}/progress/{entry}", s.handleRemoveProgress)
	mux.Handle("/api/", s.auth.Middleware(api))

	return s.logRequests(mux)
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// validation failures are 400, missing or non-owned rows are 404, and
// anything else is a retryable 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *tasks.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ownerID pulls the authenticated user out of the request context. The
// middleware guarantees it is present on protected routes.
func ownerID(r *http.Request) string {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return ""
	}
	return user.ID
}
