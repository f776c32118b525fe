package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/tasks"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context(), ownerID(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Task{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft tasks.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	task, err := s.tasks.Create(r.Context(), ownerID(r), draft)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var task model.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if task.ID != r.PathValue("id") {
		writeError(w, http.StatusBadRequest, "id mismatch")
		return
	}

	updated, err := s.tasks.Update(r.Context(), ownerID(r), task)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.tasks.Delete(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Completed bool     `json:"completed"`
		Value     *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	task, err := s.tasks.CheckIn(r.Context(), ownerID(r), r.PathValue("id"), body.Completed, body.Value)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleAddProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	task, err := s.tasks.AddProgressValue(r.Context(), ownerID(r), r.PathValue("id"), body.Value)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleRemoveProgress(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(r.PathValue("entry"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	task, err := s.tasks.RemoveProgressEntry(r.Context(), ownerID(r), r.PathValue("id"), entryID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
