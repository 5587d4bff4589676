// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/tasks"
)

type createTaskRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		list []tasks.Task
		err  error
	)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			writeBadRequest(w, "invalid user_id")
			return
		}
		list, err = s.tasks.ByUserID(r.Context(), userID)
	} else {
		list, err = s.tasks.All(r.Context())
	}
	if err != nil {
		s.logTaskError(r, "tasks.list_failed", err)
		writeInternalError(w)
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeBadRequest(w, "title must not be empty")
		return
	}
	if req.UserID == uuid.Nil {
		writeBadRequest(w, "user_id is required")
		return
	}

	task, err := s.tasks.Create(r.Context(), req.UserID, req.Title, req.Description)
	if err != nil {
		s.logTaskError(r, "tasks.create_failed", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.tasks.ByID(r.Context(), id)
	if errors.Is(err, tasks.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		s.logTaskError(r, "tasks.get_failed", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeBadRequest(w, "title must not be empty")
		return
	}

	task, err := s.tasks.Update(r.Context(), id, req.Title, req.Description)
	if errors.Is(err, tasks.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		s.logTaskError(r, "tasks.update_failed", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	deleted, err := s.tasks.Delete(r.Context(), id)
	if err != nil {
		s.logTaskError(r, "tasks.delete_failed", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid task id")
		return 0, false
	}
	return id, true
}

func (s *Server) logTaskError(r *http.Request, event string, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().
		Err(err).
		Str(log.FieldEvent, event).
		Msg("task operation failed")
}
