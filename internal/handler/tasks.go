package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/service"
)

// ListTasks returns the caller's tasks filtered by the query string:
// ?userId=&status=&priority=&q=
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}

	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Search:   q.Get("q"),
	}
	if v := q.Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, apperr.Validation("userId must be numeric"))
			return
		}
		filter.UserID = id
	}

	tasks, err := h.svc.ListTasks(act, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask returns a single task; ownership applies.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}

	task, err := h.svc.GetTask(act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTask creates a task owned by the caller.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}

	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	task, err := h.svc.CreateTask(act, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask applies a partial update after the ownership check.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}

	var upd service.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	task, err := h.svc.UpdateTask(act, id, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task after the ownership check.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}

	task, err := h.svc.DeleteTask(act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task deleted successfully",
		"task":    task,
	})
}
