package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password, clientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	result, err := h.svc.Login(req.Username, req.Password, clientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout records the logout activity for the session user.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		h.writeError(w, apperr.Auth("Not authenticated"))
		return
	}
	h.svc.Logout(act)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CreateUser provisions an account from the admin dashboard. Same
// validation and hashing as self-registration.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password, clientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ListUsers returns all users (admin only, routed accordingly).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser returns one user; non-admins may only fetch themselves.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
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
	if act.ID != id && !act.IsAdmin() {
		h.writeError(w, apperr.Permission("You cannot view this user"))
		return
	}

	user, err := h.svc.GetUser(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial user update.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
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

	var upd service.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	user, err := h.svc.UpdateUser(act, id, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user (admin only, admin account protected).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.DeleteUser(act, id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "User deleted successfully"})
}
