package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/report"
)

type activityRequest struct {
	Username string `json:"username"`
	Action   string `json:"action"`
	Type     string `json:"type"`
}

// ListActivities returns the audit log for the admin dashboard.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.svc.ListActivities()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// LogActivity appends an activity record on behalf of the caller.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	if _, err := h.svc.LogActivity(req.Username, req.Action, req.Type); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Activity logged successfully",
	})
}

// ExportActivities renders the audit log as an XML report.
func (h *Handler) ExportActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.svc.ListActivities()
	if err != nil {
		h.writeError(w, err)
		return
	}

	doc, err := report.ActivityReport(activities)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="activities.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// GetSystemStats returns the live simulated snapshot.
func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SystemStats())
}

// OverrideSystemStats replaces the snapshot (admin tooling).
func (h *Handler) OverrideSystemStats(w http.ResponseWriter, r *http.Request) {
	var in models.SystemStats
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, apperr.Validation("Request body is not valid JSON"))
		return
	}

	current, err := h.svc.OverrideSystemStats(in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, current)
}
