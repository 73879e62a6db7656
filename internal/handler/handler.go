package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/middleware"
	"github.com/hwg121/taskmanagement/internal/service"
	"github.com/sirupsen/logrus"
)

// Pinger reports storage health.
type Pinger interface {
	Ping() error
}

type Handler struct {
	svc  *service.Service
	log  *logrus.Logger
	ping Pinger
}

func NewHandler(svc *service.Service, log *logrus.Logger, ping Pinger) *Handler {
	return &Handler{svc: svc, log: log, ping: ping}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError funnels every failure through the classifier so callers
// always receive the uniform {message, code} shape.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := apperr.Classify(h.log, err)
	writeJSON(w, appErr.StatusCode, appErr)
}

// actor resolves the authenticated caller from the request context.
func actor(r *http.Request) (service.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperr.Validation("Identifier must be numeric")
	}
	return id, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Health reports service and storage status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.ping.Ping() == nil
	status := "OK"
	code := http.StatusOK
	if !dbOK {
		status = "DEGRADED"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"database":  dbOK,
		"endpoints": []string{"/users", "/tasks", "/activities", "/system-stats"},
	})
}
