package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/config"
	"github.com/hwg121/taskmanagement/internal/middleware"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/repository"
	"github.com/hwg121/taskmanagement/internal/service"
	"github.com/hwg121/taskmanagement/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory service.Store for end-to-end handler tests.
type memStore struct {
	users      map[int64]*models.User
	tasks      map[int64]*models.Task
	activities []*models.Activity
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[int64]*models.User),
		tasks:  make(map[int64]*models.Task),
		nextID: 1,
	}
}

func (m *memStore) CreateUser(user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.LastLogin = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *memStore) FindUserByID(id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindUserByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListUsers() ([]*models.User, error) {
	out := []*models.User{}
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpdateUser(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) TouchLastLogin(id int64, when time.Time, ip string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = when
	u.IP = ip
	return nil
}

func (m *memStore) DeleteUser(id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) CreateTask(task *models.Task) error {
	task.ID = m.nextID
	m.nextID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memStore) FindTaskByID(id int64) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTasks(filter models.TaskFilter) ([]*models.Task, error) {
	out := []*models.Task{}
	for _, t := range m.tasks {
		if filter.UserID != 0 && t.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpdateTask(task *models.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memStore) DeleteTask(id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) CreateActivity(activity *models.Activity) error {
	activity.ID = m.nextID
	m.nextID++
	activity.Timestamp = time.Now()
	m.activities = append(m.activities, activity)
	return nil
}

func (m *memStore) ListActivities() ([]*models.Activity, error) {
	return m.activities, nil
}

func (m *memStore) SaveSystemStats(s *models.SystemStats) error { return nil }

type okPinger struct{}

func (okPinger) Ping() error { return nil }

// newTestRouter wires the full middleware and route table around an
// in-memory store, mirroring the production router.
func newTestRouter(t *testing.T) (*mux.Router, *memStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret", AdminPassword: "Admin123!"}

	store := newMemStore()
	svc := service.NewService(store, log, cfg, stats.New(models.SystemStats{}), nil)
	require.NoError(t, svc.EnsureAdmin())
	h := NewHandler(svc, log, okPinger{})

	r := mux.NewRouter()
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")

	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/logout", h.Logout).Methods("POST")
	authRouter.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	authRouter.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	authRouter.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")
	authRouter.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PATCH")
	authRouter.HandleFunc("/tasks/{id}", h.DeleteTask).Methods("DELETE")
	authRouter.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	authRouter.HandleFunc("/users/{id}", h.UpdateUser).Methods("PATCH")
	authRouter.HandleFunc("/activities", h.LogActivity).Methods("POST")
	authRouter.HandleFunc("/system-stats", h.GetSystemStats).Methods("GET")

	adminRouter := r.PathPrefix("/").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly)
	adminRouter.HandleFunc("/users", h.ListUsers).Methods("GET")
	adminRouter.HandleFunc("/users", h.CreateUser).Methods("POST")
	adminRouter.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
	adminRouter.HandleFunc("/activities", h.ListActivities).Methods("GET")
	adminRouter.HandleFunc("/activities/export", h.ExportActivities).Methods("GET")
	adminRouter.HandleFunc("/system-stats", h.OverrideSystemStats).Methods("POST")

	return r, store
}

func doJSON(t *testing.T, r *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) apperr.Error {
	t.Helper()
	var appErr apperr.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appErr))
	return appErr
}

// registerAndLogin provisions a user through the public endpoints and
// returns its id and session token.
func registerAndLogin(t *testing.T, r *mux.Router, username, email, password string) (int64, string) {
	t.Helper()
	w := doJSON(t, r, "POST", "/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.User.ID, result.Token
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}

func TestTaskLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	_, token := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")

	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	w := doJSON(t, r, "POST", "/tasks", token, map[string]string{
		"title":       "Write report",
		"description": "Quarterly summary",
		"priority":    "high",
		"status":      "todo",
		"category":    "work",
		"dueDate":     due,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "Write report", task.Title)
	id := strconv.FormatInt(task.ID, 10)

	w = doJSON(t, r, "GET", "/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []*models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)

	w = doJSON(t, r, "PATCH", "/tasks/"+id, token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "completed", task.Status)

	w = doJSON(t, r, "DELETE", "/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", "/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperr.CodeNotFound, decodeErr(t, w).Code)
}

func TestTaskOwnershipAcrossUsers(t *testing.T) {
	r, store := newTestRouter(t)
	_, aliceToken := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")
	_, bobToken := registerAndLogin(t, r, "bob02", "bob@x.com", "Passw0rd!")

	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	w := doJSON(t, r, "POST", "/tasks", aliceToken, map[string]string{
		"title": "Mine only", "priority": "low", "status": "todo",
		"category": "personal", "dueDate": due,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	id := strconv.FormatInt(task.ID, 10)

	w = doJSON(t, r, "PATCH", "/tasks/"+id, bobToken, map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperr.CodePermission, decodeErr(t, w).Code)

	w = doJSON(t, r, "DELETE", "/tasks/"+id, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := store.FindTaskByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine only", stored.Title)

	// Listing is scoped: the other user sees nothing.
	w = doJSON(t, r, "GET", "/tasks", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []*models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Empty(t, tasks)
}

func TestLoginFailureShape(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")

	w := doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": "alice01", "password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	appErr := decodeErr(t, w)
	assert.Equal(t, apperr.CodeAuth, appErr.Code)
	assert.Equal(t, "Invalid username or password", appErr.Message)
}

func TestRegisterDuplicateShape(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")

	w := doJSON(t, r, "POST", "/register", "", map[string]string{
		"username": "alice01", "email": "other@x.com", "password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeDuplicate, decodeErr(t, w).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, probe := range []struct{ method, path string }{
		{"GET", "/tasks"},
		{"POST", "/tasks"},
		{"GET", "/system-stats"},
		{"POST", "/logout"},
	} {
		w := doJSON(t, r, probe.method, probe.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", probe.method, probe.path)
		assert.Equal(t, apperr.CodeAuth, decodeErr(t, w).Code)
	}

	// A forged token is rejected too.
	w := doJSON(t, r, "GET", "/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	_, userToken := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")

	// Regular users are rejected by role, not by route absence.
	w := doJSON(t, r, "GET", "/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperr.CodePermission, decodeErr(t, w).Code)

	// The seeded admin passes.
	w = doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": "admin", "password": "Admin123!",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	w = doJSON(t, r, "GET", "/users", result.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []*models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	w = doJSON(t, r, "GET", "/activities/export", result.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "activityReport")

	// Admins can provision accounts directly.
	w = doJSON(t, r, "POST", "/users", result.Token, map[string]string{
		"username": "carol03", "email": "carol@x.com", "password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAdminAccountCannotBeDeleted(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": "admin", "password": "Admin123!",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var result service.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	w = doJSON(t, r, "DELETE", "/users/"+strconv.FormatInt(result.User.ID, 10), result.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperr.CodePermission, decodeErr(t, w).Code)
}

func TestPasswordChangeFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	id, token := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")
	path := "/users/" + strconv.FormatInt(id, 10)

	w := doJSON(t, r, "PATCH", path, token, map[string]string{
		"password": "N3wPassw0rd!", "currentPassword": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.CodeAuth, decodeErr(t, w).Code)

	w = doJSON(t, r, "PATCH", path, token, map[string]string{
		"password": "N3wPassw0rd!", "currentPassword": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old credentials stop working, the new ones log in.
	w = doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": "alice01", "password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, r, "POST", "/login", "", map[string]string{
		"username": "alice01", "password": "N3wPassw0rd!",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogActivityEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	_, token := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")
	before := len(store.activities)

	w := doJSON(t, r, "POST", "/activities", token, map[string]string{
		"username": "alice01", "action": "Created task: X", "type": "create",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.activities, before+1)

	w = doJSON(t, r, "POST", "/activities", token, map[string]string{
		"username": "alice01", "action": "Did something", "type": "weird",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeValidation, decodeErr(t, w).Code)
}

func TestSystemStatsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	_, token := registerAndLogin(t, r, "alice01", "alice@x.com", "Passw0rd!")

	w := doJSON(t, r, "GET", "/system-stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.SystemStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.NotZero(t, snap.CPUUsage)

	// Overriding is admin-only.
	w = doJSON(t, r, "POST", "/system-stats", token, map[string]int{"cpuUsage": 99})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
