package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hwg121/taskmanagement/internal/config"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/stats"
	"github.com/sirupsen/logrus"
)

// Store is the persistence surface the service depends on. It is
// implemented by repository.Repository.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByID(id int64) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	ListUsers() ([]*models.User, error)
	UpdateUser(user *models.User) error
	TouchLastLogin(id int64, when time.Time, ip string) error
	DeleteUser(id int64) error

	CreateTask(task *models.Task) error
	FindTaskByID(id int64) (*models.Task, error)
	ListTasks(filter models.TaskFilter) ([]*models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id int64) error

	CreateActivity(activity *models.Activity) error
	ListActivities() ([]*models.Activity, error)
	SaveSystemStats(stats *models.SystemStats) error
}

// Mailer sends best-effort notification mail.
type Mailer interface {
	SendWelcome(to, username string) error
}

// Actor identifies the authenticated caller of a service method.
type Actor struct {
	ID       int64
	Username string
	Role     string
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin || a.Username == models.RoleAdmin
}

// Service handles business logic
type Service struct {
	store  Store
	log    *logrus.Logger
	config *config.Config
	sim    *stats.Simulator
	mailer Mailer
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config, sim *stats.Simulator, mailer Mailer) *Service {
	return &Service{store: store, log: log, config: cfg, sim: sim, mailer: mailer}
}

// issueToken generates a signed session JWT for a user.
func (s *Service) issueToken(user *models.User) (string, error) {
	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// recordActivity appends to the audit log, best-effort.
func (s *Service) recordActivity(username, action, activityType string) {
	a := &models.Activity{Username: username, Action: action, Type: activityType}
	if err := s.store.CreateActivity(a); err != nil {
		s.log.Errorf("Failed to record activity: %v", err)
	}
}
