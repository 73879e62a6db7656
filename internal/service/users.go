package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/repository"
	"github.com/hwg121/taskmanagement/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult is the reduced user projection returned after login.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserUpdate carries a partial user mutation. Nil fields are left
// untouched. Changing the password requires CurrentPassword unless the
// actor is an administrator.
type UserUpdate struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"currentPassword"`
}

// Register creates a new user with a hashed password.
func (s *Service) Register(username, email, password, ip string) (*models.User, error) {
	if !validate.Username(username) {
		return nil, apperr.Validation("Username must be 3-20 characters: letters, numbers and underscore")
	}
	if !validate.Email(email) {
		return nil, apperr.Validation("Email address is not valid")
	}
	if !validate.Password(password) {
		return nil, apperr.Validation("Password must be at least 8 characters with uppercase, lowercase, number and special character")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     validate.Sanitize(username),
		Email:        validate.Sanitize(email),
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		IP:           ip,
	}

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Duplicate("Username or email already exists")
		}
		return nil, err
	}

	s.recordActivity(user.Username, "Registered a new account", models.ActivityRegister)
	if s.mailer != nil {
		go func(to, name string) {
			_ = s.mailer.SendWelcome(to, name)
		}(user.Email, user.Username)
	}

	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Login authenticates a user, records the login and returns a session
// token alongside the user projection.
func (s *Service) Login(username, password, ip string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("Username and password are required")
	}

	user, err := s.store.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth("Invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Auth("Invalid username or password")
	}

	now := time.Now()
	if err := s.store.TouchLastLogin(user.ID, now, ip); err != nil {
		return nil, err
	}
	user.LastLogin = now
	user.IP = ip

	token, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.recordActivity(user.Username, "Logged in", models.ActivityLogin)
	s.log.Infof("User logged in: %s", user.Username)
	return &LoginResult{User: user, Token: token}, nil
}

// Logout records the logout activity.
func (s *Service) Logout(actor Actor) {
	s.recordActivity(actor.Username, "Logged out", models.ActivityLogout)
}

// GetUser fetches a single user by id.
func (s *Service) GetUser(id int64) (*models.User, error) {
	user, err := s.store.FindUserByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns every user. Admin dashboard only.
func (s *Service) ListUsers() ([]*models.User, error) {
	return s.store.ListUsers()
}

// UpdateUser applies a partial update. Users may update themselves;
// administrators may update anyone. A password change verifies the
// current password first unless the actor is an administrator.
func (s *Service) UpdateUser(actor Actor, id int64, upd UserUpdate) (*models.User, error) {
	if actor.ID != id && !actor.IsAdmin() {
		return nil, apperr.Permission("You cannot modify this user")
	}

	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		if !validate.Username(*upd.Username) {
			return nil, apperr.Validation("Username must be 3-20 characters: letters, numbers and underscore")
		}
		user.Username = validate.Sanitize(*upd.Username)
	}
	if upd.Email != nil {
		if !validate.Email(*upd.Email) {
			return nil, apperr.Validation("Email address is not valid")
		}
		user.Email = validate.Sanitize(*upd.Email)
	}
	if upd.Password != nil {
		if !validate.Password(*upd.Password) {
			return nil, apperr.Validation("Password must be at least 8 characters with uppercase, lowercase, number and special character")
		}
		if !actor.IsAdmin() {
			if upd.CurrentPassword == nil {
				return nil, apperr.Validation("Current password is required")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*upd.CurrentPassword)); err != nil {
				return nil, apperr.Auth("Current password is incorrect")
			}
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.store.UpdateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Duplicate("Username or email already exists")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	s.recordActivity(actor.Username, fmt.Sprintf("Updated user: %s", user.Username), models.ActivityUpdate)
	s.log.Infof("User updated: %s", user.Username)
	return user, nil
}

// DeleteUser removes a user. The admin account is protected.
func (s *Service) DeleteUser(actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return apperr.Permission("Only administrators can delete users")
	}

	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return apperr.Permission("The admin account cannot be deleted")
	}

	if err := s.store.DeleteUser(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	s.recordActivity(actor.Username, fmt.Sprintf("Deleted user: %s", user.Username), models.ActivityDelete)
	s.log.Infof("User deleted: %s", user.Username)
	return nil
}

// EnsureAdmin seeds the admin account on first boot.
func (s *Service) EnsureAdmin() error {
	_, err := s.store.FindUserByUsername(models.RoleAdmin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     models.RoleAdmin,
		Email:        "admin@example.com",
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
		IP:           "127.0.0.1",
	}
	if err := s.store.CreateUser(admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.recordActivity(models.RoleAdmin, "System initialized", models.ActivitySystem)
	s.log.Info("Seeded admin account")
	return nil
}
