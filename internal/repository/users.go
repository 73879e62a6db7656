package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hwg121/taskmanagement/internal/models"
)

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, ip, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, last_login`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash, user.Role, user.IP).
		Scan(&user.ID, &user.CreatedAt, &user.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	return r.findUser(`WHERE id = $1`, id)
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(username string) (*models.User, error) {
	return r.findUser(`WHERE username = $1`, username)
}

func (r *Repository) findUser(where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, role, created_at, last_login, ip
		FROM users ` + where
	err := r.db.QueryRow(query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.LastLogin, &user.IP)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users ordered by creation time.
func (r *Repository) ListUsers() ([]*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at, last_login, ip
		FROM users
		ORDER BY created_at`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.LastLogin, &user.IP); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser overwrites the mutable fields of a user.
func (r *Repository) UpdateUser(user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, role = $4, last_login = $5, ip = $6
		WHERE id = $7`
	res, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash,
		user.Role, user.LastLogin, user.IP, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(id int64, when time.Time, ip string) error {
	query := `UPDATE users SET last_login = $1, ip = $2 WHERE id = $3`
	if _, err := r.db.Exec(query, when, ip, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// DeleteUser removes a user and, through the foreign key, their tasks.
func (r *Repository) DeleteUser(id int64) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
