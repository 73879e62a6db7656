package repository

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hwg121/taskmanagement/internal/models"
)

// CreateTask creates a new task in the database
func (r *Repository) CreateTask(task *models.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, priority, status, category, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, task.UserID, task.Title, task.Description,
		task.Priority, task.Status, task.Category, task.DueDate).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTaskByID retrieves a task by id
func (r *Repository) FindTaskByID(id int64) (*models.Task, error) {
	task := &models.Task{}
	query := `
		SELECT id, user_id, title, description, priority, status, category, due_date, created_at, updated_at
		FROM tasks
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Priority,
			&task.Status, &task.Category, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (r *Repository) ListTasks(filter models.TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, title, description, priority, status, category, due_date, created_at, updated_at
		FROM tasks`
	where := ""
	args := []interface{}{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += clause + "$" + strconv.Itoa(len(args))
	}

	if filter.UserID != 0 {
		add("user_id = ", filter.UserID)
	}
	if filter.Status != "" {
		add("status = ", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = ", filter.Priority)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += "(title ILIKE $" + n + " OR description ILIKE $" + n + ")"
	}

	rows, err := r.db.Query(query+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
			&task.Priority, &task.Status, &task.Category, &task.DueDate,
			&task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask overwrites the mutable fields of a task. The owner is
// never changed.
func (r *Repository) UpdateTask(task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, status = $4, category = $5,
			due_date = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING updated_at`
	err := r.db.QueryRow(query, task.Title, task.Description, task.Priority,
		task.Status, task.Category, task.DueDate, task.ID).
		Scan(&task.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(id int64) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
