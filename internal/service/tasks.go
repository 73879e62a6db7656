package service

import (
	"errors"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/repository"
	"github.com/hwg121/taskmanagement/internal/validate"
)

// TaskInput carries the fields for a new task.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
}

// TaskUpdate carries a partial task mutation. Nil fields are left
// untouched.
type TaskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}

func validateTaskInput(in TaskInput) *apperr.Error {
	if !validate.TaskTitle(in.Title) {
		return apperr.Validation("Task title must be 3-100 characters")
	}
	if !validate.TaskDescription(in.Description) {
		return apperr.Validation("Task description must not exceed 500 characters")
	}
	if !validate.Priority(in.Priority) {
		return apperr.Validation("Priority is not valid")
	}
	if !validate.Status(in.Status) {
		return apperr.Validation("Status is not valid")
	}
	if !validate.Category(in.Category) {
		return apperr.Validation("Category is not valid")
	}
	if !validate.DueDate(in.DueDate) {
		return apperr.Validation("Due date must be today or later")
	}
	return nil
}

// CreateTask creates a task owned by the actor.
func (s *Service) CreateTask(actor Actor, in TaskInput) (*models.Task, error) {
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      actor.ID,
		Title:       validate.Sanitize(in.Title),
		Description: validate.Sanitize(in.Description),
		Priority:    in.Priority,
		Status:      in.Status,
		Category:    in.Category,
		DueDate:     in.DueDate,
	}
	if err := s.store.CreateTask(task); err != nil {
		return nil, err
	}

	s.log.Infof("Task created for user %d: %s", actor.ID, task.Title)
	return task, nil
}

// getOwnedTask fetches a task and enforces ownership for mutation.
func (s *Service) getOwnedTask(actor Actor, id int64) (*models.Task, error) {
	task, err := s.store.FindTaskByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}
	if task.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperr.Permission("You do not own this task")
	}
	return task, nil
}

// GetTask returns a task; non-admins may only read their own.
func (s *Service) GetTask(actor Actor, id int64) (*models.Task, error) {
	return s.getOwnedTask(actor, id)
}

// UpdateTask applies a partial update after the ownership check.
func (s *Service) UpdateTask(actor Actor, id int64, upd TaskUpdate) (*models.Task, error) {
	task, err := s.getOwnedTask(actor, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if !validate.TaskTitle(*upd.Title) {
			return nil, apperr.Validation("Task title must be 3-100 characters")
		}
		task.Title = validate.Sanitize(*upd.Title)
	}
	if upd.Description != nil {
		if !validate.TaskDescription(*upd.Description) {
			return nil, apperr.Validation("Task description must not exceed 500 characters")
		}
		task.Description = validate.Sanitize(*upd.Description)
	}
	if upd.Priority != nil {
		if !validate.Priority(*upd.Priority) {
			return nil, apperr.Validation("Priority is not valid")
		}
		task.Priority = *upd.Priority
	}
	if upd.Status != nil {
		if !validate.Status(*upd.Status) {
			return nil, apperr.Validation("Status is not valid")
		}
		task.Status = *upd.Status
	}
	if upd.Category != nil {
		if !validate.Category(*upd.Category) {
			return nil, apperr.Validation("Category is not valid")
		}
		task.Category = *upd.Category
	}
	if upd.DueDate != nil {
		if !validate.DueDate(*upd.DueDate) {
			return nil, apperr.Validation("Due date must be today or later")
		}
		task.DueDate = *upd.DueDate
	}

	if err := s.store.UpdateTask(task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}

	s.log.Infof("Task %d updated by user %d", task.ID, actor.ID)
	return task, nil
}

// DeleteTask removes a task after the ownership check.
func (s *Service) DeleteTask(actor Actor, id int64) (*models.Task, error) {
	task, err := s.getOwnedTask(actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteTask(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, err
	}

	s.log.Infof("Task %d deleted by user %d", task.ID, actor.ID)
	return task, nil
}

// ListTasks returns the actor's tasks matching the filter. Only
// administrators may list other users' tasks.
func (s *Service) ListTasks(actor Actor, filter models.TaskFilter) ([]*models.Task, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.store.ListTasks(filter)
}
