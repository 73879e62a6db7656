package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/models"
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
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	Category    *string `json:"category,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// TaskFilters narrows Tasks listings; zero values mean "all".
type TaskFilters struct {
	Status   string
	Priority string
	Search   string
}

func (c *Client) validateTaskInput(in TaskInput) error {
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

// CreateTask creates a task for the session user.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*models.Task, error) {
	if err := c.validateTaskInput(in); err != nil {
		return nil, c.classify(err)
	}

	id := strconv.FormatInt(c.userID, 10)
	if err := c.checkRateLimit("createTask", id); err != nil {
		return nil, c.classify(err)
	}

	in.Title = validate.Sanitize(in.Title)
	in.Description = validate.Sanitize(in.Description)

	task := &models.Task{}
	if err := c.do(ctx, http.MethodPost, "/tasks", in, task); err != nil {
		return nil, c.classify(err)
	}

	c.logActivity(ctx, c.username, fmt.Sprintf("Created task: %s", task.Title), models.ActivityCreate)
	return task, nil
}

// UpdateTask applies a partial update after checking ownership: the
// current record is fetched and its owner compared against the session
// user before any write is issued.
func (c *Client) UpdateTask(ctx context.Context, taskID int64, upd TaskUpdate) (*models.Task, error) {
	if upd.Title != nil && !validate.TaskTitle(*upd.Title) {
		return nil, c.classify(apperr.Validation("Task title must be 3-100 characters"))
	}
	if upd.Description != nil && !validate.TaskDescription(*upd.Description) {
		return nil, c.classify(apperr.Validation("Task description must not exceed 500 characters"))
	}
	if upd.Priority != nil && !validate.Priority(*upd.Priority) {
		return nil, c.classify(apperr.Validation("Priority is not valid"))
	}
	if upd.Status != nil && !validate.Status(*upd.Status) {
		return nil, c.classify(apperr.Validation("Status is not valid"))
	}
	if upd.Category != nil && !validate.Category(*upd.Category) {
		return nil, c.classify(apperr.Validation("Category is not valid"))
	}
	if upd.DueDate != nil && !validate.DueDate(*upd.DueDate) {
		return nil, c.classify(apperr.Validation("Due date must be today or later"))
	}

	id := strconv.FormatInt(c.userID, 10)
	if err := c.checkRateLimit("updateTask", id); err != nil {
		return nil, c.classify(err)
	}

	if _, err := c.fetchOwnedTask(ctx, taskID, "You do not have permission to edit this task"); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		s := validate.Sanitize(*upd.Title)
		upd.Title = &s
	}
	if upd.Description != nil {
		s := validate.Sanitize(*upd.Description)
		upd.Description = &s
	}

	task := &models.Task{}
	path := "/tasks/" + strconv.FormatInt(taskID, 10)
	if err := c.do(ctx, http.MethodPatch, path, upd, task); err != nil {
		return nil, c.classify(err)
	}

	c.logActivity(ctx, c.username, fmt.Sprintf("Updated task: %s", task.Title), models.ActivityUpdate)
	return task, nil
}

// DeleteTask removes a task after the same ownership check as
// UpdateTask.
func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	id := strconv.FormatInt(c.userID, 10)
	if err := c.checkRateLimit("deleteTask", id); err != nil {
		return c.classify(err)
	}

	task, err := c.fetchOwnedTask(ctx, taskID, "You do not have permission to delete this task")
	if err != nil {
		return err
	}

	path := "/tasks/" + strconv.FormatInt(taskID, 10)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return c.classify(err)
	}

	c.logActivity(ctx, c.username, fmt.Sprintf("Deleted task: %s", task.Title), models.ActivityDelete)
	return nil
}

// fetchOwnedTask loads a task and rejects the operation when the
// session user is not its owner.
func (c *Client) fetchOwnedTask(ctx context.Context, taskID int64, denied string) (*models.Task, error) {
	task := &models.Task{}
	path := "/tasks/" + strconv.FormatInt(taskID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, task); err != nil {
		return nil, c.classify(err)
	}
	if task.UserID != c.userID {
		return nil, c.classify(apperr.Permission(denied))
	}
	return task, nil
}

// Tasks lists the session user's tasks, optionally filtered.
func (c *Client) Tasks(ctx context.Context, filters TaskFilters) ([]*models.Task, error) {
	id := strconv.FormatInt(c.userID, 10)
	if err := c.checkRateLimit("getTasks", id); err != nil {
		return nil, c.classify(err)
	}

	q := url.Values{}
	q.Set("userId", id)
	if filters.Status != "" && filters.Status != "all" {
		q.Set("status", filters.Status)
	}
	if filters.Priority != "" && filters.Priority != "all" {
		q.Set("priority", filters.Priority)
	}
	if filters.Search != "" {
		q.Set("q", filters.Search)
	}

	tasks := []*models.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), nil, &tasks); err != nil {
		return nil, c.classify(err)
	}

	// Defensive scope check on top of the server-side filter.
	owned := tasks[:0]
	for _, t := range tasks {
		if t.UserID == c.userID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}
