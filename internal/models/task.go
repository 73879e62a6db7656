package models

import "time"

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task represents a single task owned by a user. DueDate is a calendar
// date in "2006-01-02" form; the owner never changes after creation.
type Task struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	DueDate     string    `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	UserID   int64
	Status   string
	Priority string
	Search   string
}
