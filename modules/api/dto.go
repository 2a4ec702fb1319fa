package api

import (
	"time"

	domain "github.com/example/task-quota-service/domain/task"
)

// CreateTaskRequest is the HTTP request for creating a task.
type CreateTaskRequest struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedBy int64  `json:"created_by"`
}

// UpdateTaskRequest is the HTTP request for updating a task.
type UpdateTaskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// TaskResponse is the HTTP response for a single task.
type TaskResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTasksResponse is the HTTP response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// CountResponse is the HTTP response for counting active tasks.
type CountResponse struct {
	UserID int64 `json:"user_id"`
	Count  int64 `json:"count"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	ErrorCode string    `json:"error_code"`
	TaskID    int64     `json:"task_id,omitempty"`
	OwnerID   int64     `json:"owner_id,omitempty"`
	Field     string    `json:"field,omitempty"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status.String(),
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}
