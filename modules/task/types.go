package task

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/task-quota-service/domain/task"
)

// TaskPort is the interface other modules use to reach the task services.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) ([]domain.Task, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	CountActiveTasks(ctx context.Context, ownerID int64) (int64, error)
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedBy int64  `json:"created_by"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ID int64 `json:"id"`
}

// ListTasksRequest is the request for listing an owner's tasks.
type ListTasksRequest struct {
	OwnerID int64      `json:"user_id"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
}

// UpdateTaskRequest is the request for updating a task. Owner and creation
// time are not part of it; they never change.
type UpdateTaskRequest struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ID int64 `json:"id"`
}

// CountActiveRequest is the request for counting an owner's active tasks.
type CountActiveRequest struct {
	OwnerID int64 `json:"user_id"`
}

// ErrorBody carries a tagged error across the request-reply boundary.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	TaskID  int64  `json:"task_id,omitempty"`
	OwnerID int64  `json:"owner_id,omitempty"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedBy int64      `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Error     *ErrorBody `json:"error,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
	Error *ErrorBody     `json:"error,omitempty"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool       `json:"deleted"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// CountActiveResponse is the response for counting active tasks.
type CountActiveResponse struct {
	OwnerID int64      `json:"user_id"`
	Count   int64      `json:"count"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// NewErrorBody converts err into its wire form. Untagged errors are
// reported as storage errors.
func NewErrorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	var te *domain.Error
	if !errors.As(err, &te) {
		te = domain.NewStorageError("process request", err)
	}
	return &ErrorBody{
		Kind:    te.Kind.String(),
		Code:    te.Code,
		Message: te.Message,
		Field:   te.Field,
		TaskID:  te.TaskID,
		OwnerID: te.OwnerID,
	}
}

// Err rebuilds the tagged error described by the body.
func (b *ErrorBody) Err() error {
	if b == nil {
		return nil
	}
	return &domain.Error{
		Kind:    domain.ParseKind(b.Kind),
		Code:    b.Code,
		Message: b.Message,
		Field:   b.Field,
		TaskID:  b.TaskID,
		OwnerID: b.OwnerID,
	}
}

func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}

func (r TaskResponse) toTask() domain.Task {
	return domain.Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    domain.Status(r.Status),
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}
