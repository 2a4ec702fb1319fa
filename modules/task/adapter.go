package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-quota-service/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort over the task module's request-reply
// services. Tagged errors in replies come back as *domain.Error.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// callService performs a typed request-reply call against the task module.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// CreateTask creates a task via the create service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "create", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	t := resp.toTask()
	return &t, nil
}

// GetTask retrieves a task by id via the get service.
func (a *taskAdapter) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "get", &GetTaskRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	t := resp.toTask()
	return &t, nil
}

// ListTasks lists an owner's tasks via the list service.
func (a *taskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := callService(ctx, a.container, "list", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	tasks := make([]domain.Task, 0, len(resp.Tasks))
	for _, r := range resp.Tasks {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

// UpdateTask updates a task via the update service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "update", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	t := resp.toTask()
	return &t, nil
}

// DeleteTask deletes a task via the delete service.
func (a *taskAdapter) DeleteTask(ctx context.Context, id int64) error {
	var resp DeleteTaskResponse
	if err := callService(ctx, a.container, "delete", &DeleteTaskRequest{ID: id}, &resp); err != nil {
		return err
	}
	return resp.Error.Err()
}

// CountActiveTasks counts an owner's active tasks via the count-active service.
func (a *taskAdapter) CountActiveTasks(ctx context.Context, ownerID int64) (int64, error) {
	var resp CountActiveResponse
	if err := callService(ctx, a.container, "count-active", &CountActiveRequest{OwnerID: ownerID}, &resp); err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, resp.Error.Err()
	}
	return resp.Count, nil
}
