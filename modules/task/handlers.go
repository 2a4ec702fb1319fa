package task

import (
	"context"

	domain "github.com/example/task-quota-service/domain/task"
	"github.com/go-monolith/mono"
)

// createTask handles the task.create service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return TaskResponse{Error: NewErrorBody(err)}, nil
	}

	t, err := m.service.CreateTask(ctx, domain.Task{
		Title:     req.Title,
		Status:    status,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		m.logFailure("create", err, "owner", req.CreatedBy)
		return TaskResponse{Error: NewErrorBody(err)}, nil
	}

	m.logger.Info("Task created", "id", t.ID, "owner", t.CreatedBy, "status", t.Status)
	return toTaskResponse(t), nil
}

// getTask handles the task.get service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.GetTask(ctx, req.ID)
	if err != nil {
		m.logFailure("get", err, "id", req.ID)
		return TaskResponse{Error: NewErrorBody(err)}, nil
	}
	return toTaskResponse(t), nil
}

// listTasks handles the task.list service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListTasks(ctx, domain.Filter{
		From:    req.From,
		To:      req.To,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		m.logFailure("list", err, "owner", req.OwnerID)
		return ListTasksResponse{Tasks: []TaskResponse{}, Error: NewErrorBody(err)}, nil
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}
	return resp, nil
}

// updateTask handles the task.update service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return TaskResponse{Error: NewErrorBody(err)}, nil
	}

	t, err := m.service.UpdateTask(ctx, req.ID, domain.Task{
		Title:  req.Title,
		Status: status,
	})
	if err != nil {
		m.logFailure("update", err, "id", req.ID)
		return TaskResponse{Error: NewErrorBody(err)}, nil
	}

	m.logger.Info("Task updated", "id", t.ID, "status", t.Status)
	return toTaskResponse(t), nil
}

// deleteTask handles the task.delete service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.ID); err != nil {
		m.logFailure("delete", err, "id", req.ID)
		return DeleteTaskResponse{Error: NewErrorBody(err)}, nil
	}

	m.logger.Info("Task deleted", "id", req.ID)
	return DeleteTaskResponse{Deleted: true}, nil
}

// countActive handles the task.count-active service request.
func (m *TaskModule) countActive(ctx context.Context, req CountActiveRequest, _ *mono.Msg) (CountActiveResponse, error) {
	n, err := m.service.CountActiveTasks(ctx, req.OwnerID)
	if err != nil {
		m.logFailure("count-active", err, "owner", req.OwnerID)
		return CountActiveResponse{OwnerID: req.OwnerID, Error: NewErrorBody(err)}, nil
	}
	return CountActiveResponse{OwnerID: req.OwnerID, Count: n}, nil
}

// logFailure logs storage failures as errors and caller mistakes at debug.
func (m *TaskModule) logFailure(op string, err error, args ...any) {
	args = append([]any{"operation", op, "kind", domain.KindOf(err).String()}, args...)
	if domain.KindOf(err) == domain.KindStorage || domain.KindOf(err) == domain.KindUnknown {
		m.logger.WithError(err).Error("Task operation failed", args...)
		return
	}
	m.logger.Debug("Task request rejected", append(args, "error", err.Error())...)
}
