package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/example/task-quota-service/domain/task"
	"github.com/example/task-quota-service/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const tasksPath = "/api/v1/tasks"

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App, limit fiber.Handler) {
	app.Get("/health", m.healthHandler)

	tasks := app.Group(tasksPath)
	if limit != nil {
		tasks.Use(limit)
	}
	tasks.Post("/", m.createTask)
	tasks.Get("/", m.listTasks)
	tasks.Get("/active/count", m.countActiveTasks)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.port,
		},
	})
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return m.writeError(c, domain.NewValidationError("", "Invalid request body"))
	}

	t, err := m.taskAdapter.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		Title:     req.Title,
		Status:    req.Status,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return m.writeError(c, err)
	}

	c.Location(fmt.Sprintf("%s/%d", tasksPath, t.ID))
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(t))
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	id, err := parseTaskID(c)
	if err != nil {
		return m.writeError(c, err)
	}

	t, err := m.taskAdapter.GetTask(c.UserContext(), id)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(toTaskResponse(t))
}

// listTasks handles GET /api/v1/tasks?userId=&from=&to=.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	ownerID, err := parseUserID(c)
	if err != nil {
		return m.writeError(c, err)
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return m.writeError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return m.writeError(c, err)
	}

	tasks, err := m.taskAdapter.ListTasks(c.UserContext(), &task.ListTasksRequest{
		OwnerID: ownerID,
		From:    from,
		To:      to,
	})
	if err != nil {
		return m.writeError(c, err)
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}
	return c.JSON(resp)
}

// updateTask handles PUT /api/v1/tasks/:id.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	id, err := parseTaskID(c)
	if err != nil {
		return m.writeError(c, err)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return m.writeError(c, domain.NewValidationError("", "Invalid request body"))
	}

	t, err := m.taskAdapter.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		ID:     id,
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(toTaskResponse(t))
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	id, err := parseTaskID(c)
	if err != nil {
		return m.writeError(c, err)
	}

	if err := m.taskAdapter.DeleteTask(c.UserContext(), id); err != nil {
		return m.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// countActiveTasks handles GET /api/v1/tasks/active/count?userId=.
func (m *APIModule) countActiveTasks(c *fiber.Ctx) error {
	ownerID, err := parseUserID(c)
	if err != nil {
		return m.writeError(c, err)
	}
	if ownerID <= 0 {
		return m.writeError(c, domain.NewValidationError("userId", "userId is required"))
	}

	n, err := m.taskAdapter.CountActiveTasks(c.UserContext(), ownerID)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(CountResponse{UserID: ownerID, Count: n})
}

func parseTaskID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("id", "invalid task id %q", raw)
	}
	return id, nil
}

// parseUserID returns 0 when the userId query parameter is absent.
func parseUserID(c *fiber.Ctx) (int64, error) {
	raw := c.Query("userId")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("userId", "invalid userId %q", raw)
	}
	return id, nil
}

// parseTimeQuery reads an optional RFC 3339 query parameter.
func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "invalid %s %q, expected RFC 3339", name, raw)
	}
	return &t, nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindBusinessRule:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. Untagged errors come from the
// transport and are reported as internal errors without their details.
func (m *APIModule) writeError(c *fiber.Ctx, err error) error {
	var te *domain.Error
	if !errors.As(err, &te) {
		m.logger.WithError(err).Error("Task service call failed", "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Timestamp: time.Now().UTC(),
			Status:    fiber.StatusInternalServerError,
			Error:     utils.StatusMessage(fiber.StatusInternalServerError),
			Message:   "Internal server error",
			ErrorCode: "INTERNAL_ERROR",
		})
	}

	code := statusFor(te.Kind)
	if code == fiber.StatusInternalServerError {
		m.logger.WithError(err).Error("Task request failed", "path", c.Path())
	}
	return c.Status(code).JSON(ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     utils.StatusMessage(code),
		Message:   te.Message,
		ErrorCode: te.Code,
		TaskID:    te.TaskID,
		OwnerID:   te.OwnerID,
		Field:     te.Field,
	})
}
