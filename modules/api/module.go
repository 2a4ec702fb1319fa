package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-quota-service/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
)

// APIModule exposes the task services over REST.
// It calls into the task module via the TaskPort interface.
type APIModule struct {
	port        int
	logger      types.Logger
	app         *fiber.App
	taskAdapter task.TaskPort

	rateLimit      rateLimit
	limiterStorage *redis.Storage
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on port.
func NewModule(port int, logger types.Logger, opts ...Option) *APIModule {
	m := &APIModule{
		port:   port,
		logger: logger.WithModule("api"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	}
}

// Start builds the Fiber app and starts listening.
func (m *APIModule) Start(_ context.Context) error {
	if m.taskAdapter == nil {
		return fmt.Errorf("taskAdapter dependency not set")
	}

	m.openLimiterStorage()
	m.app = m.newApp()

	addr := fmt.Sprintf(":%d", m.port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started",
		"addr", addr,
		"rate_limit", m.rateLimit.max,
		"rate_limit_shared", m.limiterStorage != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	err := m.app.ShutdownWithContext(ctx)
	if m.limiterStorage != nil {
		if cerr := m.limiterStorage.Close(); cerr != nil {
			m.logger.Warn("Failed to close rate limiter storage", "error", cerr)
		}
		m.limiterStorage = nil
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(m.requestLogger)

	m.setupRoutes(app, m.rateLimiter())
	return app
}

// requestLogger logs every request once it has been handled.
func (m *APIModule) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	m.logger.Debug("HTTP request",
		"request_id", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", time.Since(start))
	return err
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errorCode := "INTERNAL_ERROR"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
		errorCode = "HTTP_ERROR"
	} else {
		m.logger.WithError(err).Error("Unhandled request error", "path", c.Path())
	}

	return c.Status(code).JSON(ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     utils.StatusMessage(code),
		Message:   message,
		ErrorCode: errorCode,
	})
}
