package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/task-quota-service/config"
	domain "github.com/example/task-quota-service/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// TaskModule owns the configured storage backend and exposes the task
// service as request-reply services.
type TaskModule struct {
	cfg     *config.Config
	logger  types.Logger
	clock   domain.Clock
	backend *backend
	service *domain.Service
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(cfg *config.Config, logger types.Logger) *TaskModule {
	return &TaskModule{
		cfg:    cfg,
		logger: logger.WithModule("task"),
		clock:  domain.SystemClock,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Service returns the domain service. It is nil before Start.
func (m *TaskModule) Service() *domain.Service {
	return m.service
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes service names with "services.task.".
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "count-active", json.Unmarshal, json.Marshal, m.countActive,
	); err != nil {
		return fmt.Errorf("failed to register count-active service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.task.{create,get,list,update,delete,count-active}")
	return nil
}

// Start opens the configured backend and builds the service on top of it.
func (m *TaskModule) Start(ctx context.Context) error {
	b, err := openBackend(ctx, m.cfg, m.clock, m.logger)
	if err != nil {
		return err
	}
	m.backend = b
	m.service = domain.NewService(b.repo, domain.WithClock(m.clock))

	m.logger.Info("Module started",
		"backend", m.cfg.Storage.Backend,
		"cache", m.cfg.Cache.Enabled,
		"breaker", b.breaker != nil)
	return nil
}

// Stop releases the backend's connections.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.backend == nil {
		return nil
	}
	m.logger.Info("Closing storage backend", "backend", m.cfg.Storage.Backend)

	var errs []error
	for i := len(m.backend.closers) - 1; i >= 0; i-- {
		if err := m.backend.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.backend = nil
	return errors.Join(errs...)
}

// Health reports whether the storage backend (and cache, when enabled)
// answers.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.backend == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}

	details := map[string]any{
		"backend": m.cfg.Storage.Backend,
	}
	if m.backend.breaker != nil {
		details["breaker"] = m.backend.breaker.State().String()
	}
	if c := m.backend.cache; c != nil {
		details["cache"] = c.Stats()
	}

	if err := m.backend.ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("storage ping failed: %v", err),
			Details: details,
		}
	}
	if c := m.backend.cache; c != nil {
		if err := c.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("cache ping failed: %v", err),
				Details: details,
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
