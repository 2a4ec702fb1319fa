package task

import (
	"context"
	"time"
)

const (
	// MaxActiveTasks is the quota of simultaneously active tasks per owner.
	MaxActiveTasks = 10

	// DeleteCooldown is the minimum age a task must reach before deletion.
	DeleteCooldown = 5 * time.Minute
)

// Service enforces the rules no single storage call can enforce alone.
// It never inspects which backend it runs on; optional backend capabilities
// (Transactor, OwnerDirectory) are discovered through interface assertions.
type Service struct {
	repo  Repository
	clock Clock
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for the deletion cooldown.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService creates a Service backed by repo.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:  repo,
		clock: SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTask validates draft, checks the owner's quota and persists it.
func (s *Service) CreateTask(ctx context.Context, draft Task) (*Task, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	var created *Task
	err := s.withinTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := ensureOwner(ctx, repo, draft.CreatedBy); err != nil {
			return err
		}
		if err := checkActiveTasksLimit(ctx, repo, 0, draft.CreatedBy); err != nil {
			return err
		}

		t, err := repo.Create(ctx, Task{
			Title:     draft.Title,
			Status:    draft.Status,
			CreatedBy: draft.CreatedBy,
		})
		if err != nil {
			return storageFailure("create task", err)
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetTask returns the task with id or a NotFound error.
func (s *Service) GetTask(ctx context.Context, id int64) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageFailure("find task", err)
	}
	if t == nil {
		return nil, NewTaskNotFoundError(id)
	}
	return t, nil
}

// ListTasks returns the owner's tasks created within the filter's bounds.
func (s *Service) ListTasks(ctx context.Context, filter Filter) ([]Task, error) {
	if filter.OwnerID <= 0 {
		return nil, NewValidationError("userId", "owner is required")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, NewValidationError("from", "Start date cannot be after end date")
	}
	if err := ensureOwner(ctx, s.repo, filter.OwnerID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, storageFailure("list tasks", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// UpdateTask applies input's title and status to the task with id.
// CreatedBy and CreatedAt always keep their stored values.
func (s *Service) UpdateTask(ctx context.Context, id int64, input Task) (*Task, error) {
	var updated *Task
	err := s.withinTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return storageFailure("find task", err)
		}
		if existing == nil {
			return NewTaskNotFoundError(id)
		}

		input.ID = existing.ID
		input.CreatedBy = existing.CreatedBy
		input.CreatedAt = existing.CreatedAt
		if err := ValidateFields(input); err != nil {
			return err
		}

		if isBecomingActive(*existing, input) {
			if err := checkActiveTasksLimit(ctx, repo, existing.ID, existing.CreatedBy); err != nil {
				return err
			}
		}

		t, err := repo.Update(ctx, input)
		if err != nil {
			return storageFailure("update task", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the task with id once its cooldown has elapsed.
// A missing task is reported as NotFound by the backend.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.withinTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return storageFailure("find task", err)
		}
		if existing != nil && s.clock().Sub(existing.CreatedAt) < DeleteCooldown {
			return NewBusinessRuleError(existing.ID, existing.CreatedBy,
				"Cannot delete task created less than %d minutes ago", int(DeleteCooldown/time.Minute))
		}
		if err := repo.DeleteByID(ctx, id); err != nil {
			return storageFailure("delete task", err)
		}
		return nil
	})
}

// CountActiveTasks returns how many of the owner's tasks are active.
func (s *Service) CountActiveTasks(ctx context.Context, ownerID int64) (int64, error) {
	n, err := s.repo.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return 0, storageFailure("count active tasks", err)
	}
	return n, nil
}

func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if tx, ok := s.repo.(Transactor); ok {
		return tx.WithinTx(ctx, fn)
	}
	return fn(ctx, s.repo)
}

func validateDraft(draft Task) error {
	if err := ValidateFields(draft); err != nil {
		return err
	}
	if draft.CreatedBy <= 0 {
		return NewValidationError("createdBy", "owner is required")
	}
	return nil
}

func ensureOwner(ctx context.Context, repo Repository, ownerID int64) error {
	dir, ok := repo.(OwnerDirectory)
	if !ok {
		return nil
	}
	exists, err := dir.OwnerExists(ctx, ownerID)
	if err != nil {
		return storageFailure("look up owner", err)
	}
	if !exists {
		return NewOwnerNotFoundError(ownerID)
	}
	return nil
}

func checkActiveTasksLimit(ctx context.Context, repo Repository, taskID, ownerID int64) error {
	active, err := repo.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return storageFailure("count active tasks", err)
	}
	if active >= MaxActiveTasks {
		return NewBusinessRuleError(taskID, ownerID,
			"User %d already has %d active tasks (maximum %d)", ownerID, active, MaxActiveTasks)
	}
	return nil
}

func isBecomingActive(existing, updated Task) bool {
	return !existing.IsActive() && updated.IsActive()
}

// storageFailure passes tagged errors through and tags anything else as a
// storage error.
func storageFailure(op string, err error) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	return NewStorageError(op, err)
}
