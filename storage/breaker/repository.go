// Package breaker decorates a task repository with a circuit breaker so a
// failing database is not hammered by every request.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/example/task-quota-service/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/sony/gobreaker"
)

// Settings controls when the breaker opens and for how long.
type Settings struct {
	Name string
	// MaxFailures is the number of consecutive storage failures that opens
	// the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe
	// request through.
	OpenTimeout time.Duration
}

// Repository routes every call through a gobreaker.CircuitBreaker. Only
// storage failures count against the breaker; validation, not-found and
// business-rule outcomes are ordinary answers.
type Repository struct {
	inner task.Repository
	cb    *gobreaker.CircuitBreaker
}

var (
	_ task.Repository     = (*Repository)(nil)
	_ task.Transactor     = (*Repository)(nil)
	_ task.OwnerDirectory = (*Repository)(nil)
)

// NewRepository wraps inner with a circuit breaker.
func NewRepository(inner task.Repository, settings Settings, logger types.Logger) *Repository {
	if settings.Name == "" {
		settings.Name = "task-storage"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("Storage circuit breaker changed state",
					"breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})

	return &Repository{inner: inner, cb: cb}
}

// State returns the breaker's current state.
func (r *Repository) State() gobreaker.State {
	return r.cb.State()
}

// Unwrap returns the decorated repository.
func (r *Repository) Unwrap() task.Repository {
	return r.inner
}

func isSuccessful(err error) bool {
	switch task.KindOf(err) {
	case task.KindValidation, task.KindNotFound, task.KindBusinessRule:
		return true
	}
	return err == nil
}

func execute[T any](r *Repository, op string, fn func() (T, error)) (T, error) {
	out, err := r.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, task.NewStorageError(op, err)
		}
		return zero, err
	}
	return out.(T), nil
}

// Create inserts a task through the breaker.
func (r *Repository) Create(ctx context.Context, draft task.Task) (*task.Task, error) {
	return execute(r, "create task", func() (*task.Task, error) {
		return r.inner.Create(ctx, draft)
	})
}

// FindByID retrieves a task by ID through the breaker.
func (r *Repository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	return execute(r, "find task", func() (*task.Task, error) {
		return r.inner.FindByID(ctx, id)
	})
}

// FindAll lists an owner's tasks through the breaker.
func (r *Repository) FindAll(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	return execute(r, "list tasks", func() ([]task.Task, error) {
		return r.inner.FindAll(ctx, filter)
	})
}

// Update applies a task update through the breaker.
func (r *Repository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	return execute(r, "update task", func() (*task.Task, error) {
		return r.inner.Update(ctx, t)
	})
}

// DeleteByID deletes a task through the breaker.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	_, err := execute(r, "delete task", func() (struct{}, error) {
		return struct{}{}, r.inner.DeleteByID(ctx, id)
	})
	return err
}

// CountActiveByOwner counts an owner's active tasks through the breaker.
func (r *Repository) CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error) {
	return execute(r, "count active tasks", func() (int64, error) {
		return r.inner.CountActiveByOwner(ctx, ownerID)
	})
}

// OwnerExists forwards to the inner repository. Without an owner directory
// every owner is accepted.
func (r *Repository) OwnerExists(ctx context.Context, ownerID int64) (bool, error) {
	dir, ok := r.inner.(task.OwnerDirectory)
	if !ok {
		return true, nil
	}
	return execute(r, "look up owner", func() (bool, error) {
		return dir.OwnerExists(ctx, ownerID)
	})
}

// WithinTx runs the whole transaction as one breaker call.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo task.Repository) error) error {
	tx, ok := r.inner.(task.Transactor)
	if !ok {
		return fn(ctx, r)
	}
	_, err := execute(r, "run transaction", func() (struct{}, error) {
		return struct{}{}, tx.WithinTx(ctx, fn)
	})
	return err
}
