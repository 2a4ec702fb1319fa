package task

import (
	"context"
	"time"
)

// Repository is the storage contract shared by every backend.
type Repository interface {
	// Create validates and persists a draft. The backend assigns ID and
	// CreatedAt; caller-supplied values for both are ignored.
	Create(ctx context.Context, draft Task) (*Task, error)

	// FindByID returns (nil, nil) when no task has the given id.
	FindByID(ctx context.Context, id int64) (*Task, error)

	// FindAll returns the owner's tasks within the filter's bounds,
	// newest first.
	FindAll(ctx context.Context, filter Filter) ([]Task, error)

	// Update applies Title and Status to the stored task with t.ID,
	// preserving its CreatedBy and CreatedAt.
	Update(ctx context.Context, t Task) (*Task, error)

	DeleteByID(ctx context.Context, id int64) error

	CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error)
}

// Transactor is implemented by backends that can run several repository
// calls inside one transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// OwnerDirectory is implemented by backends that keep a registry of owners.
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, ownerID int64) (bool, error)
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the default Clock.
func SystemClock() time.Time {
	return time.Now()
}
