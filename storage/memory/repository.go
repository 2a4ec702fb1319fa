// Package memory implements the task storage contract on a guarded map.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/task-quota-service/domain/task"
)

// Repository keeps tasks in memory. Every instance owns its own records
// and id sequence; nothing is shared between instances.
type Repository struct {
	mu     sync.RWMutex
	tasks  map[int64]task.Task
	nextID int64
	clock  task.Clock
}

var _ task.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used for CreatedAt.
func WithClock(clock task.Clock) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRepository creates an empty in-memory repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		tasks:  make(map[int64]task.Task),
		nextID: 1,
		clock:  task.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create assigns the next id and the current time, then stores the task.
func (r *Repository) Create(_ context.Context, draft task.Task) (*task.Task, error) {
	if err := task.ValidateFields(draft); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := task.Task{
		ID:        r.nextID,
		Title:     draft.Title,
		Status:    draft.Status,
		CreatedBy: draft.CreatedBy,
		CreatedAt: r.clock(),
	}
	r.nextID++
	r.tasks[t.ID] = t

	return &t, nil
}

// FindByID returns a copy of the stored task, or nil when absent.
func (r *Repository) FindByID(_ context.Context, id int64) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// FindAll returns the owner's tasks within the filter, newest first.
func (r *Repository) FindAll(_ context.Context, filter task.Filter) ([]task.Task, error) {
	r.mu.RLock()
	result := make([]task.Task, 0)
	for _, t := range r.tasks {
		if t.CreatedBy == filter.OwnerID && filter.Contains(t.CreatedAt) {
			result = append(result, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Update replaces title and status of an existing task.
func (r *Repository) Update(_ context.Context, t task.Task) (*task.Task, error) {
	if err := task.ValidateFields(t); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[t.ID]
	if !ok {
		return nil, task.NewTaskNotFoundError(t.ID)
	}
	existing.Title = t.Title
	existing.Status = t.Status
	r.tasks[t.ID] = existing

	return &existing, nil
}

// DeleteByID removes the task or reports NotFound.
func (r *Repository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return task.NewTaskNotFoundError(id)
	}
	delete(r.tasks, id)
	return nil
}

// CountActiveByOwner counts the owner's active tasks.
func (r *Repository) CountActiveByOwner(_ context.Context, ownerID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, t := range r.tasks {
		if t.CreatedBy == ownerID && t.IsActive() {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored tasks.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
