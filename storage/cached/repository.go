// Package cached decorates a task repository with a Redis cache-aside layer
// for single-task reads.
package cached

import (
	"context"
	"strconv"

	"github.com/example/task-quota-service/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Repository serves FindByID from Redis when possible and invalidates
// entries on every write that can change them. Cache failures are logged
// and never fail a call.
type Repository struct {
	inner  task.Repository
	cache  *Cache
	logger types.Logger
	group  singleflight.Group
}

var (
	_ task.Repository     = (*Repository)(nil)
	_ task.Transactor     = (*Repository)(nil)
	_ task.OwnerDirectory = (*Repository)(nil)
)

// NewRepository wraps inner with cache.
func NewRepository(inner task.Repository, cache *Cache, logger types.Logger) *Repository {
	return &Repository{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// Cache returns the underlying cache.
func (r *Repository) Cache() *Cache {
	return r.cache
}

// Unwrap returns the decorated repository.
func (r *Repository) Unwrap() task.Repository {
	return r.inner
}

func cacheKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

// FindByID reads through the cache. Concurrent misses for one id share a
// single backend lookup.
func (r *Repository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	key := cacheKey(id)

	var cachedTask task.Task
	found, err := r.cache.Get(ctx, key, &cachedTask)
	if err != nil {
		r.logger.Warn("Cache read failed, falling back to storage", "id", id, "error", err)
	}
	if found {
		return &cachedTask, nil
	}

	val, err, _ := r.group.Do(key, func() (any, error) {
		return r.inner.FindByID(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}

	t, _ := val.(*task.Task)
	if t == nil {
		return nil, nil
	}
	result := *t

	if err := r.cache.Set(ctx, key, result); err != nil {
		r.logger.Warn("Failed to cache task", "id", id, "error", err)
	}
	return &result, nil
}

// Create writes through; new tasks are cached on first read.
func (r *Repository) Create(ctx context.Context, draft task.Task) (*task.Task, error) {
	return r.inner.Create(ctx, draft)
}

// FindAll always reads from storage.
func (r *Repository) FindAll(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	return r.inner.FindAll(ctx, filter)
}

// CountActiveByOwner always reads from storage.
func (r *Repository) CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error) {
	return r.inner.CountActiveByOwner(ctx, ownerID)
}

// Update writes through and drops the cached entry.
func (r *Repository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	updated, err := r.inner.Update(ctx, t)
	r.invalidate(ctx, t.ID)
	return updated, err
}

// DeleteByID deletes and drops the cached entry.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	err := r.inner.DeleteByID(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// OwnerExists forwards to the inner repository. Without an owner directory
// every owner is accepted.
func (r *Repository) OwnerExists(ctx context.Context, ownerID int64) (bool, error) {
	return ownerExists(ctx, r.inner, ownerID)
}

// WithinTx forwards to the inner repository's transaction when it has one.
// Reads inside the callback always bypass the cache, so business rules are
// checked against stored state; entries written inside it are invalidated
// again once it finishes.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo task.Repository) error) error {
	var touched []int64
	tx, ok := r.inner.(task.Transactor)
	if !ok {
		err := fn(ctx, &txRepository{Repository: r.inner, parent: r, touched: &touched})
		r.invalidate(ctx, touched...)
		return err
	}

	err := tx.WithinTx(ctx, func(ctx context.Context, inner task.Repository) error {
		return fn(ctx, &txRepository{Repository: inner, parent: r, touched: &touched})
	})
	r.invalidate(ctx, touched...)
	return err
}

func (r *Repository) invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("Failed to invalidate cached tasks", "ids", ids, "error", err)
	}
}

// txRepository is the view handed to transactional callbacks. Reads go
// straight to storage.
type txRepository struct {
	task.Repository
	parent  *Repository
	touched *[]int64
}

func (t *txRepository) Update(ctx context.Context, in task.Task) (*task.Task, error) {
	*t.touched = append(*t.touched, in.ID)
	updated, err := t.Repository.Update(ctx, in)
	t.parent.invalidate(ctx, in.ID)
	return updated, err
}

func (t *txRepository) DeleteByID(ctx context.Context, id int64) error {
	*t.touched = append(*t.touched, id)
	err := t.Repository.DeleteByID(ctx, id)
	t.parent.invalidate(ctx, id)
	return err
}

func (t *txRepository) OwnerExists(ctx context.Context, ownerID int64) (bool, error) {
	return ownerExists(ctx, t.Repository, ownerID)
}

func ownerExists(ctx context.Context, repo task.Repository, ownerID int64) (bool, error) {
	dir, ok := repo.(task.OwnerDirectory)
	if !ok {
		return true, nil
	}
	return dir.OwnerExists(ctx, ownerID)
}
