// Package storagetest holds the behaviour every task backend must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/task-quota-service/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced clock for deterministic CreatedAt values.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed, microsecond-aligned instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory builds an empty repository that reads time from clock.
// Owners 1, 2 and 3 must be usable.
type Factory func(t *testing.T, clock *Clock) task.Repository

// RunRepositoryContract runs the shared storage contract against newRepo.
func RunRepositoryContract(t *testing.T, newRepo Factory) {
	t.Run("Create assigns id and timestamp", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)
		ctx := context.Background()

		created, err := repo.Create(ctx, task.Task{
			ID:        99,
			Title:     "A",
			Status:    task.StatusOpen,
			CreatedBy: 1,
			CreatedAt: clock.Now().Add(-48 * time.Hour),
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.NotZero(t, created.ID)
		assert.NotEqual(t, int64(99), created.ID)
		assert.Equal(t, "A", created.Title)
		assert.Equal(t, task.StatusOpen, created.Status)
		assert.Equal(t, int64(1), created.CreatedBy)
		assert.True(t, created.CreatedAt.Equal(clock.Now()), "created_at = %v, want %v", created.CreatedAt, clock.Now())

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Title, found.Title)
		assert.Equal(t, created.Status, found.Status)
		assert.Equal(t, created.CreatedBy, found.CreatedBy)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("Create rejects invalid drafts", func(t *testing.T) {
		repo := newRepo(t, NewClock())
		ctx := context.Background()

		tests := []struct {
			name  string
			draft task.Task
			field string
		}{
			{"blank title", task.Task{Title: "   ", Status: task.StatusOpen, CreatedBy: 1}, "title"},
			{"missing status", task.Task{Title: "A", CreatedBy: 1}, "status"},
			{"unknown status", task.Task{Title: "A", Status: "PAUSED", CreatedBy: 1}, "status"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := repo.Create(ctx, tt.draft)
				require.Error(t, err)
				assert.ErrorIs(t, err, task.ErrValidation)

				var te *task.Error
				require.True(t, errors.As(err, &te))
				assert.Equal(t, tt.field, te.Field)
			})
		}
	})

	t.Run("Create never reuses ids under concurrency", func(t *testing.T) {
		repo := newRepo(t, NewClock())
		ctx := context.Background()

		const n = 20
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := repo.Create(ctx, task.Task{Title: "parallel", Status: task.StatusDone, CreatedBy: 3})
				if assert.NoError(t, err) {
					ids <- created.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)
	})

	t.Run("FindByID returns nil for missing task", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		found, err := repo.FindByID(context.Background(), 4242)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("FindAll filters by owner and inclusive range, newest first", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)
		ctx := context.Background()

		var owned []task.Task
		for _, title := range []string{"first", "second", "third"} {
			created, err := repo.Create(ctx, task.Task{Title: title, Status: task.StatusOpen, CreatedBy: 1})
			require.NoError(t, err)
			owned = append(owned, *created)

			_, err = repo.Create(ctx, task.Task{Title: "other " + title, Status: task.StatusOpen, CreatedBy: 2})
			require.NoError(t, err)
			clock.Advance(time.Minute)
		}

		all, err := repo.FindAll(ctx, task.Filter{OwnerID: 1})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"third", "second", "first"}, titles(all))

		from := owned[1].CreatedAt
		to := owned[2].CreatedAt
		ranged, err := repo.FindAll(ctx, task.Filter{OwnerID: 1, From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "second"}, titles(ranged))

		upTo := owned[0].CreatedAt
		openStart, err := repo.FindAll(ctx, task.Filter{OwnerID: 1, To: &upTo})
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, titles(openStart))

		none, err := repo.FindAll(ctx, task.Filter{OwnerID: 3})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Update changes title and status only", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)
		ctx := context.Background()

		created, err := repo.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
		require.NoError(t, err)
		clock.Advance(time.Hour)

		updated, err := repo.Update(ctx, task.Task{
			ID:        created.ID,
			Title:     "A2",
			Status:    task.StatusDone,
			CreatedBy: 2,
			CreatedAt: clock.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "A2", updated.Title)
		assert.Equal(t, task.StatusDone, updated.Status)
		assert.Equal(t, int64(1), updated.CreatedBy)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "A2", found.Title)
		assert.Equal(t, int64(1), found.CreatedBy)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("Update missing task is NotFound", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		_, err := repo.Update(context.Background(), task.Task{ID: 777, Title: "x", Status: task.StatusOpen})
		require.Error(t, err)
		assert.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("Update rejects blank title", func(t *testing.T) {
		repo := newRepo(t, NewClock())
		ctx := context.Background()

		created, err := repo.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
		require.NoError(t, err)

		_, err = repo.Update(ctx, task.Task{ID: created.ID, Title: "", Status: task.StatusOpen})
		assert.ErrorIs(t, err, task.ErrValidation)
	})

	t.Run("DeleteByID removes task and reports missing ones", func(t *testing.T) {
		repo := newRepo(t, NewClock())
		ctx := context.Background()

		created, err := repo.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, created.ID))

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		err = repo.DeleteByID(ctx, created.ID)
		assert.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("CountActiveByOwner counts open and in-progress tasks", func(t *testing.T) {
		repo := newRepo(t, NewClock())
		ctx := context.Background()

		statuses := []task.Status{
			task.StatusOpen, task.StatusOpen, task.StatusInProgress,
			task.StatusDone, task.StatusCancelled,
		}
		for _, s := range statuses {
			_, err := repo.Create(ctx, task.Task{Title: "t", Status: s, CreatedBy: 1})
			require.NoError(t, err)
		}
		_, err := repo.Create(ctx, task.Task{Title: "t", Status: task.StatusOpen, CreatedBy: 2})
		require.NoError(t, err)

		n, err := repo.CountActiveByOwner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountActiveByOwner(ctx, 3)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func titles(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
