package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/example/task-quota-service/domain/task"
	"github.com/example/task-quota-service/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a repository on a private in-memory SQLite database
// with owners 1, 2 and 3 registered.
func setupTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()

	db, err := Open(":memory:", false)
	require.NoError(t, err, "failed to open test database")

	repo := NewRepository(db, opts...)
	require.NoError(t, repo.Migrate(), "failed to migrate test database")
	require.NoError(t, repo.SeedOwners(context.Background(), 1, 2, 3))

	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_Contract(t *testing.T) {
	storagetest.RunRepositoryContract(t, func(t *testing.T, clock *storagetest.Clock) task.Repository {
		return setupTestRepo(t, WithClock(clock.Now))
	})
}

func TestRepository_CreateUnknownOwner(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Create(context.Background(), task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 42})
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrNotFound)

	var te *task.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, task.CodeOwnerNotFound, te.Code)
	assert.Equal(t, int64(42), te.OwnerID)
}

func TestRepository_SeedOwnersIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedOwners(ctx, 1, 2, 3, 4))

	var n int64
	require.NoError(t, repo.db.Model(&Owner{}).Count(&n).Error)
	assert.Equal(t, int64(4), n)

	exists, err := repo.OwnerExists(ctx, 4)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.OwnerExists(ctx, 5)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_WithinTxRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx task.Repository) error {
		_, err := tx.Create(ctx, task.Task{Title: "rolled back", Status: task.StatusOpen, CreatedBy: 1})
		require.NoError(t, err)

		n, err := tx.CountActiveByOwner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	n, err := repo.CountActiveByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_WithinTxPreservesErrorKind(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx task.Repository) error {
		return tx.DeleteByID(ctx, 123)
	})
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestRepository_ServiceQuotaInTransaction(t *testing.T) {
	clock := storagetest.NewClock()
	repo := setupTestRepo(t, WithClock(clock.Now))
	svc := task.NewService(repo, task.WithClock(clock.Now))
	ctx := context.Background()

	var first *task.Task
	for i := 0; i < task.MaxActiveTasks; i++ {
		created, err := svc.CreateTask(ctx, task.Task{Title: "t", Status: task.StatusOpen, CreatedBy: 2})
		require.NoError(t, err)
		if first == nil {
			first = created
		}
	}

	_, err := svc.CreateTask(ctx, task.Task{Title: "eleventh", Status: task.StatusOpen, CreatedBy: 2})
	assert.ErrorIs(t, err, task.ErrBusinessRule)

	_, err = svc.UpdateTask(ctx, first.ID, task.Task{Title: "t", Status: task.StatusDone})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, task.Task{Title: "eleventh", Status: task.StatusOpen, CreatedBy: 2})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, task.Task{Title: "stranger", Status: task.StatusOpen, CreatedBy: 99})
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.ListTasks(ctx, task.Filter{OwnerID: 99})
	assert.ErrorIs(t, err, task.ErrNotFound)
}
