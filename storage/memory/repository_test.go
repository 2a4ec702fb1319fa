package memory

import (
	"context"
	"testing"

	"github.com/example/task-quota-service/domain/task"
	"github.com/example/task-quota-service/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Contract(t *testing.T) {
	storagetest.RunRepositoryContract(t, func(t *testing.T, clock *storagetest.Clock) task.Repository {
		return NewRepository(WithClock(clock.Now))
	})
}

func TestRepository_IDsStartAtOne(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
	require.NoError(t, err)
	second, err := repo.Create(ctx, task.Task{Title: "B", Status: task.StatusOpen, CreatedBy: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestRepository_InstancesAreIndependent(t *testing.T) {
	a := NewRepository()
	b := NewRepository()
	ctx := context.Background()

	_, err := a.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())

	created, err := b.Create(ctx, task.Task{Title: "B", Status: task.StatusOpen, CreatedBy: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, task.Task{Title: "A", Status: task.StatusOpen, CreatedBy: 1})
	require.NoError(t, err)

	created.Title = "mutated"
	created.CreatedBy = 9

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", found.Title)
	assert.Equal(t, int64(1), found.CreatedBy)
}
