package task

import (
	"context"
	"testing"
	"time"

	"github.com/example/task-quota-service/config"
	domain "github.com/example/task-quota-service/domain/task"
	"github.com/example/task-quota-service/storage/storagetest"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

func testConfig(backend string) *config.Config {
	cfg := &config.Config{
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: time.Second,
	}
	cfg.HTTP.Port = 3000
	cfg.Storage.Backend = backend
	cfg.Storage.Path = ":memory:"
	cfg.Storage.SeedOwners = []int64{1, 2, 3}
	cfg.Breaker.Enabled = true
	cfg.Breaker.MaxFailures = 5
	cfg.Breaker.OpenTimeout = time.Second
	return cfg
}

func startModule(t *testing.T, backend string) (*TaskModule, *storagetest.Clock) {
	t.Helper()

	clock := storagetest.NewClock()
	m := NewModule(testConfig(backend), &mockLogger{})
	m.clock = clock.Now

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { _ = m.Stop(ctx) })
	return m, clock
}

func TestModule_Name(t *testing.T) {
	m := NewModule(testConfig(config.BackendMemory), &mockLogger{})
	assert.Equal(t, "task", m.Name())
}

func TestModule_HealthBeforeStart(t *testing.T) {
	m := NewModule(testConfig(config.BackendMemory), &mockLogger{})

	status := m.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "storage not initialized", status.Message)
}

func TestModule_StartStop(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendORM} {
		t.Run(backend, func(t *testing.T) {
			m := NewModule(testConfig(backend), &mockLogger{})
			ctx := context.Background()

			require.NoError(t, m.Start(ctx))
			require.NotNil(t, m.Service())

			status := m.Health(ctx)
			assert.True(t, status.Healthy, status.Message)
			assert.Equal(t, backend, status.Details["backend"])

			require.NoError(t, m.Stop(ctx))
			assert.False(t, m.Health(ctx).Healthy)
			require.NoError(t, m.Stop(ctx))
		})
	}
}

func TestModule_ORMHealthReportsBreaker(t *testing.T) {
	m, _ := startModule(t, config.BackendORM)

	status := m.Health(context.Background())
	require.True(t, status.Healthy)
	assert.Equal(t, "closed", status.Details["breaker"])
}

func TestModule_StartUnknownBackend(t *testing.T) {
	m := NewModule(testConfig("mongo"), &mockLogger{})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestHandlers_CreateAndGet(t *testing.T) {
	m, clock := startModule(t, config.BackendMemory)
	ctx := context.Background()

	created, err := m.createTask(ctx, CreateTaskRequest{Title: "Write report", Status: "OPEN", CreatedBy: 1}, nil)
	require.NoError(t, err)
	require.Nil(t, created.Error)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "OPEN", created.Status)
	assert.Equal(t, clock.Now(), created.CreatedAt)

	got, err := m.getTask(ctx, GetTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	require.Nil(t, got.Error)
	assert.Equal(t, created, got)
}

func TestHandlers_CreateRejectsUnknownStatus(t *testing.T) {
	m, _ := startModule(t, config.BackendMemory)

	resp, err := m.createTask(context.Background(), CreateTaskRequest{Title: "x", Status: "ARCHIVED", CreatedBy: 1}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.KindValidation.String(), resp.Error.Kind)
	assert.Equal(t, "status", resp.Error.Field)
}

func TestHandlers_GetMissing(t *testing.T) {
	m, _ := startModule(t, config.BackendMemory)

	resp, err := m.getTask(context.Background(), GetTaskRequest{ID: 42}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.CodeTaskNotFound, resp.Error.Code)
	assert.Equal(t, int64(42), resp.Error.TaskID)
}

func TestHandlers_QuotaAndCount(t *testing.T) {
	m, _ := startModule(t, config.BackendMemory)
	ctx := context.Background()

	for i := 0; i < domain.MaxActiveTasks; i++ {
		resp, err := m.createTask(ctx, CreateTaskRequest{Title: "task", Status: "IN_PROGRESS", CreatedBy: 2}, nil)
		require.NoError(t, err)
		require.Nil(t, resp.Error)
	}

	count, err := m.countActive(ctx, CountActiveRequest{OwnerID: 2}, nil)
	require.NoError(t, err)
	require.Nil(t, count.Error)
	assert.Equal(t, int64(domain.MaxActiveTasks), count.Count)

	resp, err := m.createTask(ctx, CreateTaskRequest{Title: "one more", Status: "OPEN", CreatedBy: 2}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.CodeBusinessRule, resp.Error.Code)
	assert.Equal(t, int64(2), resp.Error.OwnerID)
}

func TestHandlers_UpdateAndDelete(t *testing.T) {
	m, clock := startModule(t, config.BackendMemory)
	ctx := context.Background()

	created, err := m.createTask(ctx, CreateTaskRequest{Title: "draft", Status: "OPEN", CreatedBy: 1}, nil)
	require.NoError(t, err)
	require.Nil(t, created.Error)

	updated, err := m.updateTask(ctx, UpdateTaskRequest{ID: created.ID, Title: "final", Status: "DONE"}, nil)
	require.NoError(t, err)
	require.Nil(t, updated.Error)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "DONE", updated.Status)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	early, err := m.deleteTask(ctx, DeleteTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	assert.False(t, early.Deleted)
	require.NotNil(t, early.Error)
	assert.Equal(t, domain.KindBusinessRule.String(), early.Error.Kind)

	clock.Advance(domain.DeleteCooldown)
	deleted, err := m.deleteTask(ctx, DeleteTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	require.Nil(t, deleted.Error)
	assert.True(t, deleted.Deleted)

	again, err := m.deleteTask(ctx, DeleteTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	require.NotNil(t, again.Error)
	assert.Equal(t, domain.CodeTaskNotFound, again.Error.Code)
}

func TestHandlers_List(t *testing.T) {
	m, clock := startModule(t, config.BackendMemory)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		resp, err := m.createTask(ctx, CreateTaskRequest{Title: title, Status: "OPEN", CreatedBy: 1}, nil)
		require.NoError(t, err)
		require.Nil(t, resp.Error)
		clock.Advance(time.Minute)
	}

	resp, err := m.listTasks(ctx, ListTasksRequest{OwnerID: 1}, nil)
	require.NoError(t, err)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "second", resp.Tasks[0].Title)

	bad, err := m.listTasks(ctx, ListTasksRequest{OwnerID: 0}, nil)
	require.NoError(t, err)
	require.NotNil(t, bad.Error)
	assert.Equal(t, domain.CodeValidation, bad.Error.Code)
	assert.Empty(t, bad.Tasks)
}

func TestHandlers_ORMUnknownOwner(t *testing.T) {
	m, _ := startModule(t, config.BackendORM)

	resp, err := m.createTask(context.Background(), CreateTaskRequest{Title: "x", Status: "OPEN", CreatedBy: 99}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.CodeOwnerNotFound, resp.Error.Code)
}

func TestErrorBody_RoundTrip(t *testing.T) {
	original := domain.NewBusinessRuleError(7, 3, "limit reached")

	body := NewErrorBody(original)
	err := body.Err()

	require.ErrorIs(t, err, domain.ErrBusinessRule)
	var te *domain.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, original.Code, te.Code)
	assert.Equal(t, original.Message, te.Message)
	assert.Equal(t, int64(7), te.TaskID)
	assert.Equal(t, int64(3), te.OwnerID)
}

func TestErrorBody_Untagged(t *testing.T) {
	body := NewErrorBody(assert.AnError)

	assert.Equal(t, domain.KindStorage.String(), body.Kind)
	assert.Equal(t, domain.CodeStorage, body.Code)
	assert.Nil(t, NewErrorBody(nil))

	var nilBody *ErrorBody
	assert.NoError(t, nilBody.Err())
}
