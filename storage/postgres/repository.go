// Package postgres implements the task storage contract with one
// parameterized statement per operation over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	schema "github.com/example/task-quota-service/db"
	"github.com/example/task-quota-service/db/generated"
	"github.com/example/task-quota-service/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides access to task storage using sqlc queries.
// Statements are not grouped into transactions; each call is atomic on its own.
type Repository struct {
	db      generated.DBTX
	queries *generated.Queries
	clock   task.Clock
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

// NewRepository creates a task repository over db.
func NewRepository(db generated.DBTX, opts ...Option) *Repository {
	r := &Repository{
		db:      db,
		queries: generated.New(db),
		clock:   task.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenPool connects to PostgreSQL and verifies the connection.
func OpenPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema.Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the underlying connection when it supports pinging.
func (r *Repository) Ping(ctx context.Context) error {
	p, ok := r.db.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// Create inserts a task stamped with the repository clock.
func (r *Repository) Create(ctx context.Context, draft task.Task) (*task.Task, error) {
	if err := task.ValidateFields(draft); err != nil {
		return nil, err
	}

	row, err := r.queries.CreateTask(ctx, generated.CreateTaskParams{
		Title:     draft.Title,
		Status:    string(draft.Status),
		CreatedBy: draft.CreatedBy,
		CreatedAt: timestamptz(r.now()),
	})
	if err != nil {
		return nil, translate("create task", err)
	}
	t := toTask(row)
	return &t, nil
}

// FindByID returns the task, or nil when no row matches.
func (r *Repository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	row, err := r.queries.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate("find task", err)
	}
	t := toTask(row)
	return &t, nil
}

// FindAll lists the owner's tasks within the filter, newest first.
func (r *Repository) FindAll(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	params := generated.ListTasksByOwnerParams{CreatedBy: filter.OwnerID}
	if filter.From != nil {
		params.FromTime = timestamptz(*filter.From)
	}
	if filter.To != nil {
		params.ToTime = timestamptz(*filter.To)
	}

	rows, err := r.queries.ListTasksByOwner(ctx, params)
	if err != nil {
		return nil, translate("list tasks", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, toTask(row))
	}
	return tasks, nil
}

// Update sets title and status. The statement never touches created_by or
// created_at.
func (r *Repository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	if err := task.ValidateFields(t); err != nil {
		return nil, err
	}

	row, err := r.queries.UpdateTask(ctx, generated.UpdateTaskParams{
		ID:     t.ID,
		Title:  t.Title,
		Status: string(t.Status),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.NewTaskNotFoundError(t.ID)
		}
		return nil, translate("update task", err)
	}
	updated := toTask(row)
	return &updated, nil
}

// DeleteByID removes the task or reports NotFound when no row was deleted.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTask(ctx, id)
	if err != nil {
		return translate("delete task", err)
	}
	if n == 0 {
		return task.NewTaskNotFoundError(id)
	}
	return nil
}

// CountActiveByOwner counts the owner's tasks in an active status.
func (r *Repository) CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error) {
	active := task.ActiveStatuses()
	statuses := make([]string, 0, len(active))
	for _, s := range active {
		statuses = append(statuses, string(s))
	}

	n, err := r.queries.CountTasksByOwnerAndStatus(ctx, generated.CountTasksByOwnerAndStatusParams{
		CreatedBy: ownerID,
		Statuses:  statuses,
	})
	if err != nil {
		return 0, translate("count active tasks", err)
	}
	return n, nil
}

// now truncates to the microsecond precision of TIMESTAMPTZ so the record
// returned by Create equals what a later read returns.
func (r *Repository) now() time.Time {
	return r.clock().Truncate(time.Microsecond)
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toTask(row generated.Task) task.Task {
	return task.Task{
		ID:        row.ID,
		Title:     row.Title,
		Status:    task.Status(row.Status),
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt.Time,
	}
}

// checkConstraintFields maps the CHECK constraints in db/schema.sql to the
// task field they guard.
var checkConstraintFields = map[string]string{
	"tasks_title_check":  "title",
	"tasks_status_check": "status",
}

// translate maps constraint violations to validation errors and everything
// else to storage errors.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		field := checkConstraintFields[pgErr.ConstraintName]
		if field == "" {
			field = pgErr.ColumnName
		}
		return task.NewValidationError(field, "%s", pgErr.Message)
	}
	return task.NewStorageError(op, err)
}
