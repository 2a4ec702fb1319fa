// Package orm implements the task storage contract with GORM over SQLite.
// It also keeps an owners table and can run several calls in one
// transaction.
package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/task-quota-service/domain/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository provides task and owner storage via GORM.
type Repository struct {
	db    *gorm.DB
	clock task.Clock
}

var (
	_ task.Repository     = (*Repository)(nil)
	_ task.Transactor     = (*Repository)(nil)
	_ task.OwnerDirectory = (*Repository)(nil)
)

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

// Open connects to the SQLite database at path with foreign keys enforced
// and immediate write transactions. ":memory:" opens a private in-memory
// database on a single connection.
func Open(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if strings.HasPrefix(path, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewRepository creates a task repository over db.
func NewRepository(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{
		db:    db,
		clock: task.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate creates or updates the owners and tasks tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&Owner{}, &taskRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SeedOwners registers the given owner ids, skipping existing ones.
func (r *Repository) SeedOwners(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	owners := make([]Owner, 0, len(ids))
	for _, id := range ids {
		owners = append(owners, Owner{
			ID:        id,
			Username:  fmt.Sprintf("user-%d", id),
			CreatedAt: r.clock().UTC(),
		})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&owners).Error
	if err != nil {
		return fmt.Errorf("failed to seed owners: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// WithinTx runs fn with a repository bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo task.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, clock: r.clock})
	})
}

// OwnerExists reports whether ownerID is registered.
func (r *Repository) OwnerExists(ctx context.Context, ownerID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Owner{}).Where("id = ?", ownerID).Count(&n).Error; err != nil {
		return false, task.NewStorageError("look up owner", err)
	}
	return n > 0, nil
}

// Create checks the owner and inserts the task.
func (r *Repository) Create(ctx context.Context, draft task.Task) (*task.Task, error) {
	if err := task.ValidateFields(draft); err != nil {
		return nil, err
	}

	exists, err := r.OwnerExists(ctx, draft.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, task.NewOwnerNotFoundError(draft.CreatedBy)
	}

	rec := taskRecord{
		Title:     draft.Title,
		Status:    string(draft.Status),
		CreatedBy: draft.CreatedBy,
		CreatedAt: r.clock().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, task.NewOwnerNotFoundError(draft.CreatedBy)
		}
		return nil, task.NewStorageError("create task", err)
	}

	t := rec.toTask()
	return &t, nil
}

// FindByID returns the task, or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, task.NewStorageError("find task", err)
	}
	t := rec.toTask()
	return &t, nil
}

// FindAll lists the owner's tasks within the filter, newest first.
func (r *Repository) FindAll(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	query := r.db.WithContext(ctx).Where("created_by = ?", filter.OwnerID)
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}

	var recs []taskRecord
	if err := query.Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, task.NewStorageError("list tasks", err)
	}

	tasks := make([]task.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.toTask())
	}
	return tasks, nil
}

// Update writes title and status only; owner and creation time are left as
// stored.
func (r *Repository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	if err := task.ValidateFields(t); err != nil {
		return nil, err
	}

	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", t.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.NewTaskNotFoundError(t.ID)
		}
		return nil, task.NewStorageError("find task", err)
	}

	result := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{"title": t.Title, "status": string(t.Status)})
	if err := result.Error; err != nil {
		return nil, task.NewStorageError("update task", err)
	}
	if result.RowsAffected == 0 {
		return nil, task.NewTaskNotFoundError(t.ID)
	}

	rec.Title = t.Title
	rec.Status = string(t.Status)
	updated := rec.toTask()
	return &updated, nil
}

// DeleteByID removes the task or reports NotFound.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if err := result.Error; err != nil {
		return task.NewStorageError("delete task", err)
	}
	if result.RowsAffected == 0 {
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

	var n int64
	err := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("created_by = ? AND status IN ?", ownerID, statuses).
		Count(&n).Error
	if err != nil {
		return 0, task.NewStorageError("count active tasks", err)
	}
	return n, nil
}

func (rec taskRecord) toTask() task.Task {
	return task.Task{
		ID:        rec.ID,
		Title:     rec.Title,
		Status:    task.Status(rec.Status),
		CreatedBy: rec.CreatedBy,
		CreatedAt: rec.CreatedAt.UTC(),
	}
}
