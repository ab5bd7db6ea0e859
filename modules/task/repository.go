package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
)

// Store is the persistence contract the service and guard rely on.
// Every method either succeeds or fails as a whole.
type Store interface {
	Insert(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	FindByOwner(ctx context.Context, owner string) ([]*domain.Task, error)
	UpdateFields(ctx context.Context, id string, columns map[string]any) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskRepository stores tasks in SQLite through GORM.
type TaskRepository struct {
	db *gorm.DB
}

var _ Store = (*TaskRepository)(nil)

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Insert saves a new task.
func (r *TaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("%w: failed to insert task: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByID retrieves a task by its id.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find task: %v", domain.ErrStoreUnavailable, err)
	}
	return &task, nil
}

// FindByOwner returns every task of owner, newest created first.
// rowid breaks ties between tasks created within the same clock tick.
func (r *TaskRepository) FindByOwner(ctx context.Context, owner string) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Order("rowid DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %v", domain.ErrStoreUnavailable, err)
	}
	return tasks, nil
}

// UpdateFields applies columns to the task with the given id inside a single
// transaction and returns the stored record afterwards.
func (r *TaskRepository) UpdateFields(ctx context.Context, id string, columns map[string]any) (*domain.Task, error) {
	var updated domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to update task: %v", domain.ErrStoreUnavailable, result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("%w: failed to reload task: %v", domain.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete permanently removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: failed to delete task: %v", domain.ErrStoreUnavailable, err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
