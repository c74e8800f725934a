package storage

import (
	"context"

	"github.com/sandeepkv93/taskflow/internal/model"
)

var ErrNotFound = model.ErrNotFound

// TaskRepository is the record access boundary for tasks. CreateTask assigns
// the id and the insertion order; every other field is stored as given.
type TaskRepository interface {
	CreateTask(ctx context.Context, in model.Task) (model.Task, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id int64) error
	BulkDeleteTasks(ctx context.Context, ids []int64) (int, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
}

// CategoryRepository is the record access boundary for categories.
// CreateCategory assigns the id and appends the category at the end of the
// current order.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, in model.Category) (model.Category, error)
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	UpdateCategory(ctx context.Context, in model.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context, filter CategoryListFilter) ([]model.Category, error)
}

type Repository interface {
	TaskRepository
	CategoryRepository
	Close() error
}

type TaskOrder string

const (
	OrderByID      TaskOrder = "id"
	OrderBySort    TaskOrder = "order"
	OrderByCreated TaskOrder = "created"
)

type TaskListFilter struct {
	CategoryID int64
	Archived   *bool
	Completed  *bool
	OrderBy    TaskOrder
	Limit      int
	Offset     int
}

func (f TaskListFilter) matches(t model.Task) bool {
	if f.CategoryID > 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if f.Archived != nil && t.Archived != *f.Archived {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	return true
}

type CategoryListFilter struct {
	Limit  int
	Offset int
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
