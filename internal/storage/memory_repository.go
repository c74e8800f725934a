package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/sandeepkv93/taskflow/internal/model"
)

// MemoryRepository keeps records in process memory. Reads return copies so
// callers never hold references into the record set.
type MemoryRepository struct {
	mu sync.RWMutex

	nextTaskID     int64
	nextCategoryID int64

	tasks      map[int64]model.Task
	categories map[int64]model.Category
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextTaskID:     1,
		nextCategoryID: 1,
		tasks:          make(map[int64]model.Task),
		categories:     make(map[int64]model.Category),
	}
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) CreateTask(_ context.Context, in model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[in.CategoryID]; !ok {
		return model.Task{}, model.ErrUnknownCategory
	}

	var maxOrder int64
	for _, t := range r.tasks {
		if t.Order > maxOrder {
			maxOrder = t.Order
		}
	}

	out := in.Clone()
	out.ID = r.nextTaskID
	out.Order = maxOrder + 1
	r.nextTaskID++
	r.tasks[out.ID] = out
	return out.Clone(), nil
}

func (r *MemoryRepository) GetTask(_ context.Context, id int64) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryRepository) UpdateTask(_ context.Context, in model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[in.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.categories[in.CategoryID]; !ok {
		return model.ErrUnknownCategory
	}
	out := in.Clone()
	out.CreatedAt = cur.CreatedAt
	r.tasks[in.ID] = out
	return nil
}

func (r *MemoryRepository) DeleteTask(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) BulkDeleteTasks(_ context.Context, ids []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := r.tasks[id]; !ok {
			continue
		}
		delete(r.tasks, id)
		removed++
	}
	return removed, nil
}

func (r *MemoryRepository) ListTasks(_ context.Context, filter TaskListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		switch filter.OrderBy {
		case OrderBySort:
			if out[i].Order != out[j].Order {
				return out[i].Order < out[j].Order
			}
		case OrderByCreated:
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *MemoryRepository) CreateCategory(_ context.Context, in model.Category) (model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxOrder int64
	for _, c := range r.categories {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
	}

	out := in
	out.ID = r.nextCategoryID
	out.Order = maxOrder + 1
	r.nextCategoryID++
	r.categories[out.ID] = out
	return out, nil
}

func (r *MemoryRepository) GetCategory(_ context.Context, id int64) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return model.Category{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepository) UpdateCategory(_ context.Context, in model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[in.ID]; !ok {
		return ErrNotFound
	}
	r.categories[in.ID] = in
	return nil
}

func (r *MemoryRepository) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	for _, t := range r.tasks {
		if t.CategoryID == id {
			return model.ErrCategoryInUse
		}
	}
	delete(r.categories, id)
	return nil
}

func (r *MemoryRepository) ListCategories(_ context.Context, filter CategoryListFilter) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}
