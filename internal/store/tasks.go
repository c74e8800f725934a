// Package store implements the task and category stores: validated,
// per-record serialized mutations over a storage repository, and read
// projections that always return snapshots.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/storage"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type TaskStore struct {
	repo  storage.TaskRepository
	locks *recordLocks
	now   func() time.Time
}

func NewTaskStore(repo storage.TaskRepository, opts ...Option) *TaskStore {
	o := buildOptions(opts)
	return &TaskStore{repo: repo, locks: newRecordLocks(), now: o.now}
}

func (s *TaskStore) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	in = in.Normalize()
	task := model.Task{
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   s.now().UTC(),
	}
	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, model.Transport("create task", err)
	}
	return created, nil
}

func (s *TaskStore) Get(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, model.Transport("get task", err)
	}
	return task, nil
}

// Update merges patch onto the stored task. Completion changes keep
// CompletedAt consistent with Completed.
func (s *TaskStore) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if err := patch.Validate(); err != nil {
		return model.Task{}, err
	}
	return s.mutate(ctx, id, "update task", func(t model.Task) model.Task {
		return patch.Apply(t, s.now())
	})
}

func (s *TaskStore) ToggleComplete(ctx context.Context, id int64) (model.Task, error) {
	return s.mutate(ctx, id, "toggle task", func(t model.Task) model.Task {
		t.SetCompleted(!t.Completed, s.now())
		return t
	})
}

func (s *TaskStore) Archive(ctx context.Context, id int64) (model.Task, error) {
	return s.mutate(ctx, id, "archive task", func(t model.Task) model.Task {
		t.Archived = true
		return t
	})
}

func (s *TaskStore) Restore(ctx context.Context, id int64) (model.Task, error) {
	return s.mutate(ctx, id, "restore task", func(t model.Task) model.Task {
		t.Archived = false
		return t
	})
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return model.Transport("delete task", s.repo.DeleteTask(ctx, id))
}

// BulkDelete removes every listed task that exists and skips the rest. The
// returned count is the number of records actually removed.
func (s *TaskStore) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	unlock := s.locks.lockAll(ids)
	defer unlock()
	removed, err := s.repo.BulkDeleteTasks(ctx, ids)
	if err != nil {
		return 0, model.Transport("bulk delete tasks", err)
	}
	return removed, nil
}

// Reorder assigns order = position+1 to each listed task. Unknown ids are
// ignored.
func (s *TaskStore) Reorder(ctx context.Context, ids []int64) error {
	for pos, id := range ids {
		order := int64(pos + 1)
		_, err := s.mutate(ctx, id, "reorder task", func(t model.Task) model.Task {
			t.Order = order
			return t
		})
		if err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

func (s *TaskStore) ListAll(ctx context.Context) ([]model.Task, error) {
	return s.list(ctx, storage.TaskListFilter{})
}

func (s *TaskStore) ListActive(ctx context.Context) ([]model.Task, error) {
	archived := false
	return s.list(ctx, storage.TaskListFilter{Archived: &archived})
}

func (s *TaskStore) ListArchived(ctx context.Context) ([]model.Task, error) {
	archived := true
	return s.list(ctx, storage.TaskListFilter{Archived: &archived})
}

// ListByCategory returns every task of the category, archived or not.
func (s *TaskStore) ListByCategory(ctx context.Context, categoryID int64) ([]model.Task, error) {
	if categoryID <= 0 {
		return nil, model.ErrMissingCategory
	}
	return s.list(ctx, storage.TaskListFilter{CategoryID: categoryID})
}

// Search matches query case-insensitively against title and description. A
// blank query returns every task.
func (s *TaskStore) Search(ctx context.Context, query string) ([]model.Task, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return all, nil
	}
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), term) || strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TaskStore) list(ctx context.Context, filter storage.TaskListFilter) ([]model.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, model.Transport("list tasks", err)
	}
	return tasks, nil
}

// mutate runs a read-modify-write of one task while holding its record lock.
func (s *TaskStore) mutate(ctx context.Context, id int64, op string, fn func(model.Task) model.Task) (model.Task, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	cur, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, model.Transport(op, err)
	}
	next := fn(cur.Clone())
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if err := next.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, next); err != nil {
		return model.Task{}, model.Transport(op, err)
	}
	return next.Clone(), nil
}
