package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/storage"
)

var errBackendDown = errors.New("backend unreachable")

// flakyRepo fails every call once failing is set.
type flakyRepo struct {
	storage.Repository
	mu      sync.Mutex
	failing bool
}

func (r *flakyRepo) setFailing(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = v
}

func (r *flakyRepo) err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errBackendDown
	}
	return nil
}

func (r *flakyRepo) UpdateTask(ctx context.Context, in model.Task) error {
	if err := r.err(); err != nil {
		return err
	}
	return r.Repository.UpdateTask(ctx, in)
}

func (r *flakyRepo) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := r.err(); err != nil {
		return model.Task{}, err
	}
	return r.Repository.CreateTask(ctx, in)
}

func (r *flakyRepo) BulkDeleteTasks(ctx context.Context, ids []int64) (int, error) {
	if err := r.err(); err != nil {
		return 0, err
	}
	return r.Repository.BulkDeleteTasks(ctx, ids)
}

func (r *flakyRepo) ListTasks(ctx context.Context, f storage.TaskListFilter) ([]model.Task, error) {
	if err := r.err(); err != nil {
		return nil, err
	}
	return r.Repository.ListTasks(ctx, f)
}

type fixture struct {
	repo       *flakyRepo
	tasks      *TaskStore
	categories *CategoryStore
	clock      *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T) fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	repo := &flakyRepo{Repository: storage.NewMemoryRepository()}
	return fixture{
		repo:       repo,
		tasks:      NewTaskStore(repo, WithClock(clock.Now)),
		categories: NewCategoryStore(repo),
		clock:      clock,
	}
}

func (f fixture) category(t *testing.T, name string) model.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), model.CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (f fixture) task(t *testing.T, in model.TaskInput) model.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func assertCompletionInvariant(t *testing.T, task model.Task) {
	t.Helper()
	if (task.CompletedAt != nil) != task.Completed {
		t.Fatalf("completion invariant broken: completed=%v completed_at=%v", task.Completed, task.CompletedAt)
	}
}

func ids(tasks []model.Task) map[int64]bool {
	out := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		out[t.ID] = true
	}
	return out
}
