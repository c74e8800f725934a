// Package lifecycle sequences user-level task and category actions over the
// stores and tells observers when counts may have changed.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/store"
)

type Coordinator struct {
	tasks      *store.TaskStore
	categories *store.CategoryStore
	log        *slog.Logger

	mu        sync.RWMutex
	observers []Observer
}

func NewCoordinator(tasks *store.TaskStore, categories *store.CategoryStore, log *slog.Logger, observers ...Observer) *Coordinator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		tasks:      tasks,
		categories: categories,
		log:        log,
		observers:  observers,
	}
}

func (c *Coordinator) Subscribe(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Coordinator) Tasks() *store.TaskStore {
	return c.tasks
}

func (c *Coordinator) Categories() *store.CategoryStore {
	return c.categories
}

// Counts recomputes the badge counts from the task store.
func (c *Coordinator) Counts(ctx context.Context) (Counts, error) {
	all, err := c.tasks.ListAll(ctx)
	if err != nil {
		return Counts{}, err
	}
	return CountTasks(all), nil
}

func (c *Coordinator) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := c.requireCategory(ctx, in.CategoryID); err != nil {
		return model.Task{}, err
	}
	task, err := c.tasks.Create(ctx, in)
	if err != nil {
		return model.Task{}, c.fail("create task", err)
	}
	c.log.Debug("task created", "task_id", task.ID, "category_id", task.CategoryID)
	c.recount(ctx)
	return task, nil
}

func (c *Coordinator) EditTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if patch.CategoryID != nil {
		if err := c.requireCategory(ctx, *patch.CategoryID); err != nil {
			return model.Task{}, err
		}
	}
	task, err := c.tasks.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, c.fail("edit task", err)
	}
	c.log.Debug("task edited", "task_id", id)
	c.recount(ctx)
	return task, nil
}

func (c *Coordinator) DeleteTask(ctx context.Context, id int64) error {
	if err := c.tasks.Delete(ctx, id); err != nil {
		return c.fail("delete task", err)
	}
	c.log.Debug("task deleted", "task_id", id)
	c.recount(ctx)
	return nil
}

func (c *Coordinator) ToggleComplete(ctx context.Context, id int64) (model.Task, error) {
	return c.transition(ctx, "toggle task", id, c.tasks.ToggleComplete)
}

func (c *Coordinator) Archive(ctx context.Context, id int64) (model.Task, error) {
	return c.transition(ctx, "archive task", id, c.tasks.Archive)
}

func (c *Coordinator) Restore(ctx context.Context, id int64) (model.Task, error) {
	return c.transition(ctx, "restore task", id, c.tasks.Restore)
}

// BulkResult reports the outcome of a bulk action. Applied counts the ids
// that changed; Missing counts ids that no longer exist.
type BulkResult struct {
	Applied int
	Missing int
}

// BulkRestore restores every selected task concurrently. Missing ids are
// tolerated. The selection is cleared only when no id failed; on failure it
// is left exactly as it was.
func (c *Coordinator) BulkRestore(ctx context.Context, sel *Selection) (BulkResult, error) {
	ids := sel.IDs()
	if len(ids) == 0 {
		return BulkResult{}, nil
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Go(func() {
			_, errs[i] = c.tasks.Restore(ctx, id)
		})
	}
	wg.Wait()

	var res BulkResult
	var failed []error
	for i, err := range errs {
		switch {
		case err == nil:
			res.Applied++
		case errors.Is(err, model.ErrNotFound):
			res.Missing++
		default:
			failed = append(failed, fmt.Errorf("task %d: %w", ids[i], err))
		}
	}
	if res.Applied > 0 {
		c.recount(ctx)
	}
	if len(failed) > 0 {
		err := errors.Join(failed...)
		c.log.Error("bulk restore failed", "selected", len(ids), "failed", len(failed), "err", err)
		return res, err
	}
	c.log.Debug("bulk restore", "restored", res.Applied, "missing", res.Missing)
	sel.Clear()
	return res, nil
}

// BulkDelete removes every selected task in one store call. Missing ids are
// skipped. The selection is cleared only on success.
func (c *Coordinator) BulkDelete(ctx context.Context, sel *Selection) (BulkResult, error) {
	ids := sel.IDs()
	if len(ids) == 0 {
		return BulkResult{}, nil
	}
	removed, err := c.tasks.BulkDelete(ctx, ids)
	if err != nil {
		c.recount(ctx)
		return BulkResult{}, c.fail("bulk delete", err)
	}
	res := BulkResult{Applied: removed, Missing: len(ids) - removed}
	c.log.Debug("bulk delete", "removed", res.Applied, "missing", res.Missing)
	sel.Clear()
	c.recount(ctx)
	return res, nil
}

func (c *Coordinator) CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	cat, err := c.categories.Create(ctx, in)
	if err != nil {
		return model.Category{}, c.fail("create category", err)
	}
	c.log.Debug("category created", "category_id", cat.ID)
	c.recount(ctx)
	return cat, nil
}

func (c *Coordinator) UpdateCategory(ctx context.Context, id int64, patch model.CategoryPatch) (model.Category, error) {
	cat, err := c.categories.Update(ctx, id, patch)
	if err != nil {
		return model.Category{}, c.fail("update category", err)
	}
	c.log.Debug("category updated", "category_id", id)
	return cat, nil
}

// DeleteCategory refuses to delete a category that still owns tasks,
// archived ones included.
func (c *Coordinator) DeleteCategory(ctx context.Context, id int64) error {
	owned, err := c.tasks.ListByCategory(ctx, id)
	if err != nil {
		return c.fail("delete category", err)
	}
	if len(owned) > 0 {
		return fmt.Errorf("%w: %d tasks", model.ErrCategoryInUse, len(owned))
	}
	if err := c.categories.Delete(ctx, id); err != nil {
		return c.fail("delete category", err)
	}
	c.log.Debug("category deleted", "category_id", id)
	c.recount(ctx)
	return nil
}

func (c *Coordinator) ReorderCategories(ctx context.Context, ids []int64) error {
	if err := c.categories.Reorder(ctx, ids); err != nil {
		return c.fail("reorder categories", err)
	}
	return nil
}

func (c *Coordinator) ReorderTasks(ctx context.Context, ids []int64) error {
	if err := c.tasks.Reorder(ctx, ids); err != nil {
		return c.fail("reorder tasks", err)
	}
	return nil
}

func (c *Coordinator) transition(ctx context.Context, op string, id int64, fn func(context.Context, int64) (model.Task, error)) (model.Task, error) {
	task, err := fn(ctx, id)
	if err != nil {
		return model.Task{}, c.fail(op, err)
	}
	c.log.Debug(op, "task_id", id, "completed", task.Completed, "archived", task.Archived)
	c.recount(ctx)
	return task, nil
}

func (c *Coordinator) requireCategory(ctx context.Context, id int64) error {
	if _, err := c.categories.Get(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: %d", model.ErrUnknownCategory, id)
		}
		return c.fail("lookup category", err)
	}
	return nil
}

func (c *Coordinator) fail(op string, err error) error {
	if errors.Is(err, model.ErrTransport) {
		c.log.Error(op+" failed", "err", err)
	}
	return err
}

// recount never fails the mutation that triggered it.
func (c *Coordinator) recount(ctx context.Context) {
	counts, err := c.Counts(ctx)
	if err != nil {
		c.log.Warn("recount failed", "err", err)
		return
	}
	c.mu.RLock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.RUnlock()
	for _, o := range observers {
		c.notify(o, counts)
	}
}

func (c *Coordinator) notify(o Observer, counts Counts) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("counts observer panicked", "panic", r)
		}
	}()
	counts.ByCategory = maps.Clone(counts.ByCategory)
	o.OnCountsChanged(counts)
}
