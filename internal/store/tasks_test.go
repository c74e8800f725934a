package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

func TestCreateAssignsDefaults(t *testing.T) {
	f := setup(t)
	cat := f.category(t, "Work")

	task := f.task(t, model.TaskInput{Title: "  Ship release ", CategoryID: cat.ID})
	if task.ID <= 0 || task.Title != "Ship release" {
		t.Fatalf("unexpected created task: %+v", task)
	}
	if task.Priority != model.PriorityMedium || task.Completed || task.CompletedAt != nil || task.Archived {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if !task.CreatedAt.Equal(f.clock.Now()) {
		t.Fatalf("expected created_at from clock, got %v", task.CreatedAt)
	}

	next := f.task(t, model.TaskInput{Title: "Second", CategoryID: cat.ID})
	if next.ID <= task.ID || next.Order <= task.Order {
		t.Fatalf("expected monotonic id/order: first=%+v next=%+v", task, next)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	due := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	in := model.TaskInput{
		Title:       "Review plan",
		Description: "Check the rollout steps",
		CategoryID:  cat.ID,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
	}
	created := f.task(t, in)

	got, err := f.tasks.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != in.Title || got.Description != in.Description || got.CategoryID != in.CategoryID ||
		got.Priority != in.Priority || got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.ID != created.ID || got.Order != created.Order || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("system fields differ: created=%+v got=%+v", created, got)
	}
}

func TestDescriptionStoredVerbatim(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	desc := "    go test ./...\n\nrun it\n"
	created := f.task(t, model.TaskInput{Title: "  Run checks  ", Description: desc, CategoryID: cat.ID})
	if created.Title != "Run checks" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}

	got, err := f.tasks.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != desc {
		t.Fatalf("description changed on create: %q", got.Description)
	}

	edited := "  indented\n"
	updated, err := f.tasks.Update(ctx, created.ID, model.TaskPatch{Description: &edited})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != edited {
		t.Fatalf("description changed on update: %q", updated.Description)
	}
}

func TestCreateValidationCommitsNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")

	cases := []struct {
		name string
		in   model.TaskInput
		want error
	}{
		{"empty title", model.TaskInput{Title: "   ", CategoryID: cat.ID}, model.ErrEmptyTitle},
		{"missing category", model.TaskInput{Title: "x"}, model.ErrMissingCategory},
		{"bad priority", model.TaskInput{Title: "x", CategoryID: cat.ID, Priority: "urgent"}, model.ErrInvalidPriority},
		{"unknown category", model.TaskInput{Title: "x", CategoryID: 999}, model.ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tasks.Create(ctx, tc.in)
			if !errors.Is(err, tc.want) || !errors.Is(err, model.ErrValidation) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	all, err := f.tasks.ListAll(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected no records after failed creates, got %d (%v)", len(all), err)
	}
}

func TestUpdateCompletionTimestamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	done := true
	updated, err := f.tasks.Update(ctx, task.ID, model.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	assertCompletionInvariant(t, updated)
	firstStamp := *updated.CompletedAt

	f.clock.Advance(time.Hour)
	title := "renamed"
	updated, err = f.tasks.Update(ctx, task.ID, model.TaskPatch{Title: &title, Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CompletedAt.Equal(firstStamp) {
		t.Fatalf("expected completed_at kept, got %v want %v", updated.CompletedAt, firstStamp)
	}

	pending := false
	updated, err = f.tasks.Update(ctx, task.ID, model.TaskPatch{Completed: &pending})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	assertCompletionInvariant(t, updated)
	if updated.Completed {
		t.Fatalf("expected pending task, got %+v", updated)
	}
}

func TestUpdateNotFoundAndInvalidPatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	title := "x"
	if _, err := f.tasks.Update(ctx, 404, model.TaskPatch{Title: &title}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.tasks.Update(ctx, 404, model.TaskPatch{}); !errors.Is(err, model.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
	if _, err := f.tasks.ToggleComplete(ctx, 404); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on toggle, got %v", err)
	}
	if err := f.tasks.Delete(ctx, 404); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestToggleCompleteFlipsAndKeepsInvariant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	toggled, err := f.tasks.ToggleComplete(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.CompletedAt == nil || !toggled.CompletedAt.Equal(f.clock.Now()) {
		t.Fatalf("expected completed with timestamp, got %+v", toggled)
	}
	toggled, err = f.tasks.ToggleComplete(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Completed || toggled.CompletedAt != nil {
		t.Fatalf("expected pending without timestamp, got %+v", toggled)
	}
}

func TestArchiveRestoreProjections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	x := f.task(t, model.TaskInput{Title: "x", CategoryID: cat.ID})
	y := f.task(t, model.TaskInput{Title: "y", CategoryID: cat.ID})
	if _, err := f.tasks.ToggleComplete(ctx, x.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	archived, err := f.tasks.Archive(ctx, x.ID)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !archived.Archived || !archived.Completed {
		t.Fatalf("archive must not alter completion: %+v", archived)
	}

	active, _ := f.tasks.ListActive(ctx)
	arch, _ := f.tasks.ListArchived(ctx)
	if ids(active)[x.ID] || !ids(active)[y.ID] || !ids(arch)[x.ID] {
		t.Fatalf("unexpected projections after archive: active=%v archived=%v", ids(active), ids(arch))
	}

	if _, err := f.tasks.Restore(ctx, x.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	active, _ = f.tasks.ListActive(ctx)
	arch, _ = f.tasks.ListArchived(ctx)
	if !ids(active)[x.ID] || ids(arch)[x.ID] {
		t.Fatalf("unexpected projections after restore: active=%v archived=%v", ids(active), ids(arch))
	}
}

func TestBulkDeleteSkipsMissing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	x := f.task(t, model.TaskInput{Title: "x", CategoryID: cat.ID})
	f.task(t, model.TaskInput{Title: "y", CategoryID: cat.ID})

	before, _ := f.tasks.ListAll(ctx)
	removed, err := f.tasks.BulkDelete(ctx, []int64{x.ID, 9999})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	after, _ := f.tasks.ListAll(ctx)
	if removed != 1 || len(after) != len(before)-1 || ids(after)[x.ID] {
		t.Fatalf("unexpected bulk delete result: removed=%d before=%d after=%d", removed, len(before), len(after))
	}
}

func TestListByCategoryAndSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	work := f.category(t, "Work")
	home := f.category(t, "Home")
	a := f.task(t, model.TaskInput{Title: "Quarterly REPORT", CategoryID: work.ID})
	b := f.task(t, model.TaskInput{Title: "Groceries", Description: "milk and report paper", CategoryID: home.ID})
	c := f.task(t, model.TaskInput{Title: "Vacuum", CategoryID: home.ID})
	if _, err := f.tasks.Archive(ctx, c.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	inHome, err := f.tasks.ListByCategory(ctx, home.ID)
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(inHome) != 2 || !ids(inHome)[b.ID] || !ids(inHome)[c.ID] {
		t.Fatalf("unexpected category projection: %v", ids(inHome))
	}
	if _, err := f.tasks.ListByCategory(ctx, 0); !errors.Is(err, model.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}

	found, err := f.tasks.Search(ctx, "  report ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 || !ids(found)[a.ID] || !ids(found)[b.ID] {
		t.Fatalf("unexpected search result: %v", ids(found))
	}
	all, _ := f.tasks.Search(ctx, "   ")
	if len(all) != 3 {
		t.Fatalf("expected blank search to return all 3 tasks, got %d", len(all))
	}
}

func TestListsReturnSnapshots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	list, _ := f.tasks.ListAll(ctx)
	list[0].Title = "changed"
	got, _ := f.tasks.Get(ctx, task.ID)
	if got.Title != "a" {
		t.Fatalf("list returned live reference: %+v", got)
	}
}

func TestReorderTasks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	a := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})
	b := f.task(t, model.TaskInput{Title: "b", CategoryID: cat.ID})

	if err := f.tasks.Reorder(ctx, []int64{b.ID, 777, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	gotA, _ := f.tasks.Get(ctx, a.ID)
	gotB, _ := f.tasks.Get(ctx, b.ID)
	if gotB.Order != 1 || gotA.Order != 3 {
		t.Fatalf("unexpected orders: a=%d b=%d", gotA.Order, gotB.Order)
	}
}

func TestTransportFailureLeavesStateUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	f.repo.setFailing(true)
	if _, err := f.tasks.ToggleComplete(ctx, task.ID); !errors.Is(err, model.ErrTransport) || !errors.Is(err, errBackendDown) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if _, err := f.tasks.BulkDelete(ctx, []int64{task.ID}); !errors.Is(err, model.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if _, err := f.tasks.Create(ctx, model.TaskInput{Title: "b", CategoryID: cat.ID}); !errors.Is(err, model.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	f.repo.setFailing(false)

	got, err := f.tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed || got.CompletedAt != nil {
		t.Fatalf("state changed despite failure: %+v", got)
	}
	all, _ := f.tasks.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
}

func TestConcurrentTogglesSerializePerRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.tasks.ToggleComplete(ctx, task.ID); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed {
		t.Fatalf("expected an even number of toggles to leave the task pending, got %+v", got)
	}
	assertCompletionInvariant(t, got)
	if size := f.tasks.locks.size(); size != 0 {
		t.Fatalf("expected record locks released, %d left", size)
	}
}

func TestConcurrentFieldUpdatesDoNotClobber(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cat := f.category(t, "Work")
	task := f.task(t, model.TaskInput{Title: "a", CategoryID: cat.ID})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		high := model.PriorityHigh
		if _, err := f.tasks.Update(ctx, task.ID, model.TaskPatch{Priority: &high}); err != nil {
			t.Errorf("update priority: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := f.tasks.Archive(ctx, task.ID); err != nil {
			t.Errorf("archive: %v", err)
		}
	}()
	wg.Wait()

	got, _ := f.tasks.Get(ctx, task.ID)
	if got.Priority != model.PriorityHigh || !got.Archived {
		t.Fatalf("concurrent updates clobbered each other: %+v", got)
	}
}
