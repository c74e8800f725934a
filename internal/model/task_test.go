package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:         1,
		Title:      "Implement model validation",
		CategoryID: 1,
		Priority:   PriorityHigh,
		CreatedAt:  now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateCompletedRequiresCompletedAt(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:         1,
		Title:      "Done task",
		CategoryID: 1,
		Priority:   PriorityMedium,
		Completed:  true,
		CreatedAt:  now,
	}
	err := task.Validate()
	if err == nil || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}

	task.Completed = false
	task.CompletedAt = &now
	if err := task.Validate(); err == nil {
		t.Fatal("expected error for pending task with completed_at")
	}
}

func TestTaskValidateInvalidFields(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{Title: " ", CategoryID: 1, Priority: PriorityLow, CreatedAt: now}
	if err := task.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got: %v", err)
	}

	task.Title = "ok"
	task.CategoryID = 0
	if err := task.Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got: %v", err)
	}

	task.CategoryID = 2
	task.Priority = Priority("urgent")
	err := task.Validate()
	if !errors.Is(err, ErrInvalidPriority) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrInvalidPriority wrapping ErrValidation, got: %v", err)
	}
}

func TestSetCompletedKeepsTimestampInvariant(t *testing.T) {
	first := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	var task Task
	task.SetCompleted(true, first)
	if !task.Completed || task.CompletedAt == nil || !task.CompletedAt.Equal(first) {
		t.Fatalf("unexpected completion state: %+v", task)
	}

	task.SetCompleted(true, later)
	if !task.CompletedAt.Equal(first) {
		t.Fatalf("expected existing completed_at kept, got %v", task.CompletedAt)
	}

	task.SetCompleted(false, later)
	if task.Completed || task.CompletedAt != nil {
		t.Fatalf("expected cleared completion, got %+v", task)
	}
}

func TestTaskPatchApply(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	base := Task{ID: 7, Title: "old", CategoryID: 1, Priority: PriorityLow, DueDate: &due, CreatedAt: now, Order: 3}

	title := "  new title "
	high := PriorityHigh
	done := true
	got := TaskPatch{Title: &title, Priority: &high, Completed: &done, ClearDueDate: true}.Apply(base, now)

	if got.ID != 7 || !got.CreatedAt.Equal(now) || got.Order != 3 {
		t.Fatalf("identity fields changed: %+v", got)
	}
	if got.Title != "new title" || got.Priority != PriorityHigh {
		t.Fatalf("unexpected merged fields: %+v", got)
	}
	if got.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", got.DueDate)
	}
	if !got.Completed || got.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", got)
	}
	if base.DueDate == nil || base.Title != "old" {
		t.Fatalf("apply mutated the source task: %+v", base)
	}
}

func TestTaskPatchValidate(t *testing.T) {
	if err := (TaskPatch{}).Validate(); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
	blank := ""
	if err := (TaskPatch{Title: &blank}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	bad := Priority("x")
	if err := (TaskPatch{Priority: &bad}).Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestParsePriorityAndStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"High", PriorityHigh, true},
		{" low ", PriorityLow, true},
		{"medium", PriorityMedium, true},
		{"critical", "", false},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParsePriority(%q) = %q, %v", tc.in, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidPriority) {
			t.Fatalf("ParsePriority(%q) expected error, got %v", tc.in, err)
		}
	}

	if s, err := ParseStatus("Completed"); err != nil || s != StatusCompleted {
		t.Fatalf("unexpected status parse: %q %v", s, err)
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPriorityWeight(t *testing.T) {
	if !(PriorityHigh.Weight() > PriorityMedium.Weight() && PriorityMedium.Weight() > PriorityLow.Weight()) {
		t.Fatal("expected high > medium > low")
	}
}

func TestTransportWrapsOnlyUnclassifiedErrors(t *testing.T) {
	if err := Transport("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := Transport("get", ErrNotFound); !errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransport) {
		t.Fatalf("expected not found passthrough, got %v", err)
	}
	raw := errors.New("connection refused")
	err := Transport("list tasks", raw)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, raw) {
		t.Fatalf("expected transport wrapping, got %v", err)
	}
}
