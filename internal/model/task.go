package model

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Weight ranks priorities for display: high=3, medium=2, low=1.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// Status is the completion constraint used by filters. The zero value means
// "any status".
type Status string

const (
	StatusAny       Status = ""
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAny, StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  int64      `json:"categoryId"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
	Order       int64      `json:"order"`
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	out := t
	out.DueDate = cloneTime(t.DueDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	return out
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: task created_at is required", ErrValidation)
	}
	if t.Completed && t.CompletedAt == nil {
		return fmt.Errorf("%w: completed_at is required when task is completed", ErrValidation)
	}
	if !t.Completed && t.CompletedAt != nil {
		return fmt.Errorf("%w: completed_at must be nil when task is pending", ErrValidation)
	}
	return nil
}

// SetCompleted moves t to the given completion state keeping CompletedAt
// non-nil exactly when Completed is true. An existing timestamp is kept when
// the task is already completed.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	if !completed {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		ts := now.UTC()
		t.CompletedAt = &ts
	}
}

// TaskInput carries the user-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	CategoryID  int64
	Priority    Priority
	DueDate     *time.Time
}

// Normalize trims the title and fills the default priority. The description
// is kept verbatim.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	in.DueDate = cloneTime(in.DueDate)
	return in
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if in.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if in.Priority != "" && !in.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	return nil
}

// TaskPatch lists the fields an update may change. Nil pointers are left
// untouched; ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string
	Description  *string
	CategoryID   *int64
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
	Archived     *bool
	Order        *int64
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.CategoryID == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Completed == nil && p.Archived == nil && p.Order == nil
}

func (p TaskPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}

// Apply merges p onto t. Id and CreatedAt never change.
func (p TaskPatch) Apply(t Task, now time.Time) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		out.DueDate = cloneTime(p.DueDate)
	}
	if p.Completed != nil {
		out.SetCompleted(*p.Completed, now)
	}
	if p.Archived != nil {
		out.Archived = *p.Archived
	}
	if p.Order != nil {
		out.Order = *p.Order
	}
	return out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	tm := *v
	return &tm
}
