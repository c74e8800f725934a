package query

import (
	"strings"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

// Filters narrows a task list. Zero values impose no constraint.
type Filters struct {
	Priority model.Priority
	Status   model.Status
	// DueDate matches by calendar day in DueDate's location.
	DueDate *time.Time
}

func (f Filters) IsZero() bool {
	return f.Priority == "" && f.Status == model.StatusAny && f.DueDate == nil
}

func (f Filters) Validate() error {
	if f.Priority != "" && !f.Priority.IsValid() {
		return model.ErrInvalidPriority
	}
	if !f.Status.IsValid() {
		return model.ErrInvalidStatus
	}
	return nil
}

// Filter keeps tasks matching the text query and every active filter. A blank
// query matches all tasks. Input order is preserved.
func Filter(tasks []model.Task, query string, filters Filters) []model.Task {
	term := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if term != "" && !MatchesText(t, term) {
			continue
		}
		if filters.Priority != "" && t.Priority != filters.Priority {
			continue
		}
		switch filters.Status {
		case model.StatusCompleted:
			if !t.Completed {
				continue
			}
		case model.StatusPending:
			if t.Completed {
				continue
			}
		}
		if filters.DueDate != nil {
			if t.DueDate == nil || !SameDay(*t.DueDate, *filters.DueDate) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// MatchesText reports whether the lowercased term occurs in the title or
// description.
func MatchesText(t model.Task, term string) bool {
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

// SameDay compares calendar dates, reading a in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
