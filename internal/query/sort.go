// Package query holds the pure display helpers: ordering, filtering and
// due-date descriptions over task snapshots.
package query

import (
	"cmp"
	"slices"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

// SortForDisplay returns a sorted copy of tasks. Pending tasks come first,
// ordered by priority weight, then by due date (dated before undated). Every
// remaining tie, completed tasks included, falls back to Order then ID.
func SortForDisplay(tasks []model.Task) []model.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, CompareForDisplay)
	return out
}

// CompareForDisplay is the total order used by SortForDisplay.
func CompareForDisplay(a, b model.Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	if !a.Completed {
		if c := cmp.Compare(b.Priority.Weight(), a.Priority.Weight()); c != 0 {
			return c
		}
		if c := compareDue(a.DueDate, b.DueDate); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareDue orders dated tasks before undated ones, earlier dates first.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
