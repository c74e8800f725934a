package query

import (
	"testing"
	"time"

	"github.com/sandeepkv93/taskflow/internal/model"
)

var today = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := today.AddDate(0, 0, offset)
	return &d
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortForDisplayPriorityThenDue(t *testing.T) {
	a := model.Task{ID: 1, Title: "A", Priority: model.PriorityHigh, Order: 1}
	b := model.Task{ID: 2, Title: "B", Priority: model.PriorityMedium, DueDate: day(0), Order: 2}
	c := model.Task{ID: 3, Title: "C", Priority: model.PriorityHigh, DueDate: day(1), Order: 3}

	got := titles(SortForDisplay([]model.Task{a, b, c}))
	if want := []string{"C", "A", "B"}; !equalStrings(got, want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}

	doneAt := today
	a.Completed = true
	a.CompletedAt = &doneAt
	got = titles(SortForDisplay([]model.Task{a, b, c}))
	if want := []string{"C", "B", "A"}; !equalStrings(got, want) {
		t.Fatalf("completed task should sort last: got %v want %v", got, want)
	}
}

func TestSortForDisplayHighBeatsLowRegardlessOfDue(t *testing.T) {
	cases := []struct {
		name    string
		highDue *time.Time
		lowDue  *time.Time
	}{
		{"both undated", nil, nil},
		{"low dated earlier", day(5), day(-3)},
		{"only low dated", nil, day(0)},
		{"only high dated", day(2), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			low := model.Task{ID: 1, Title: "low", Priority: model.PriorityLow, DueDate: tc.lowDue, Order: 1}
			high := model.Task{ID: 2, Title: "high", Priority: model.PriorityHigh, DueDate: tc.highDue, Order: 2}
			got := SortForDisplay([]model.Task{low, high})
			if got[0].Title != "high" {
				t.Fatalf("expected high first, got %v", titles(got))
			}
		})
	}
}

func TestSortForDisplayCompletedIgnorePriorityAndDue(t *testing.T) {
	stamp := today
	x := model.Task{ID: 1, Title: "x", Priority: model.PriorityLow, Completed: true, CompletedAt: &stamp, Order: 1}
	y := model.Task{ID: 2, Title: "y", Priority: model.PriorityHigh, DueDate: day(-1), Completed: true, CompletedAt: &stamp, Order: 2}
	p := model.Task{ID: 3, Title: "p", Priority: model.PriorityLow, Order: 3}

	got := titles(SortForDisplay([]model.Task{y, p, x}))
	if want := []string{"p", "x", "y"}; !equalStrings(got, want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}
}

func TestSortForDisplayDeterministicTies(t *testing.T) {
	in := []model.Task{
		{ID: 4, Title: "d", Priority: model.PriorityMedium, Order: 2},
		{ID: 3, Title: "c", Priority: model.PriorityMedium, Order: 2},
		{ID: 2, Title: "b", Priority: model.PriorityMedium, Order: 1},
	}
	got := titles(SortForDisplay(in))
	if want := []string{"b", "c", "d"}; !equalStrings(got, want) {
		t.Fatalf("unexpected tie order: got %v want %v", got, want)
	}
	if in[0].Title != "d" {
		t.Fatalf("input slice was reordered: %v", titles(in))
	}
}

func TestSortForDisplayCompletedAlwaysAfterPending(t *testing.T) {
	stamp := today
	var tasks []model.Task
	priorities := []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
	for i := 0; i < 12; i++ {
		task := model.Task{ID: int64(i + 1), Title: "t", Priority: priorities[i%3], Order: int64(12 - i)}
		if i%2 == 0 {
			task.Completed = true
			task.CompletedAt = &stamp
		}
		if i%4 == 1 {
			task.DueDate = day(i)
		}
		tasks = append(tasks, task)
	}
	got := SortForDisplay(tasks)
	seenCompleted := false
	for _, task := range got {
		if task.Completed {
			seenCompleted = true
			continue
		}
		if seenCompleted {
			t.Fatalf("pending task %d after a completed one", task.ID)
		}
	}
}
