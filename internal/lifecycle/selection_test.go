package lifecycle

import (
	"slices"
	"testing"
)

func TestSelectionToggleKeepsOrder(t *testing.T) {
	s := NewSelection()
	for _, id := range []int64{3, 1, 2} {
		if !s.Toggle(id) {
			t.Fatalf("expected %d selected", id)
		}
	}
	if s.Toggle(1) {
		t.Fatalf("expected 1 deselected")
	}
	if got := s.IDs(); !slices.Equal(got, []int64{3, 2}) {
		t.Fatalf("unexpected ids: %v", got)
	}
	if !s.Contains(2) || s.Contains(1) {
		t.Fatalf("unexpected membership")
	}
}

func TestSelectionSelectAllToggles(t *testing.T) {
	s := NewSelection(5)
	visible := []int64{1, 2, 5}

	s.SelectAll(visible)
	if got := s.IDs(); !slices.Equal(got, visible) {
		t.Fatalf("expected all visible selected, got %v", got)
	}
	s.SelectAll(visible)
	if s.Len() != 0 {
		t.Fatalf("expected selection cleared, got %v", s.IDs())
	}
}

func TestSelectionIDsIsCopy(t *testing.T) {
	s := NewSelection(1, 2, 2)
	ids := s.IDs()
	ids[0] = 99
	if got := s.IDs(); !slices.Equal(got, []int64{1, 2}) {
		t.Fatalf("selection mutated through copy: %v", got)
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty selection")
	}
}

func TestCountTasks(t *testing.T) {
	c := CountTasks(nil)
	if c.Active != 0 || c.Archived != 0 || c.Category(1) != 0 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}
