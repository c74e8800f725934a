package lifecycle

import (
	"slices"
	"sync"
)

// Selection is the set of task ids picked for a bulk action. IDs are kept
// in the order they were selected.
type Selection struct {
	mu  sync.Mutex
	ids []int64
}

func NewSelection(ids ...int64) *Selection {
	s := &Selection{}
	for _, id := range ids {
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle adds or removes id and reports whether it is now selected.
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// SelectAll selects every id in visible. When all of them are already
// selected the selection is cleared instead.
func (s *Selection) SelectAll(visible []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(visible) > 0 && len(s.ids) == len(visible) && containsAll(s.ids, visible) {
		s.ids = nil
		return
	}
	s.ids = s.ids[:0]
	for _, id := range visible {
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

func (s *Selection) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

func containsAll(have, want []int64) bool {
	for _, id := range want {
		if !slices.Contains(have, id) {
			return false
		}
	}
	return true
}
