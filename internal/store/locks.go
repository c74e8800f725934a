package store

import (
	"slices"
	"sync"
)

// recordLocks serializes mutations per record id. Locks are created on demand
// and dropped once no goroutine holds or waits for them.
type recordLocks struct {
	mu    sync.Mutex
	locks map[int64]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[int64]*recordLock)}
}

func (l *recordLocks) lock(id int64) func() {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &recordLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// lockAll acquires every id in ascending order so concurrent batches cannot
// deadlock against each other.
func (l *recordLocks) lockAll(ids []int64) func() {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	unlocks := make([]func(), 0, len(sorted))
	for _, id := range sorted {
		unlocks = append(unlocks, l.lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func (l *recordLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
