package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/taskflow/internal/lifecycle"
)

func TestBroadcasterDeliversLatestCounts(t *testing.T) {
	b := NewBroadcaster(8, nil)
	b.Start()
	defer b.Stop()

	b.OnCountsChanged(lifecycle.Counts{Active: 3})
	ev := waitEvent(t, b.C(), time.Second)
	if ev.Counts.Active != 3 || ev.Seq != 1 || ev.At.IsZero() {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestBroadcasterDropsWhenConsumerIsSlow(t *testing.T) {
	b := NewBroadcaster(1, nil)
	b.Start()
	defer b.Stop()

	for i := 0; i < 25; i++ {
		if err := b.Publish(lifecycle.Counts{Active: i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	if b.Dropped()+b.Coalesced() == 0 {
		t.Fatalf("expected dropped or coalesced events with no consumer")
	}
}

func TestBroadcasterFullBufferKeepsNewest(t *testing.T) {
	b := NewBroadcaster(1, nil)
	b.Start()
	defer b.Stop()

	if err := b.Publish(lifecycle.Counts{Active: 0}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	for i := 1; i <= 9; i++ {
		if err := b.Publish(lifecycle.Counts{Active: i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	first := waitEvent(t, b.C(), time.Second)
	if first.Counts.Active != 0 {
		t.Fatalf("expected buffered event first, got %+v", first)
	}
	latest := waitEvent(t, b.C(), time.Second)
	if latest.Counts.Active != 9 || latest.Seq != 10 {
		t.Fatalf("expected newest counts after buffer freed, got %+v", latest)
	}
	select {
	case ev := <-b.C():
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroadcasterPublishAfterStop(t *testing.T) {
	b := NewBroadcaster(1, nil)
	b.Start()
	b.Stop()
	if err := b.Publish(lifecycle.Counts{}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, ok := <-b.C(); ok {
		t.Fatalf("expected closed channel after stop")
	}
	b.Stop()
}

func TestBroadcasterConcurrentPublishersEndOnNewest(t *testing.T) {
	b := NewBroadcaster(4096, nil)
	b.Start()
	defer b.Stop()

	const workers = 8
	const perWorker = 200
	total := uint64(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			for i := 0; i < perWorker; i++ {
				if err := b.Publish(lifecycle.Counts{Active: i}); err != nil {
					t.Errorf("publish failed: %v", err)
					return
				}
			}
		})
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	var lastSeq uint64
	for lastSeq < total {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for newest event: last=%d total=%d", lastSeq, total)
		case ev := <-b.C():
			if ev.Seq <= lastSeq {
				t.Fatalf("sequence went backwards: %d after %d", ev.Seq, lastSeq)
			}
			lastSeq = ev.Seq
		}
	}
	if b.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", b.Dropped())
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
