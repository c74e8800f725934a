// Package notify moves count notifications off the mutation path and onto a
// buffered channel that an event loop can drain at its own pace.
package notify

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/taskflow/internal/lifecycle"
)

var ErrStopped = errors.New("notify: broadcaster stopped")

type Event struct {
	Seq    uint64
	At     time.Time
	Counts lifecycle.Counts
}

// Broadcaster implements lifecycle.Observer. OnCountsChanged never blocks:
// events queue internally and are forwarded to C() by a single loop. When
// the consumer falls behind, queued events are coalesced into the newest one,
// and an event waiting on a full buffer is superseded by newer counts.
type Broadcaster struct {
	mu        sync.Mutex
	queue     []Event
	out       chan Event
	wakeup    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	seq       uint64
	dropped   uint64
	coalesced uint64
	log       *slog.Logger
	now       func() time.Time
}

func NewBroadcaster(bufferSize int, log *slog.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		log:    log,
		now:    time.Now,
	}
}

func (b *Broadcaster) C() <-chan Event {
	return b.out
}

func (b *Broadcaster) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	go b.loop()
}

func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.started || b.stopped {
		b.stopped = true
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.stopCh)
	b.mu.Unlock()
	<-b.doneCh
}

func (b *Broadcaster) OnCountsChanged(c lifecycle.Counts) {
	if err := b.Publish(c); err != nil {
		b.log.Debug("counts notification ignored", "err", err)
	}
}

// Publish queues counts for delivery.
func (b *Broadcaster) Publish(c lifecycle.Counts) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrStopped
	}
	b.seq++
	b.queue = append(b.queue, Event{Seq: b.seq, At: b.now().UTC(), Counts: c})
	b.signalWakeup()
	return nil
}

// Dropped reports how many events were superseded while waiting on a full
// out buffer.
func (b *Broadcaster) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// loop holds at most one undelivered event. While the out buffer is full the
// held event is replaced by newer ones, so the consumer always catches up to
// the latest counts once it reads again.
func (b *Broadcaster) loop() {
	defer close(b.doneCh)
	defer close(b.out)

	var (
		held    Event
		holding bool
	)
	for {
		var out chan<- Event
		if holding {
			out = b.out
		}
		select {
		case <-b.wakeup:
			ev, ok := b.drain()
			if !ok {
				continue
			}
			if holding {
				n := atomic.AddUint64(&b.dropped, 1)
				b.log.Debug("superseded undelivered counts", "seq", held.Seq, "dropped_total", n)
			}
			held, holding = ev, true
		case out <- held:
			holding = false
		case <-b.stopCh:
			return
		}
	}
}

// drain empties the queue. Counts are snapshots, so only the newest queued
// event is forwarded.
func (b *Broadcaster) drain() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Event{}, false
	}
	latest := b.queue[len(b.queue)-1]
	atomic.AddUint64(&b.coalesced, uint64(len(b.queue)-1))
	b.queue = b.queue[:0]
	return latest, true
}

// Coalesced reports how many queued events were superseded before delivery.
func (b *Broadcaster) Coalesced() uint64 {
	return atomic.LoadUint64(&b.coalesced)
}

func (b *Broadcaster) signalWakeup() {
	select {
	case b.wakeup <- struct{}{}:
	default:
	}
}
