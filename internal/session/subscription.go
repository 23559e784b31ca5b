package session

import (
	"log"
	"sync"
)

// Subscription delivers snapshots in emission order on its own channel.
// Each subscription buffers up to the engine's Buffer snapshots; past that
// the oldest undelivered snapshot is dropped so the tick driver never waits.
type Subscription struct {
	id     uint64
	limit  int
	out    chan Snapshot
	notify chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	queue   []Snapshot
	dropped uint64
	closed  bool
	aborted bool
}

func newSubscription(id uint64, limit int) *Subscription {
	sub := &Subscription{
		id:     id,
		limit:  limit,
		out:    make(chan Snapshot),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// ID returns the handle used in log lines.
func (s *Subscription) ID() uint64 { return s.id }

// Snapshots is closed after Unsubscribe, or once the queue is drained after
// Engine.Close.
func (s *Subscription) Snapshots() <-chan Snapshot { return s.out }

// Dropped reports how many snapshots were discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) push(snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, snap)
	if len(s.queue) > s.limit {
		s.queue = s.queue[1:]
		s.dropped++
		if s.dropped == 1 || s.dropped%100 == 0 {
			log.Printf("Warning: subscriber %d is falling behind, %d snapshots dropped", s.id, s.dropped)
		}
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// finish stops accepting snapshots. Queued ones are still delivered before
// the channel closes.
func (s *Subscription) finish() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// close stops delivery at once and discards the queue.
func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	aborted := s.aborted
	s.aborted = true
	s.mu.Unlock()
	if !aborted {
		close(s.done)
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			ended := s.closed
			s.mu.Unlock()
			if ended {
				return
			}
			select {
			case <-s.done:
				return
			case <-s.notify:
			}
			continue
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
