// Package session implements the Pomodoro session timer: a countdown that
// advances once per tick, rolls over into the next session when it expires and
// publishes a Snapshot for every change it makes.
package session

import (
	"log"
	"sync"
	"time"
)

const (
	// DefaultTickInterval is the wall-clock spacing between ticks.
	DefaultTickInterval = time.Second
	// DefaultBuffer is the per-subscriber queue capacity.
	DefaultBuffer = 256

	// step is how much countdown a single tick consumes.
	step = time.Second
)

// Options tunes an Engine. The zero value is usable.
type Options struct {
	TickInterval time.Duration
	Buffer       int
	// NewTicker replaces time.NewTicker, mainly for tests.
	NewTicker func(time.Duration) Ticker
	// OnTransition runs on its own goroutine, in order, after every session rollover.
	// It may call back into the engine.
	OnTransition func(Transition)
}

// Engine owns the session state. All methods are safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	durations Durations
	options   Options

	kind      Kind
	remaining time.Duration
	completed int
	running   bool

	seq       uint64
	last      Snapshot
	subs      map[uint64]*Subscription
	nextSubID uint64

	stopCh chan struct{}
	doneCh chan struct{}
	closed bool
}

// New validates durations and returns a paused engine positioned at the start
// of a work session.
func New(durations Durations, options Options) (*Engine, error) {
	if err := durations.Validate(); err != nil {
		return nil, err
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	if options.Buffer <= 0 {
		options.Buffer = DefaultBuffer
	}
	if options.NewTicker == nil {
		options.NewTicker = newRealTicker
	}

	e := &Engine{
		durations: durations,
		options:   options,
		kind:      Work,
		remaining: durations.Work,
		subs:      make(map[uint64]*Subscription),
	}

	e.mu.Lock()
	e.emitLocked(CauseInitial, Work)
	var callbacks *Subscription
	if options.OnTransition != nil {
		callbacks = e.subscribeLocked()
	}
	e.mu.Unlock()

	if callbacks != nil {
		go e.dispatchTransitions(callbacks, options.OnTransition)
	}
	return e, nil
}

// Durations returns the configured session lengths.
func (e *Engine) Durations() Durations {
	return e.durations
}

// Start begins or resumes the countdown. Calling it while running does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.running {
		return
	}
	e.running = true
	if e.stopCh == nil {
		e.startDriverLocked()
	}
	e.emitLocked(CauseStart, e.kind)
}

// Pause stops the countdown, keeping the remaining time and session kind.
// Once it returns no further tick will change the state.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.closed || !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	done := e.stopDriverLocked()
	e.emitLocked(CausePause, e.kind)
	e.mu.Unlock()

	waitDriver(done)
}

// Reset stops the countdown and returns to a fresh work session with no
// completed sessions. It does not restart the countdown.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.running = false
	done := e.stopDriverLocked()
	e.kind = Work
	e.completed = 0
	e.remaining = e.durations.Work
	e.emitLocked(CauseReset, Work)
	e.mu.Unlock()

	waitDriver(done)
}

// Close stops the tick driver and ends every subscription. Snapshots already
// queued are still delivered, then the channels close. The engine ignores all
// calls afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.running = false
	done := e.stopDriverLocked()
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()

	waitDriver(done)
	for _, sub := range subs {
		sub.finish()
	}
}

// Snapshot returns the most recently published snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Subscribe registers an observer. The current snapshot is delivered first.
// On a closed engine the returned subscription is already closed.
func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		sub := newSubscription(0, e.options.Buffer)
		sub.close()
		return sub
	}
	return e.subscribeLocked()
}

// Unsubscribe stops delivery and closes the subscription channel.
func (e *Engine) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	e.mu.Lock()
	if e.subs != nil {
		delete(e.subs, sub.id)
	}
	e.mu.Unlock()
	sub.close()
}

func (e *Engine) subscribeLocked() *Subscription {
	e.nextSubID++
	sub := newSubscription(e.nextSubID, e.options.Buffer)
	sub.push(e.last)
	e.subs[sub.id] = sub
	return sub
}

func (e *Engine) startDriverLocked() {
	stop := make(chan struct{})
	done := make(chan struct{})
	e.stopCh = stop
	e.doneCh = done
	ticker := e.options.NewTicker(e.options.TickInterval)
	go e.run(ticker, stop, done)
}

func (e *Engine) stopDriverLocked() chan struct{} {
	if e.stopCh == nil {
		return nil
	}
	close(e.stopCh)
	done := e.doneCh
	e.stopCh = nil
	e.doneCh = nil
	return done
}

func waitDriver(done chan struct{}) {
	if done != nil {
		<-done
	}
}

func (e *Engine) run(ticker Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			e.tick(stop)
		}
	}
}

func (e *Engine) tick(stop chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// A tick that raced with Pause/Reset belongs to a retired driver.
	if e.stopCh != stop || !e.running {
		return
	}

	e.remaining -= step
	if e.remaining < 0 {
		e.remaining = 0
	}
	e.emitLocked(CauseTick, e.kind)
	if e.remaining > 0 {
		return
	}

	from := e.kind
	e.kind, e.completed = Next(e.kind, e.completed)
	e.remaining = e.durations.For(e.kind)
	e.emitLocked(CauseTransition, from)
}

// emitLocked publishes the current state. from is only meaningful for transitions.
func (e *Engine) emitLocked(cause Cause, from Kind) {
	e.seq++
	e.last = Snapshot{
		Seq:           e.seq,
		Cause:         cause,
		Kind:          e.kind,
		From:          from,
		Remaining:     e.remaining,
		Clock:         FormatClock(e.remaining),
		Running:       e.running,
		CompletedWork: e.completed,
		At:            time.Now(),
	}
	for _, sub := range e.subs {
		sub.push(e.last)
	}
}

func (e *Engine) dispatchTransitions(sub *Subscription, fn func(Transition)) {
	for snap := range sub.Snapshots() {
		if snap.Cause != CauseTransition {
			continue
		}
		callTransition(fn, Transition{From: snap.From, To: snap.Kind, CompletedWork: snap.CompletedWork})
	}
}

func callTransition(fn func(Transition), t Transition) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: transition callback panicked (%s -> %s): %v", t.From, t.To, r)
		}
	}()
	fn(t)
}
