package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testDurations = Durations{
	Work:      6 * time.Second,
	ShortRest: 6 * time.Second,
	LongRest:  12 * time.Second,
}

const waitTimeout = 2 * time.Second

type manualTicker struct {
	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.stopOnce.Do(func() { close(m.stopped) })
}

// tickerFactory hands out manual tickers and remembers every one it created.
type tickerFactory struct {
	mu      sync.Mutex
	created []*manualTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	f.created = append(f.created, m)
	return m
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *tickerFactory) latest(t *testing.T) *manualTicker {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.created, "no ticker was created")
	return f.created[len(f.created)-1]
}

// fire blocks until the active driver has taken the tick.
func (f *tickerFactory) fire(t *testing.T) {
	t.Helper()
	select {
	case f.latest(t).ch <- time.Now():
	case <-time.After(waitTimeout):
		t.Fatal("tick was not consumed by a driver")
	}
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *tickerFactory) {
	t.Helper()
	factory := &tickerFactory{}
	opts.NewTicker = factory.New
	engine, err := New(testDurations, opts)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine, factory
}

func recv(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

// advance fires one tick and returns the last snapshot it produced.
func advance(t *testing.T, f *tickerFactory, sub *Subscription) Snapshot {
	t.Helper()
	f.fire(t)
	snap := recv(t, sub)
	require.Equal(t, CauseTick, snap.Cause)
	if snap.Remaining == 0 {
		snap = recv(t, sub)
		require.Equal(t, CauseTransition, snap.Cause)
	}
	return snap
}

func advanceN(t *testing.T, f *tickerFactory, sub *Subscription, n int) Snapshot {
	t.Helper()
	var snap Snapshot
	for i := 0; i < n; i++ {
		snap = advance(t, f, sub)
	}
	return snap
}

// startWatching subscribes, consumes the replayed snapshot and starts the engine.
func startWatching(t *testing.T, engine *Engine) *Subscription {
	t.Helper()
	sub := engine.Subscribe()
	recv(t, sub)
	engine.Start()
	snap := recv(t, sub)
	require.Equal(t, CauseStart, snap.Cause)
	return sub
}
