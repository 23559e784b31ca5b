// Package recorder writes the session history: it observes the engine and
// stores one event per start, pause, reset and completed session.
package recorder

import (
	"context"
	"fmt"
	"log"
	"time"

	"chillbox/internal/event"
	"chillbox/internal/session"
	"chillbox/internal/storage"
)

const saveTimeout = 2 * time.Second

type Recorder struct {
	engine *session.Engine
	store  storage.Storage
	sub    *session.Subscription
}

// New subscribes right away so nothing the engine does after New returns is
// missed, even if Run starts later.
func New(engine *session.Engine, store storage.Storage) *Recorder {
	return &Recorder{engine: engine, store: store, sub: engine.Subscribe()}
}

// Run saves events until the engine is closed. Snapshots queued at that
// point are still recorded, so a pause or reset issued right before shutdown
// reaches the store.
func (r *Recorder) Run() {
	defer r.engine.Unsubscribe(r.sub)
	defer log.Println("Recorder stopped.")

	durations := r.engine.Durations()
	for snap := range r.sub.Snapshots() {
		e, record := EventFor(snap, durations)
		if !record {
			continue
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if _, err := r.store.SaveEvent(saveCtx, e); err != nil {
			log.Printf("Error saving event (Type: %s, Tag: %s): %v", e.Type, e.Tag, err)
		}
		cancel()
	}
}

// EventFor maps a snapshot to the history event it implies. Ticks and the
// initial snapshot imply none.
func EventFor(snap session.Snapshot, durations session.Durations) (event.Event, bool) {
	e := event.Event{Timestamp: snap.At, Tag: snap.Kind.String()}
	switch snap.Cause {
	case session.CauseStart:
		e.Type = event.EventTypeSessionStart
		e.Notes = fmt.Sprintf("Remaining %s", snap.Clock)
	case session.CausePause:
		e.Type = event.EventTypeSessionPause
		e.Notes = fmt.Sprintf("Remaining %s", snap.Clock)
	case session.CauseReset:
		e.Type = event.EventTypeSessionReset
	case session.CauseTransition:
		e.Type = event.EventTypeSessionComplete
		e.Tag = snap.From.String()
		e.Value = durations.For(snap.From).Minutes()
		e.Notes = fmt.Sprintf("Completed work sessions %d", snap.CompletedWork)
	default:
		return event.Event{}, false
	}
	return e, true
}
