package session

import (
	"fmt"
	"time"
)

// Cause names the mutation that produced a snapshot.
type Cause string

const (
	CauseInitial    Cause = "initial"
	CauseStart      Cause = "start"
	CausePause      Cause = "pause"
	CauseReset      Cause = "reset"
	CauseTick       Cause = "tick"
	CauseTransition Cause = "transition"
)

// Snapshot is an immutable view of the engine state. From is the session
// that just expired when Cause is CauseTransition; otherwise it equals Kind.
type Snapshot struct {
	Seq           uint64
	Cause         Cause
	Kind          Kind
	From          Kind
	Remaining     time.Duration
	Clock         string
	Running       bool
	CompletedWork int
	At            time.Time
}

// FormatClock renders d as MM:SS. Minutes are not wrapped at 60.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
