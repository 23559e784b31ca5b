package ipc

import "chillbox/internal/session"

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Command Names (Constants) ---

const (
	CmdStart  = "start"
	CmdPause  = "pause"
	CmdReset  = "reset"
	CmdStatus = "status"
	CmdWatch  = "watch" // Streams one Response per snapshot until the client hangs up
	CmdPing   = "ping"
)

// --- Status Response Data ---

// SnapshotData is the wire form of session.Snapshot, used by status and watch.
type SnapshotData struct {
	Seq           uint64  `json:"seq"`
	Cause         string  `json:"cause"`
	Kind          string  `json:"kind"`
	Clock         string  `json:"clock"`
	RemainingSecs float64 `json:"remaining_secs"`
	Running       bool    `json:"running"`
	CompletedWork int     `json:"completed_work"`
}

// FromSnapshot converts an engine snapshot to its wire form.
func FromSnapshot(s session.Snapshot) SnapshotData {
	return SnapshotData{
		Seq:           s.Seq,
		Cause:         string(s.Cause),
		Kind:          s.Kind.String(),
		Clock:         s.Clock,
		RemainingSecs: s.Remaining.Seconds(),
		Running:       s.Running,
		CompletedWork: s.CompletedWork,
	}
}
