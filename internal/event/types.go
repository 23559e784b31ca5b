package event

import "time"

type EventType string

const (
	EventTypeSessionStart    EventType = "session_start"
	EventTypeSessionPause    EventType = "session_pause"
	EventTypeSessionReset    EventType = "session_reset"
	EventTypeSessionComplete EventType = "session_complete"
	EventTypeAppStart        EventType = "app_start"
	EventTypeAppStop         EventType = "app_stop"
)

// Event structure to store in DB
type Event struct {
	ID        int64     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	Type      EventType `db:"type"`
	Value     float64   `db:"value"` // Minutes, for session_complete
	Tag       string    `db:"tag"`   // Session kind the event refers to
	Notes     string    `db:"notes"`
}
