// Package report summarizes the stored session history for the CLI.
package report

import (
	"fmt"
	"io"
	"time"

	"chillbox/internal/event"
	"chillbox/internal/session"
)

// PomodoroSummary holds the totals over a set of session_complete events.
type PomodoroSummary struct {
	Start, End time.Time

	WorkSessions int
	ShortRests   int
	LongRests    int
	FocusTime    time.Duration
	RestTime     time.Duration
	Interrupts   int // pauses and resets
}

// Efficiency is focus time as a percentage of all completed session time.
func (s PomodoroSummary) Efficiency() float64 {
	total := s.FocusTime + s.RestTime
	if total <= 0 {
		return 0
	}
	return float64(s.FocusTime) / float64(total) * 100
}

// Summarize folds events into a summary. Events it does not understand are
// skipped.
func Summarize(events []event.Event, start, end time.Time) PomodoroSummary {
	s := PomodoroSummary{Start: start, End: end}
	for _, e := range events {
		switch e.Type {
		case event.EventTypeSessionPause, event.EventTypeSessionReset:
			s.Interrupts++
		case event.EventTypeSessionComplete:
			kind, err := session.ParseKind(e.Tag)
			if err != nil {
				continue
			}
			d := time.Duration(e.Value * float64(time.Minute))
			switch kind {
			case session.Work:
				s.WorkSessions++
				s.FocusTime += d
			case session.ShortRest:
				s.ShortRests++
				s.RestTime += d
			case session.LongRest:
				s.LongRests++
				s.RestTime += d
			}
		}
	}
	return s
}

// Write prints a plain-text rendering of s.
func Write(w io.Writer, s PomodoroSummary) error {
	_, err := fmt.Fprintf(w,
		"Pomodoro report %s to %s\n"+
			"  Work sessions:  %d\n"+
			"  Short rests:    %d\n"+
			"  Long rests:     %d\n"+
			"  Focus time:     %s\n"+
			"  Rest time:      %s\n"+
			"  Efficiency:     %.1f%%\n"+
			"  Interruptions:  %d\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"),
		s.WorkSessions, s.ShortRests, s.LongRests,
		FormatDurationHuman(s.FocusTime), FormatDurationHuman(s.RestTime),
		s.Efficiency(), s.Interrupts)
	return err
}

func FormatDurationHuman(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
