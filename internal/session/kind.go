package session

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which session is counting down.
type Kind int

const (
	Work Kind = iota
	ShortRest
	LongRest
)

func (k Kind) String() string {
	switch k {
	case Work:
		return "Work"
	case ShortRest:
		return "ShortRest"
	case LongRest:
		return "LongRest"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the String form or the short CLI aliases (work, short, long).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work", "focus":
		return Work, nil
	case "shortrest", "short":
		return ShortRest, nil
	case "longrest", "long":
		return LongRest, nil
	}
	return Work, fmt.Errorf("unknown session kind %q", s)
}

// Durations holds the length of each session kind. It is fixed for an engine's lifetime.
type Durations struct {
	Work      time.Duration
	ShortRest time.Duration
	LongRest  time.Duration
}

// For returns the configured duration of k.
func (d Durations) For(k Kind) time.Duration {
	switch k {
	case ShortRest:
		return d.ShortRest
	case LongRest:
		return d.LongRest
	default:
		return d.Work
	}
}

// Validate reports the first non-positive duration as a *ConfigError.
func (d Durations) Validate() error {
	for _, k := range []Kind{Work, ShortRest, LongRest} {
		if v := d.For(k); v <= 0 {
			return &ConfigError{Kind: k, Duration: v}
		}
	}
	return nil
}

// ConfigError is returned by New when a session duration is not positive.
type ConfigError struct {
	Kind     Kind
	Duration time.Duration
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s duration %s: must be positive", e.Kind, e.Duration)
}
