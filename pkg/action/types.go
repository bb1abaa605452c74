package action

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects the comparison an action uses against the current charge.
type Kind int

const (
	// Discharge actions fire while on battery when charge < threshold.
	Discharge Kind = iota
	// AC actions fire while charging when charge >= threshold.
	AC
)

func (k Kind) String() string {
	switch k {
	case Discharge:
		return "discharge"
	case AC:
		return "ac"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Matches reports whether charge satisfies threshold for this kind.
func (k Kind) Matches(threshold, charge float64) bool {
	switch k {
	case Discharge:
		return charge < threshold
	case AC:
		return charge >= threshold
	default:
		return false
	}
}

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	Low Urgency = iota
	Normal
	Critical
)

func (u Urgency) String() string {
	switch u {
	case Low:
		return "Low"
	case Normal:
		return "Normal"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Urgency(%d)", byte(u))
	}
}

// ParseUrgency parses "low", "normal" or "critical", ignoring case.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "normal", "medium":
		return Normal, nil
	case "critical", "high":
		return Critical, nil
	default:
		return Normal, fmt.Errorf("unknown urgency %q, expected one of Low, Normal, Critical", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urgency) UnmarshalText(b []byte) error {
	v, err := ParseUrgency(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

type timeoutMode int

const (
	timeoutDefault timeoutMode = iota
	timeoutNever
	timeoutAfter
)

// Timeout controls when a notification expires. The zero value uses the
// notification server's default.
type Timeout struct {
	mode   timeoutMode
	millis uint32
}

// TimeoutDefault lets the notification server decide.
func TimeoutDefault() Timeout { return Timeout{mode: timeoutDefault} }

// TimeoutNever keeps the notification until it is dismissed.
func TimeoutNever() Timeout { return Timeout{mode: timeoutNever} }

// TimeoutAfter expires the notification after ms milliseconds.
// A zero duration never expires.
func TimeoutAfter(ms uint32) Timeout {
	if ms == 0 {
		return TimeoutNever()
	}
	return Timeout{mode: timeoutAfter, millis: ms}
}

// TimeoutFromInt maps the config value: 0 never expires, negative values use
// the server default and positive values are milliseconds.
func TimeoutFromInt(v int64) Timeout {
	switch {
	case v < 0:
		return TimeoutDefault()
	case v == 0:
		return TimeoutNever()
	case v > math.MaxUint32:
		return TimeoutAfter(math.MaxUint32)
	default:
		return TimeoutAfter(uint32(v))
	}
}

// IsDefault reports whether the server default is used.
func (t Timeout) IsDefault() bool { return t.mode == timeoutDefault }

// IsNever reports whether the notification never expires.
func (t Timeout) IsNever() bool { return t.mode == timeoutNever }

// Millis returns the expiry in milliseconds, or 0 when not timed.
func (t Timeout) Millis() uint32 {
	if t.mode != timeoutAfter {
		return 0
	}
	return t.millis
}

// ExpireTimeout returns the freedesktop expire_timeout value:
// -1 for the server default, 0 for never, otherwise milliseconds.
func (t Timeout) ExpireTimeout() int32 {
	switch t.mode {
	case timeoutNever:
		return 0
	case timeoutAfter:
		if t.millis > math.MaxInt32 {
			return math.MaxInt32
		}
		return int32(t.millis)
	default:
		return -1
	}
}

func (t Timeout) String() string {
	switch t.mode {
	case timeoutNever:
		return "never"
	case timeoutAfter:
		return fmt.Sprintf("%dms", t.millis)
	default:
		return "default"
	}
}
