// Package action describes the threshold rules loaded from the config file.
package action

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// DefaultIcon is the icon used when a notification does not name one.
const DefaultIcon = "battery-caution"

// Notification is the desktop notification shown when an action fires.
// Summary and Body are templates, see package template.
type Notification struct {
	Summary string
	Body    string
	Urgency Urgency
	Icon    string
	Timeout Timeout
}

// Action is one configured threshold rule. Actions are values and are never
// modified after the config is loaded.
type Action struct {
	Kind      Kind
	Threshold float64
	// Command is the argv to execute. The first element is the executable.
	// Nil means no command.
	Command      []string
	Notification *Notification
}

// Matches reports whether the action applies to charge.
func (a Action) Matches(charge float64) bool {
	return a.Kind.Matches(a.Threshold, charge)
}

// HasCommand reports whether a command is configured.
func (a Action) HasCommand() bool {
	return len(a.Command) > 0
}

// HasNotification reports whether a notification is configured.
func (a Action) HasNotification() bool {
	return a.Notification != nil
}

// IsNull reports whether firing the action has no observable effect.
func (a Action) IsNull() bool {
	return !a.HasCommand() && !a.HasNotification()
}

// Validate checks the invariants the matcher relies on.
func (a Action) Validate() error {
	if math.IsNaN(a.Threshold) || a.Threshold < 0 || a.Threshold > 1 {
		return pkgerrors.Wrapf(ErrInvalidAction, "threshold %v must be between 0 and 1", a.Threshold)
	}
	if a.Kind != Discharge && a.Kind != AC {
		return pkgerrors.Wrapf(ErrInvalidAction, "unknown kind %v", a.Kind)
	}
	if a.Command != nil && len(a.Command) == 0 {
		return pkgerrors.Wrap(ErrInvalidAction, "command must not be empty")
	}
	return nil
}

func (a Action) String() string {
	var sb strings.Builder
	op := "<"
	if a.Kind == AC {
		op = ">="
	}
	fmt.Fprintf(&sb, "%s charge %s %d%%", a.Kind, op, int(math.Round(a.Threshold*100)))
	if a.HasCommand() {
		fmt.Fprintf(&sb, " run %q", strings.Join(a.Command, " "))
	}
	if a.HasNotification() {
		fmt.Fprintf(&sb, " notify %q", a.Notification.Summary)
	}
	if a.IsNull() {
		sb.WriteString(" (no effect)")
	}
	return sb.String()
}
