// Package matcher decides which configured action fires for a battery
// reading.
//
// The matcher remembers the index of the last discharge action it fired.
// That action is not fired again until a different index matches or the
// battery is seen charging. The state is keyed on the index, not on the
// charge, so a charge that rises above every threshold without a charging
// reading and then falls back into the same action stays suppressed.
package matcher

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
)

// none marks that no discharge action is armed as fired.
const none = -1

// Reason explains a Decision.
type Reason int

const (
	// NoMatch means no action applies to the reading.
	NoMatch Reason = iota
	// AlreadyFired means the matched action fired on an earlier tick.
	AlreadyFired
	// Fire means Decision.Action must be executed.
	Fire
	// Reset means the battery is charging and the state was cleared.
	Reset
)

func (r Reason) String() string {
	switch r {
	case NoMatch:
		return "no-match"
	case AlreadyFired:
		return "already-fired"
	case Fire:
		return "fire"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}

// Decision is the result of one tick.
type Decision struct {
	Reason Reason
	// Action is set when Reason is Fire.
	Action *action.Action
	// Index is the position of the matched discharge action in the set, or
	// -1 for no match and for the AC action.
	Index int
}

// Fired reports whether the caller must execute Action.
func (d Decision) Fired() bool {
	return d.Reason == Fire && d.Action != nil
}

// Matcher is the per-process threshold state machine. It is not safe for
// concurrent use; it is driven by a single poll loop.
type Matcher struct {
	actions  *action.Set
	acAction *action.Action

	lastFired int
}

// New returns a matcher in the armed state. acAction is optional.
func New(actions *action.Set, acAction *action.Action) *Matcher {
	return &Matcher{
		actions:   actions,
		acAction:  acAction,
		lastFired: none,
	}
}

// Update runs one tick for the given charge fraction and charging flag.
func (m *Matcher) Update(charge float64, charging bool) Decision {
	if charging {
		return m.updateCharging(charge)
	}

	i := m.actions.FirstMatch(charge)
	if i == none {
		return Decision{Reason: NoMatch, Index: none}
	}

	if i == m.lastFired {
		logrus.WithFields(logrus.Fields{
			"charge": charge,
			"index":  i,
		}).Trace("action already fired, skipping")
		return Decision{Reason: AlreadyFired, Index: i}
	}

	m.lastFired = i
	a := m.actions.At(i)
	return Decision{Reason: Fire, Action: &a, Index: i}
}

func (m *Matcher) updateCharging(charge float64) Decision {
	wasFired := m.lastFired != none
	m.lastFired = none

	if !wasFired {
		return Decision{Reason: NoMatch, Index: none}
	}

	logrus.WithField("charge", charge).Debug("battery is charging, re-arming actions")

	if m.acAction != nil && m.acAction.Matches(charge) {
		a := *m.acAction
		return Decision{Reason: Fire, Action: &a, Index: none}
	}
	return Decision{Reason: Reset, Index: none}
}

// LastFired returns the index of the last fired discharge action.
func (m *Matcher) LastFired() (int, bool) {
	return m.lastFired, m.lastFired != none
}

// Reset returns the matcher to the armed state.
func (m *Matcher) Reset() {
	m.lastFired = none
}
