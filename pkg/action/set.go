package action

import (
	"sort"

	pkgerrors "github.com/pkg/errors"
)

// Set is an immutable list of discharge actions sorted by ascending
// threshold, so the first match while scanning is the most severe one.
type Set struct {
	actions []Action
}

// NewSet validates actions and returns them sorted by threshold. Actions with
// equal thresholds keep their configured order.
func NewSet(actions []Action) (*Set, error) {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)

	for i, a := range sorted {
		if a.Kind != Discharge {
			return nil, pkgerrors.Wrapf(ErrInvalidAction, "action %d: kind %s is not allowed in a discharge set", i, a.Kind)
		}
		if err := a.Validate(); err != nil {
			return nil, pkgerrors.Wrapf(err, "action %d", i)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	return &Set{actions: sorted}, nil
}

// Len returns the number of actions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.actions)
}

// At returns the i-th action in ascending threshold order.
func (s *Set) At(i int) Action {
	return s.actions[i]
}

// All returns a copy of the actions in ascending threshold order.
func (s *Set) All() []Action {
	if s == nil {
		return nil
	}
	ret := make([]Action, len(s.actions))
	copy(ret, s.actions)
	return ret
}

// FirstMatch returns the index of the first action matching charge, or -1.
func (s *Set) FirstMatch(charge float64) int {
	for i := 0; i < s.Len(); i++ {
		if s.actions[i].Matches(charge) {
			return i
		}
	}
	return -1
}
