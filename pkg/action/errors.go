package action

import "errors"

var (
	// ErrInvalidAction is returned when an action breaks an invariant,
	// e.g. a threshold outside [0, 1].
	ErrInvalidAction = errors.New("invalid action")
)
