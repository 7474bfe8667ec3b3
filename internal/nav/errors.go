package nav

import "errors"

// Reasons a query produced no result. None of them is fatal: callers treat them
// as routine outcomes.
var (
	ErrDisabled       = errors.New("pathfinding disabled")
	ErrUnloaded       = errors.New("pathfinding unloaded")
	ErrUnresolvable   = errors.New("endpoint not on any navigable surface")
	ErrUnreachable    = errors.New("goal unreachable")
	ErrStaleReference = errors.New("stale primitive reference")
)
