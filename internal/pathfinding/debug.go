package pathfinding

import "sync/atomic"

var debugLoggingEnabled atomic.Bool

// EnableDebugLogging switches the per-tick and per-path debug logs of the
// facade, its smart paths and the sim loop. navsim turns it on for log_level debug.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled guards debug logs on hot paths, where building the attributes
// costs more than the check.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
