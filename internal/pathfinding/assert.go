//go:build !navdebug

package pathfinding

import "log/slog"

// assertEnabled reports a query against a disabled facade. Build with the
// navdebug tag to turn it into a panic.
func assertEnabled(op string) {
	slog.Warn("pathfinding query while disabled", "op", op)
}
