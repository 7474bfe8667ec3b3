//go:build navdebug

package pathfinding

import "fmt"

// assertEnabled panics in navdebug builds: querying a disabled facade is a caller bug.
func assertEnabled(op string) {
	panic(fmt.Sprintf("pathfinding: %s called while pathfinding is disabled", op))
}
