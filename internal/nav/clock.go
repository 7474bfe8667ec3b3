package nav

import "sync/atomic"

// Timestamp marks a planning cycle. Larger is newer.
type Timestamp int64

// Clock is a monotonically increasing timestamp source.
// Topology changes record Current(); planning cycles take Next(), which is
// strictly greater than every change recorded before it.
type Clock struct {
	now atomic.Int64
}

// Current returns the latest timestamp without advancing.
func (c *Clock) Current() Timestamp {
	return Timestamp(c.now.Load())
}

// Next advances the clock and returns the new timestamp.
func (c *Clock) Next() Timestamp {
	return Timestamp(c.now.Add(1))
}

// IDAllocator hands out primitive and owner identifiers.
type IDAllocator struct {
	next atomic.Uint64
}

// NextID returns a fresh primitive ID (never zero).
func (a *IDAllocator) NextID() ID {
	return ID(a.next.Add(1))
}

// NextOwnerID returns a fresh owner identifier (never zero).
func (a *IDAllocator) NextOwnerID() uint64 {
	return a.next.Add(1)
}
