package reactive

import "sync/atomic"

var globalIDCounter uint64

// nextID returns a process-unique identifier for a reactive value.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
