package ixgbe

import (
	"errors"
	"fmt"
)

// Error kinds specific to the ixgbe family (the shared ones —
// NotPrivileged, HugepagesExhausted, etc. — live in osmem; pool
// exhaustion, double-free, and wrong-pool conditions are mempool-level
// programmer errors signaled by return value, not by error).
var (
	// ErrQueueWithoutPool is raised, as a panic, when RxBatch is called on
	// a queue with no associated MemoryPool — a programmer error.
	ErrQueueWithoutPool = errors.New("ixgbe: rx queue has no associated memory pool")
)

// InitTimeoutError reports that a bounded register poll during
// initialization never observed the expected bit pattern.
type InitTimeoutError struct {
	Register string
	Mask     uint32
}

func (e *InitTimeoutError) Error() string {
	return fmt.Sprintf("ixgbe: timed out waiting for %s mask %#x", e.Register, e.Mask)
}
