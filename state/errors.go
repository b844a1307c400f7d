package state

import "errors"

// ErrCapacityExhausted is returned only by NewGlobalState, when the
// requested tree heights cannot be represented by the allocator's
// uint32 indices. Every other capacity failure (account count, order
// slot wraparound) happens mid-run against a workload-sized tree and is
// a fatal assertion instead, per the error taxonomy: a live allocator
// running out of room is a sizing bug, not a recoverable condition.
var ErrCapacityExhausted = errors.New("state: requested tree height exceeds addressable capacity")
