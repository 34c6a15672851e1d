package sim

import (
	"sync/atomic"

	"github.com/rs/xid"
)

var lastID atomic.Uint64

// NextID returns the next number of a process-wide sequence. Runs that
// schedule the same events therefore number them the same way.
func NextID() uint64 {
	return lastID.Add(1)
}

// UniqueID returns an identifier that does not repeat across processes. It
// names things that outlive a run, such as trace files.
func UniqueID() string {
	return xid.New().String()
}
