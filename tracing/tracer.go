// Package tracing collects the signals of station components while a
// simulation runs.
package tracing

import "github.com/sarchlab/llrf/station"

// A Tracer receives a snapshot after every traced station step.
type Tracer interface {
	TraceStep(location string, snapshot station.Snapshot)
}
