package tracing

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/sarchlab/llrf/station"
)

// ErrorStatsTracer summarizes the feedback error of a station after it has
// settled.
type ErrorStatsTracer struct {
	lock sync.Mutex

	settleTime float64
	count      uint64
	sumSquare  float64
	maxAbs     float64
	last       complex128
}

// NewErrorStatsTracer creates a tracer that ignores steps before settleTime.
func NewErrorStatsTracer(settleTime float64) *ErrorStatsTracer {
	return &ErrorStatsTracer{settleTime: settleTime}
}

// TraceStep accumulates the error of a closed loop step.
func (t *ErrorStatsTracer) TraceStep(_ string, snapshot station.Snapshot) {
	if snapshot.OpenLoop || snapshot.Time < t.settleTime {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	e := cmplx.Abs(snapshot.Error)
	t.count++
	t.sumSquare += e * e
	t.maxAbs = math.Max(t.maxAbs, e)
	t.last = snapshot.Error
}

// Count returns the number of steps accumulated.
func (t *ErrorStatsTracer) Count() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// RMS returns the root mean square error magnitude.
func (t *ErrorStatsTracer) RMS() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return math.Sqrt(t.sumSquare / float64(t.count))
}

// MaxAbs returns the largest error magnitude.
func (t *ErrorStatsTracer) MaxAbs() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxAbs
}

// Last returns the error of the latest accumulated step.
func (t *ErrorStatsTracer) Last() complex128 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.last
}
