package sim

import (
	"log"
	"math"
)

// Freq is a tick rate in Hz.
type Freq float64

// Frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// FreqOfTimeStep returns the tick rate of a fixed time step in seconds.
func FreqOfTimeStep(timeStep float64) Freq {
	if !(timeStep > 0) || math.IsInf(timeStep, 1) {
		log.Panicf("invalid time step %g", timeStep)
	}

	return Freq(1 / timeStep)
}

// Period returns the time between two ticks.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1 / f)
}

// Cycle returns the index of the tick closest to time.
func (f Freq) Cycle(time VTimeInSec) uint64 {
	return uint64(math.Round(float64(time) * float64(f)))
}

// cycles returns time in cycles, rounded to a tenth of a cycle so that
// accumulated float error does not move a boundary time to the wrong side.
func (f Freq) cycles(now VTimeInSec) float64 {
	if math.IsNaN(float64(now)) {
		log.Panic("invalid time")
	}

	return math.Round(float64(now)*10*float64(f)) / 10
}

// ThisTick returns now if it is on a tick boundary and the following
// boundary otherwise.
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Ceil(f.cycles(now)) / float64(f))
}

// NextTick returns the first boundary strictly after now.
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec((math.Floor(f.cycles(now)) + 1) / float64(f))
}
