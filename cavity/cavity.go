package cavity

import (
	"math"

	"github.com/sarchlab/llrf/rf"
)

// Step advances the mode by one time step. The forward drive is in sqrt(W)
// and the disturbance is an externally computed voltage (beam loading or
// similar) added to the drive term.
//
// The resonance offset is integrated into a phase. The drive is rotated into
// the mode frame, filtered by the single pole with unity DC gain and rotated
// back, so that a constant drive settles to the detuned steady state.
func Step(
	forward, disturbance complex128,
	spec *Spec,
	state *State,
) (probe, reverse, fwd complex128) {
	state.Phase = rf.WrapPhase(state.Phase + spec.Detuning*spec.TimeStep)

	in := forward*complex(spec.KDrive, 0) + disturbance
	in = rf.PhaseShift(in, -state.Phase)

	a := poleFactor(spec)
	state.Field = complex(a, 0)*state.Field + complex(1-a, 0)*in

	state.Voltage = rf.PhaseShift(state.Field, state.Phase)
	state.Probe = state.Voltage * spec.KProbe
	state.Reverse = state.Voltage*spec.KReverse - forward
	state.Forward = forward * complex(spec.KForward, 0)

	return state.Probe, state.Reverse, state.Forward
}

// poleFactor is the exact single-step decay of the mode, exp(-w_f*dt).
func poleFactor(spec *Spec) float64 {
	return math.Exp(-spec.DecayRate * spec.TimeStep)
}

// SteadyStateVoltage returns the voltage a constant forward drive and
// disturbance settle to.
func SteadyStateVoltage(forward, disturbance complex128, spec *Spec) complex128 {
	a := poleFactor(spec)
	in := forward*complex(spec.KDrive, 0) + disturbance
	rot := rf.PhaseShift(complex(a, 0), spec.Detuning*spec.TimeStep)

	return complex(1-a, 0) * in / (1 - rot)
}

// SteadyStateProbe returns the probe value a constant forward drive settles
// to without disturbance.
func SteadyStateProbe(forward complex128, spec *Spec) complex128 {
	return SteadyStateVoltage(forward, 0, spec) * spec.KProbe
}
