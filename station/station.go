package station

import (
	"github.com/sarchlab/llrf/amplifier"
	"github.com/sarchlab/llrf/cavity"
	"github.com/sarchlab/llrf/controller"
	"github.com/sarchlab/llrf/rf"
)

// Step runs one iteration of the feedback loop and returns the cavity
// voltage.
//
// The controller only sees the probe of the previous step, so actuation lags
// measurement by one time step.
func Step(disturbance complex128, spec *Spec, state *State) complex128 {
	measured := rf.PhaseShift(state.Cavity.Probe, spec.ProbePhase)
	state.Error = controller.Error(spec.Controller.SetPoint, measured)

	controller.Step(state.Error, &spec.Controller, &state.Controller)

	drive := rf.PhaseShift(state.Controller.Drive, spec.DrivePhase)
	forward := amplifier.Step(drive, &spec.Amplifier, &state.Amplifier)

	cavity.Step(forward, disturbance, &spec.Cavity, &state.Cavity)

	return state.Cavity.Voltage
}

// Measured returns the probe as the controller sees it.
func Measured(spec *Spec, state *State) complex128 {
	return rf.PhaseShift(state.Cavity.Probe, spec.ProbePhase)
}
