package controller

import "github.com/sarchlab/llrf/rf"

// Error returns the feedback error for a measured probe value.
func Error(setPoint, measured complex128) complex128 {
	return setPoint - measured
}

// Step advances the controller by one time step and returns err.
//
// In open loop the drive follows the set point exactly and the integrator is
// frozen. In closed loop the integrator accumulates Ki*TimeStep*err and the
// drive is the polarity-signed PI sum passed through the soft output limiter.
func Step(err complex128, spec *Spec, state *State) complex128 {
	if spec.OpenLoop {
		state.Drive = spec.SetPoint
		return err
	}

	state.Integrator += complex(spec.Ki*spec.TimeStep, 0) * err

	raw := complex(spec.Kp, 0)*err + state.Integrator
	raw *= complex(float64(spec.Polarity), 0)

	state.Drive = rf.SaturateScaled(raw, spec.OutSat, spec.Harshness)

	return err
}
