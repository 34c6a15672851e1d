package amplifier

import "github.com/sarchlab/llrf/rf"

// Step filters driveIn and returns the saturated RF output.
func Step(driveIn complex128, spec *Spec, state *State) complex128 {
	alpha := complex(spec.TimeStep/spec.TimeConstant, 0)
	state.Filtered += (driveIn - state.Filtered) * alpha

	state.Output = rf.SaturateScaled(
		state.Filtered, spec.FullScale, spec.Harshness)

	return state.Output
}

// SteadyState is the output an amplifier settles to for a constant input.
func SteadyState(driveIn complex128, spec *Spec) complex128 {
	return rf.SaturateScaled(driveIn, spec.FullScale, spec.Harshness)
}
