package cavity

// State is the running memory of a cavity mode. Probe, Reverse, Forward and
// Voltage are the outputs of the latest step.
type State struct {
	Probe   complex128
	Reverse complex128
	Forward complex128
	Voltage complex128

	// Field is the mode voltage in the frame rotating with the detuning.
	Field complex128

	// Phase is the detuning phase accumulated so far, wrapped to [-π, π].
	Phase float64
}

// Reset clears all fields and the filter memory.
func (s *State) Reset() {
	*s = State{}
}

// StoredEnergy returns the squared accelerating voltage, which is
// proportional to the energy stored in the mode.
func (s *State) StoredEnergy() float64 {
	re, im := real(s.Voltage), imag(s.Voltage)
	return re*re + im*im
}
