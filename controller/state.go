package controller

// State is the running memory of a PI controller.
type State struct {
	Drive      complex128
	Integrator complex128
}

// Reset zeroes the drive and the integrator.
func (s *State) Reset() {
	*s = State{}
}
