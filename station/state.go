package station

import (
	"github.com/sarchlab/llrf/amplifier"
	"github.com/sarchlab/llrf/cavity"
	"github.com/sarchlab/llrf/controller"
)

// State is the running memory of a station. It is owned by exactly one loop.
type State struct {
	Controller controller.State
	Amplifier  amplifier.State
	Cavity     cavity.State

	// Error is the feedback error of the latest step.
	Error complex128
}

// Reset returns the station to rest.
func (s *State) Reset() {
	s.Controller.Reset()
	s.Amplifier.Reset()
	s.Cavity.Reset()
	s.Error = 0
}
