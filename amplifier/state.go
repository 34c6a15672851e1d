package amplifier

// State is the running memory of an amplifier.
type State struct {
	Filtered complex128
	Output   complex128
}

// Reset returns the amplifier to rest.
func (s *State) Reset() {
	*s = State{}
}
