package rf

import "math"

// PhaseShift rotates signal by theta radians. The magnitude is unchanged.
func PhaseShift(signal complex128, theta float64) complex128 {
	s, c := math.Sincos(theta)
	return signal * complex(c, s)
}

// WrapPhase maps theta into [-π, π].
func WrapPhase(theta float64) float64 {
	return math.Remainder(theta, 2*math.Pi)
}
