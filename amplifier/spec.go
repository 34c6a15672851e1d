// Package amplifier models a solid-state RF power amplifier as a single-pole
// low-pass filter followed by a soft saturation at the full-scale output.
package amplifier

import (
	"fmt"

	"github.com/sarchlab/llrf/rf"
)

// Spec is the immutable configuration of an amplifier.
type Spec struct {
	TimeConstant float64 // filter time constant, seconds
	Harshness    float64 // saturation knee sharpness
	FullScale    float64 // output ceiling, sqrt(W)
	TimeStep     float64 // seconds
}

// Defaults returns a 50 sqrt(W) amplifier with a 100 ns response.
func Defaults() Spec {
	return Spec{
		TimeConstant: 1e-7,
		Harshness:    5,
		FullScale:    50,
		TimeStep:     1e-8,
	}
}

// Validate reports the first parameter that makes the spec unusable. The
// smoothing coefficient TimeStep/TimeConstant must not exceed one.
func (s Spec) Validate() error {
	if err := rf.CheckPositive("amplifier time constant", s.TimeConstant); err != nil {
		return err
	}

	if err := rf.CheckHarshness(s.Harshness); err != nil {
		return err
	}

	if err := rf.CheckPositive("full scale", s.FullScale); err != nil {
		return err
	}

	if err := rf.CheckPositive("amplifier time step", s.TimeStep); err != nil {
		return err
	}

	if s.TimeStep > s.TimeConstant {
		return fmt.Errorf(
			"%w: amplifier time step %g exceeds time constant %g",
			rf.ErrInvalidParameter, s.TimeStep, s.TimeConstant)
	}

	return nil
}
