// Package controller implements the digital PI controller that closes the RF
// feedback loop around the cavity probe signal.
package controller

import (
	"fmt"

	"github.com/sarchlab/llrf/rf"
)

// Polarity selects the sign of the feedback combination. The drive is
// Polarity * (Kp*err + integrator).
type Polarity int

const (
	// Inverting negates the PI sum. It pairs with negative Kp/Ki settings,
	// which then produce a positive corrective drive for a positive error.
	Inverting Polarity = -1

	// Direct uses the PI sum as is. It pairs with positive Kp/Ki settings.
	Direct Polarity = 1
)

func (p Polarity) String() string {
	switch p {
	case Inverting:
		return "inverting"
	case Direct:
		return "direct"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// Spec is the immutable configuration of a PI controller. SetPoint and
// OpenLoop are the only fields an operator may change between steps.
type Spec struct {
	Kp        float64    // proportional gain
	Ki        float64    // integral gain, in 1/s
	SetPoint  complex128 // target probe value
	OutSat    float64    // drive magnitude ceiling
	Harshness float64    // knee sharpness of the output limiter
	TimeStep  float64    // seconds
	OpenLoop  bool
	Polarity  Polarity
}

// Defaults returns the reference controller settings.
func Defaults() Spec {
	return Spec{
		Kp:        -5.0,
		Ki:        -3.0,
		OutSat:    200,
		Harshness: 20,
		TimeStep:  0.01,
		Polarity:  Inverting,
	}
}

// Validate reports the first parameter that makes the spec unusable.
func (s Spec) Validate() error {
	if err := rf.CheckFinite("kp", s.Kp); err != nil {
		return err
	}

	if err := rf.CheckFinite("ki", s.Ki); err != nil {
		return err
	}

	if err := rf.CheckFiniteComplex("set point", s.SetPoint); err != nil {
		return err
	}

	if err := rf.CheckPositive("output saturation", s.OutSat); err != nil {
		return err
	}

	if err := rf.CheckHarshness(s.Harshness); err != nil {
		return err
	}

	if err := rf.CheckPositive("controller time step", s.TimeStep); err != nil {
		return err
	}

	if s.Polarity != Inverting && s.Polarity != Direct {
		return fmt.Errorf("%w: unknown polarity %d",
			rf.ErrInvalidParameter, int(s.Polarity))
	}

	return nil
}
