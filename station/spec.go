// Package station composes the PI controller, the amplifier and the cavity
// into one RF station and advances the whole feedback loop one time step at a
// time.
package station

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sarchlab/llrf/amplifier"
	"github.com/sarchlab/llrf/cavity"
	"github.com/sarchlab/llrf/controller"
	"github.com/sarchlab/llrf/rf"
)

// Spec is the configuration of a complete RF station.
type Spec struct {
	Controller controller.Spec
	Amplifier  amplifier.Spec
	Cavity     cavity.Spec

	// ProbePhase rotates the measured probe before it is compared with the
	// set point.
	ProbePhase float64
	// DrivePhase rotates the controller drive before it reaches the
	// amplifier.
	DrivePhase float64
}

// Validate checks every part of the station and that all parts advance with
// the same time step.
func (s Spec) Validate() error {
	if err := s.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	if err := s.Amplifier.Validate(); err != nil {
		return fmt.Errorf("amplifier: %w", err)
	}

	if err := s.Cavity.Validate(); err != nil {
		return fmt.Errorf("cavity: %w", err)
	}

	if err := rf.CheckFinite("probe phase", s.ProbePhase); err != nil {
		return err
	}

	if err := rf.CheckFinite("drive phase", s.DrivePhase); err != nil {
		return err
	}

	dt := s.Controller.TimeStep
	if s.Amplifier.TimeStep != dt || s.Cavity.TimeStep != dt {
		return fmt.Errorf(
			"%w: time steps differ (controller %g, amplifier %g, cavity %g)",
			rf.ErrInvalidParameter,
			dt, s.Amplifier.TimeStep, s.Cavity.TimeStep)
	}

	return nil
}

// TimeStep returns the common time step of the station.
func (s Spec) TimeStep() float64 {
	return s.Controller.TimeStep
}

// ReferenceSpec returns a 1.3 GHz station sampled at 1 MHz. The integral
// zero of the controller sits on the cavity pole and the probe phase is
// calibrated out, so the loop behaves as a first order system.
func ReferenceSpec() Spec {
	cav := cavity.Defaults()
	dt := cav.TimeStep

	const kp = -8.0

	return Spec{
		Controller: controller.Spec{
			Kp:        kp,
			Ki:        kp * cav.DecayRate,
			SetPoint:  11.5,
			OutSat:    100,
			Harshness: 20,
			TimeStep:  dt,
			Polarity:  controller.Inverting,
		},
		Amplifier: amplifier.Spec{
			TimeConstant: 2e-6,
			Harshness:    5,
			FullScale:    70,
			TimeStep:     dt,
		},
		Cavity:     cav,
		ProbePhase: -cmplx.Phase(cav.KProbe),
		DrivePhase: 0,
	}
}

// Gain returns the static gain from amplifier output to measured probe.
func (s Spec) Gain() float64 {
	return s.Cavity.KDrive * cmplx.Abs(s.Cavity.KProbe) *
		math.Abs(s.Cavity.KForward)
}
