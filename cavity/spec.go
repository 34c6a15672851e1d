// Package cavity models the fundamental accelerating mode of a
// superconducting RF cavity as a single-pole resonator seen in the frame of
// the RF reference.
//
// The cavity is driven by the amplifier output on the forward line and
// produces three signals each step: the probe field used for feedback, the
// reverse (reflected) wave and the forward wave as seen by the directional
// coupler.
package cavity

import (
	"fmt"

	"github.com/sarchlab/llrf/rf"
)

// Spec is the immutable configuration of a cavity mode.
type Spec struct {
	// DecayRate is the mode half-bandwidth omega_0/(2*Q_L), in rad/s.
	DecayRate float64

	// Detuning is the resonance offset from the RF reference, in rad/s.
	Detuning float64

	// KDrive converts forward drive (sqrt(W)) into cavity voltage.
	KDrive float64

	// KForward scales the forward drive into forward-coupler units.
	KForward float64

	// KProbe converts cavity voltage into probe units, including the phase
	// between the cavity cell and the probe ADC.
	KProbe complex128

	// KReverse converts cavity voltage into the emitted wave on the drive
	// port, including the phase between the cell and the reverse ADC.
	KReverse complex128

	TimeStep float64
}

// Defaults returns the spec of the reference 1.3 GHz mode.
func Defaults() Spec {
	s, err := DefaultModeParams().Spec()
	if err != nil {
		panic(err)
	}

	return s
}

// Validate reports the first parameter that makes the spec unusable.
func (s Spec) Validate() error {
	if err := rf.CheckPositive("decay rate", s.DecayRate); err != nil {
		return err
	}

	if err := rf.CheckFinite("detuning", s.Detuning); err != nil {
		return err
	}

	if err := rf.CheckPositive("cavity time step", s.TimeStep); err != nil {
		return err
	}

	if err := rf.CheckFinite("forward coupling", s.KForward); err != nil {
		return err
	}

	if err := checkCoupling("drive coupling", complex(s.KDrive, 0)); err != nil {
		return err
	}

	if err := checkCoupling("probe coupling", s.KProbe); err != nil {
		return err
	}

	return checkCoupling("reverse coupling", s.KReverse)
}

func checkCoupling(name string, k complex128) error {
	if err := rf.CheckFiniteComplex(name, k); err != nil {
		return err
	}

	if k == 0 {
		return fmt.Errorf("%w: %s must be non-zero", rf.ErrInvalidParameter, name)
	}

	return nil
}
