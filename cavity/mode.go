package cavity

import (
	"math"
	"math/cmplx"

	"github.com/sarchlab/llrf/rf"
)

// ModeParams are the physical parameters of a cavity mode, from which the
// coupling coefficients and the bandwidth of a Spec are derived.
type ModeParams struct {
	RoverQ        float64 // shunt impedance over Q, ohms
	FreqOffset    float64 // resonance offset from the RF reference, Hz
	LOAngularFreq float64 // RF reference angular frequency, rad/s
	Q0            float64 // intrinsic quality factor
	QDrive        float64 // drive port external Q
	QProbe        float64 // probe port external Q
	PhaseReverse  float64 // cell to reverse ADC phase, rad
	PhaseProbe    float64 // cell to probe ADC phase, rad
	TimeStep      float64
}

// DefaultModeParams returns an LCLS-II style 1.3 GHz TESLA cavity sampled at
// 1 MHz.
func DefaultModeParams() ModeParams {
	return ModeParams{
		RoverQ:        1036,
		LOAngularFreq: 2 * math.Pi * 1.3e9,
		Q0:            2.7e10,
		QDrive:        4e7,
		QProbe:        2e9,
		TimeStep:      1e-6,
	}
}

// Validate reports the first parameter that makes the mode unusable.
func (p ModeParams) Validate() error {
	positives := []struct {
		name string
		v    float64
	}{
		{"R/Q", p.RoverQ},
		{"LO angular frequency", p.LOAngularFreq},
		{"Q0", p.Q0},
		{"drive Q", p.QDrive},
		{"probe Q", p.QProbe},
		{"mode time step", p.TimeStep},
	}
	for _, f := range positives {
		if err := rf.CheckPositive(f.name, f.v); err != nil {
			return err
		}
	}

	if err := rf.CheckFinite("frequency offset", p.FreqOffset); err != nil {
		return err
	}

	if err := rf.CheckFinite("reverse phase", p.PhaseReverse); err != nil {
		return err
	}

	return rf.CheckFinite("probe phase", p.PhaseProbe)
}

// LoadedQ combines the intrinsic and the port quality factors.
func (p ModeParams) LoadedQ() float64 {
	return 1 / (1/p.Q0 + 1/p.QDrive + 1/p.QProbe)
}

// Spec derives the step coefficients of the mode.
func (p ModeParams) Spec() (Spec, error) {
	if err := p.Validate(); err != nil {
		return Spec{}, err
	}

	omegaMode := p.LOAngularFreq + 2*math.Pi*p.FreqOffset

	s := Spec{
		DecayRate: omegaMode / (2 * p.LoadedQ()),
		Detuning:  2 * math.Pi * p.FreqOffset,
		KDrive:    2 * math.Sqrt(p.QDrive*p.RoverQ),
		KForward:  1,
		KProbe: cmplx.Exp(complex(0, p.PhaseProbe)) /
			complex(math.Sqrt(p.QProbe*p.RoverQ), 0),
		KReverse: cmplx.Exp(complex(0, p.PhaseReverse)) /
			complex(math.Sqrt(p.QDrive*p.RoverQ), 0),
		TimeStep: p.TimeStep,
	}

	return s, s.Validate()
}
