package tracing

import (
	"github.com/sarchlab/llrf/station"
)

// SpecTable is the name of the table that holds one configuration row per
// station.
const SpecTable = "station_spec"

// SpecEntry is the flattened configuration of a station.
type SpecEntry struct {
	Location      string
	TimeStep      float64
	Kp            float64
	Ki            float64
	Polarity      int
	OutSat        float64
	CtrlHarshness float64
	AmpTimeConst  float64
	AmpHarshness  float64
	AmpFullScale  float64
	DecayRate     float64
	Detuning      float64
	KDrive        float64
	KForward      float64
	KProbeRe      float64
	KProbeIm      float64
	KReverseRe    float64
	KReverseIm    float64
	ProbePhase    float64
	DrivePhase    float64
}

// MakeSpecEntry flattens a station configuration into a row.
func MakeSpecEntry(location string, s station.Spec) SpecEntry {
	return SpecEntry{
		Location:      location,
		TimeStep:      s.TimeStep(),
		Kp:            s.Controller.Kp,
		Ki:            s.Controller.Ki,
		Polarity:      int(s.Controller.Polarity),
		OutSat:        s.Controller.OutSat,
		CtrlHarshness: s.Controller.Harshness,
		AmpTimeConst:  s.Amplifier.TimeConstant,
		AmpHarshness:  s.Amplifier.Harshness,
		AmpFullScale:  s.Amplifier.FullScale,
		DecayRate:     s.Cavity.DecayRate,
		Detuning:      s.Cavity.Detuning,
		KDrive:        s.Cavity.KDrive,
		KForward:      s.Cavity.KForward,
		KProbeRe:      real(s.Cavity.KProbe),
		KProbeIm:      imag(s.Cavity.KProbe),
		KReverseRe:    real(s.Cavity.KReverse),
		KReverseIm:    imag(s.Cavity.KReverse),
		ProbePhase:    s.ProbePhase,
		DrivePhase:    s.DrivePhase,
	}
}
