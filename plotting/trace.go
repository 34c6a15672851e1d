// Package plotting turns recorded station traces into figures.
package plotting

import (
	"context"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/tracing"
)

// Couplings are the cavity coupling factors a trace was recorded with.
type Couplings struct {
	KDrive   float64
	KForward float64
	KProbe   complex128
	KReverse complex128
}

// CouplingsOf extracts the couplings from a configuration row.
func CouplingsOf(s tracing.SpecEntry) Couplings {
	return Couplings{
		KDrive:   s.KDrive,
		KForward: s.KForward,
		KProbe:   complex(s.KProbeRe, s.KProbeIm),
		KReverse: complex(s.KReverseRe, s.KReverseIm),
	}
}

// Trace holds the signals of one station over time.
type Trace struct {
	Location string
	Time     []float64
	SetPoint []complex128
	Error    []complex128
	OpenLoop []bool
	Drive    []complex128
	Forward  []complex128
	Reverse  []complex128
	Probe    []complex128

	// Couplings is nil when the configuration of the station is unknown.
	Couplings *Couplings
}

// Len returns the number of samples.
func (t *Trace) Len() int {
	return len(t.Time)
}

// Append adds one recorded row.
func (t *Trace) Append(e tracing.StepEntry) {
	t.Time = append(t.Time, e.Time)
	t.SetPoint = append(t.SetPoint, complex(e.SetPointRe, e.SetPointIm))
	t.Error = append(t.Error, complex(e.ErrorRe, e.ErrorIm))
	t.OpenLoop = append(t.OpenLoop, e.OpenLoop)
	t.Drive = append(t.Drive, complex(e.DriveRe, e.DriveIm))
	t.Forward = append(t.Forward, complex(e.ForwardRe, e.ForwardIm))
	t.Reverse = append(t.Reverse, complex(e.ReverseRe, e.ReverseIm))
	t.Probe = append(t.Probe, complex(e.ProbeRe, e.ProbeIm))
}

// LoadTrace reads the trace of one station from a recorded database.
func LoadTrace(
	ctx context.Context,
	reader datarecording.DataReader,
	location string,
) (Trace, error) {
	entries, _, err := datarecording.QueryAs[tracing.StepEntry](
		ctx, reader, tracing.TraceTable,
		datarecording.QueryParams{
			Where:   "Location = ?",
			Args:    []any{location},
			OrderBy: "Step ASC",
		})
	if err != nil {
		return Trace{}, fmt.Errorf("load trace of %s: %w", location, err)
	}

	if len(entries) == 0 {
		return Trace{}, fmt.Errorf("no trace recorded for %s", location)
	}

	t := Trace{Location: location}
	for _, e := range entries {
		t.Append(e)
	}

	specs, _, err := datarecording.QueryAs[tracing.SpecEntry](
		ctx, reader, tracing.SpecTable,
		datarecording.QueryParams{
			Where: "Location = ?",
			Args:  []any{location},
		})
	if err != nil {
		return Trace{}, fmt.Errorf("load spec of %s: %w", location, err)
	}

	if len(specs) > 0 {
		c := CouplingsOf(specs[0])
		t.Couplings = &c
	}

	return t, nil
}

// Locations lists the stations that have a configuration row.
func Locations(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]string, error) {
	specs, _, err := datarecording.QueryAs[tracing.SpecEntry](
		ctx, reader, tracing.SpecTable,
		datarecording.QueryParams{OrderBy: "Location ASC"})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Location)
	}

	return names, nil
}

// Summary describes how well a trace tracks its set point.
type Summary struct {
	Samples       int
	FinalProbe    complex128
	PeakProbe     float64
	TailMeanErr   float64
	TailStdDevErr float64
}

// Summarize computes the summary over the whole trace. The error statistics
// use the error the controller saw, over the closed-loop samples among the
// last tailFraction of the trace. A tail that is entirely open loop is
// summarized as a whole.
func Summarize(t Trace, tailFraction float64) Summary {
	n := t.Len()
	if n == 0 {
		return Summary{}
	}

	mags := make([]float64, n)
	for i, p := range t.Probe {
		mags[i] = cmplx.Abs(p)
	}

	start := n - int(float64(n)*tailFraction)
	if start >= n {
		start = n - 1
	}

	if start < 0 {
		start = 0
	}

	errs := tailErrors(t, start, true)
	if len(errs) == 0 {
		errs = tailErrors(t, start, false)
	}

	mean, std := stat.MeanStdDev(errs, nil)

	return Summary{
		Samples:       n,
		FinalProbe:    t.Probe[n-1],
		PeakProbe:     floats.Max(mags),
		TailMeanErr:   mean,
		TailStdDevErr: std,
	}
}

func tailErrors(t Trace, start int, closedOnly bool) []float64 {
	errs := make([]float64, 0, t.Len()-start)
	for i := start; i < t.Len(); i++ {
		if closedOnly && i < len(t.OpenLoop) && t.OpenLoop[i] {
			continue
		}

		errs = append(errs, cmplx.Abs(t.Error[i]))
	}

	return errs
}
