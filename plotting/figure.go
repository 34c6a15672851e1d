package plotting

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Figure size and resolution of the written images.
const (
	widthIn  = 8.0
	heightIn = 5.0
	dpi      = 150
)

func series(t []float64, v []complex128, f func(complex128) float64) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i := range t {
		pts[i].X = t[i]
		pts[i].Y = f(v[i])
	}

	return pts
}

// Magnitudes are the amplitudes of the station signals in one common unit.
type Magnitudes struct {
	Unit     string
	SetPoint []float64
	Probe    []float64
	Forward  []float64
	Reverse  []float64
}

// MagnitudesOf converts the signals of a trace into cavity volts. The set
// point and probe are divided by |KProbe|, the forward wave is the voltage
// it drives at resonance and the reverse wave is divided by |KReverse|.
// Without couplings the raw recorded units are kept.
func MagnitudesOf(t Trace) Magnitudes {
	setPoint, probe, forward, reverse := 1.0, 1.0, 1.0, 1.0
	unit := "magnitude (recorded units)"

	if c := t.Couplings; c != nil && c.KForward != 0 &&
		c.KProbe != 0 && c.KReverse != 0 {
		unit = "cavity voltage (V)"
		setPoint = 1 / cmplx.Abs(c.KProbe)
		probe = setPoint
		forward = math.Abs(c.KDrive / c.KForward)
		reverse = 1 / cmplx.Abs(c.KReverse)
	}

	return Magnitudes{
		Unit:     unit,
		SetPoint: scaledAbs(t.SetPoint, setPoint),
		Probe:    scaledAbs(t.Probe, probe),
		Forward:  scaledAbs(t.Forward, forward),
		Reverse:  scaledAbs(t.Reverse, reverse),
	}
}

func scaledAbs(v []complex128, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = cmplx.Abs(x) * k
	}

	return out
}

func xys(t, v []float64) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i := range t {
		pts[i].X = t[i]
		pts[i].Y = v[i]
	}

	return pts
}

// MagnitudePlot shows the amplitude of the station signals over time.
func MagnitudePlot(t Trace) (*plot.Plot, error) {
	m := MagnitudesOf(t)

	p := plot.New()
	p.Title.Text = t.Location + " amplitude"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = m.Unit
	p.Legend.Top = true

	err := plotutil.AddLines(p,
		"set point", xys(t.Time, m.SetPoint),
		"probe", xys(t.Time, m.Probe),
		"forward", xys(t.Time, m.Forward),
		"reverse", xys(t.Time, m.Reverse),
	)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// PhasePlot shows the phase of the station signals over time.
func PhasePlot(t Trace) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = t.Location + " phase"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "phase (rad)"
	p.Legend.Top = true

	err := plotutil.AddLines(p,
		"probe", series(t.Time, t.Probe, cmplx.Phase),
		"forward", series(t.Time, t.Forward, cmplx.Phase),
		"reverse", series(t.Time, t.Reverse, cmplx.Phase),
	)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// IQPlot shows the trajectory of the probe in the complex plane.
func IQPlot(t Trace) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = t.Location + " probe I/Q"
	p.X.Label.Text = "I"
	p.Y.Label.Text = "Q"

	pts := make(plotter.XYs, t.Len())
	for i, v := range t.Probe {
		pts[i].X = real(v)
		pts[i].Y = imag(v)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	return p, nil
}

// WritePNG renders the plot as a PNG image.
func WritePNG(w io.Writer, p *plot.Plot) error {
	c := vgimg.NewWith(
		vgimg.UseWH(widthIn*vg.Inch, heightIn*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	pngc := vgimg.PngCanvas{Canvas: c}
	_, err := pngc.WriteTo(w)

	return err
}

func savePNG(p *plot.Plot, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)

	if err := WritePNG(bw, p); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}

	return bw.Flush()
}

// SaveAll writes the amplitude, phase and I/Q figures of a trace into
// outDir and returns the file names.
func SaveAll(outDir string, t Trace) ([]string, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("trace of %s is empty", t.Location)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}

	figures := []struct {
		suffix string
		make   func(Trace) (*plot.Plot, error)
	}{
		{"magnitude", MagnitudePlot},
		{"phase", PhasePlot},
		{"iq", IQPlot},
	}

	var files []string

	for _, f := range figures {
		p, err := f.make(t)
		if err != nil {
			return files, err
		}

		name := filepath.Join(outDir, t.Location+"_"+f.suffix+".png")
		if err := savePNG(p, name); err != nil {
			return files, err
		}

		files = append(files, name)
	}

	return files, nil
}
