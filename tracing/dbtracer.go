package tracing

import (
	"sync"

	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/station"
)

// TraceTable is the name of the table that holds the step rows.
const TraceTable = "station_trace"

// StepEntry is one row of the trace table. Complex signals are stored as
// real and imaginary columns.
type StepEntry struct {
	Location      string
	Step          int64
	Time          float64
	OpenLoop      bool
	SetPointRe    float64
	SetPointIm    float64
	DisturbanceRe float64
	DisturbanceIm float64
	ErrorRe       float64
	ErrorIm       float64
	DriveRe       float64
	DriveIm       float64
	IntegratorRe  float64
	IntegratorIm  float64
	AmpOutputRe   float64
	AmpOutputIm   float64
	ProbeRe       float64
	ProbeIm       float64
	ReverseRe     float64
	ReverseIm     float64
	ForwardRe     float64
	ForwardIm     float64
	VoltageRe     float64
	VoltageIm     float64
}

// MakeStepEntry flattens a snapshot into a row.
func MakeStepEntry(location string, s station.Snapshot) StepEntry {
	return StepEntry{
		Location:      location,
		Step:          int64(s.Step),
		Time:          s.Time,
		OpenLoop:      s.OpenLoop,
		SetPointRe:    real(s.SetPoint),
		SetPointIm:    imag(s.SetPoint),
		DisturbanceRe: real(s.Disturbance),
		DisturbanceIm: imag(s.Disturbance),
		ErrorRe:       real(s.Error),
		ErrorIm:       imag(s.Error),
		DriveRe:       real(s.Drive),
		DriveIm:       imag(s.Drive),
		IntegratorRe:  real(s.Integrator),
		IntegratorIm:  imag(s.Integrator),
		AmpOutputRe:   real(s.AmpOutput),
		AmpOutputIm:   imag(s.AmpOutput),
		ProbeRe:       real(s.Probe),
		ProbeIm:       imag(s.Probe),
		ReverseRe:     real(s.Reverse),
		ReverseIm:     imag(s.Reverse),
		ForwardRe:     real(s.Forward),
		ForwardIm:     imag(s.Forward),
		VoltageRe:     real(s.Voltage),
		VoltageIm:     imag(s.Voltage),
	}
}

// DBTracer stores station steps into a data recorder.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	// every Nth step is kept
	decimation uint64
	startTime  float64
	endTime    float64
	isTracing  bool
	numRows    int
}

// NewDBTracer creates a DBTracer that keeps every decimation-th step. It
// creates the trace table in the recorder.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	decimation uint64,
) *DBTracer {
	if decimation == 0 {
		panic("decimation must be positive")
	}

	recorder.CreateTable(TraceTable, StepEntry{})

	return &DBTracer{
		backend:    recorder,
		decimation: decimation,
		isTracing:  true,
	}
}

// SetTimeRange limits tracing to steps within [startTime, endTime]. A zero
// end time means no upper limit.
func (t *DBTracer) SetTimeRange(startTime, endTime float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// EnableTracing resumes recording.
func (t *DBTracer) EnableTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.isTracing = true
}

// StopTracing pauses recording and flushes what has been recorded.
func (t *DBTracer) StopTracing() {
	t.mu.Lock()
	t.isTracing = false
	t.mu.Unlock()

	t.backend.Flush()
}

// IsTracing tells if steps are currently recorded.
func (t *DBTracer) IsTracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.isTracing
}

// NumRows returns the number of rows handed to the recorder.
func (t *DBTracer) NumRows() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.numRows
}

// TraceStep records the snapshot if it passes the filters.
func (t *DBTracer) TraceStep(location string, snapshot station.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isTracing || snapshot.Step%t.decimation != 0 {
		return
	}

	if snapshot.Time < t.startTime {
		return
	}

	if t.endTime > 0 && snapshot.Time > t.endTime {
		return
	}

	t.backend.InsertData(TraceTable, MakeStepEntry(location, snapshot))
	t.numRows++
}

// Terminate flushes the recorder.
func (t *DBTracer) Terminate() {
	t.backend.Flush()
}
