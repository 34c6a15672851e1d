package simulation

import (
	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/monitoring"
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordingOn    bool
	outputFileName string
	decimation     uint64
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:   true,
		recordingOn: true,
		decimation:  1,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithoutRecording sets the simulation to not store traces.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithTraceDecimation keeps only every n-th step in the trace.
func (b Builder) WithTraceDecimation(n uint64) Builder {
	b.decimation = n
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}

	if b.decimation == 0 {
		panic("trace decimation must be positive")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:           sim.UniqueID(),
		engine:       sim.NewSerialEngine(),
		stationIndex: make(map[string]int),
	}

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "llrf_sim_" + s.id
		}

		s.outputPath = outputPath + ".sqlite3"
		s.dataRecorder = datarecording.New(outputPath)
		s.dataRecorder.CreateTable(tracing.SpecTable, tracing.SpecEntry{})
		s.tracer = tracing.NewDBTracer(s.dataRecorder, b.decimation)
		s.runInfo = datarecording.NewRunInfoRecorder(s.dataRecorder)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitorURL = s.monitor.StartServer()
	}

	return s
}
