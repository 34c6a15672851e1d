// Package simulation wires station components together with the engine,
// the trace recorder and the monitor.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/monitoring"
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/station"
	"github.com/sarchlab/llrf/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id     string
	engine *sim.SerialEngine

	dataRecorder datarecording.DataRecorder
	outputPath   string
	tracer       *tracing.DBTracer
	runInfo      *datarecording.RunInfoRecorder
	monitor      *monitoring.Monitor
	monitorURL   string

	stations     []*station.Comp
	stationIndex map[string]int
	progressBars []*monitoring.ProgressBar
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// when recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// OutputPath returns the database file of the trace.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// GetTracer returns the tracer that stores station steps.
func (s *Simulation) GetTracer() *tracing.DBTracer {
	return s.tracer
}

// GetMonitor returns the monitor used in the simulation.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, if it runs.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RegisterStation registers a station with the simulation, attaching the
// tracer and the monitor to it.
func (s *Simulation) RegisterStation(c *station.Comp) {
	name := c.Name()
	if _, found := s.stationIndex[name]; found {
		panic("station " + name + " already registered")
	}

	s.stations = append(s.stations, c)
	s.stationIndex[name] = len(s.stations) - 1

	if s.tracer != nil {
		s.dataRecorder.InsertData(tracing.SpecTable,
			tracing.MakeSpecEntry(name, c.Spec()))
		tracing.CollectTrace(c, s.tracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterStation(c)

		bar := s.monitor.CreateProgressBar(name, c.NumSteps())
		c.AcceptHook(monitoring.StepProgressHook{Bar: bar})
		s.progressBars = append(s.progressBars, bar)
	}
}

// GetStationByName returns the station with the given name, or nil.
func (s *Simulation) GetStationByName(name string) *station.Comp {
	i, found := s.stationIndex[name]
	if !found {
		return nil
	}

	return s.stations[i]
}

// Stations returns all registered stations.
func (s *Simulation) Stations() []*station.Comp {
	return s.stations
}

// Run starts every station and runs the engine until all stations are done.
func (s *Simulation) Run() error {
	if len(s.stations) == 0 {
		return fmt.Errorf("simulation %s has no station", s.id)
	}

	if s.runInfo != nil {
		s.runInfo.Start()
		s.runInfo.Add("Simulation ID", s.id)
		s.runInfo.Add("Stations", fmt.Sprint(len(s.stations)))
	}

	for _, c := range s.stations {
		c.Start()
	}

	err := s.engine.Run()
	s.engine.Finished()

	if s.tracer != nil {
		s.tracer.Terminate()
	}

	if s.runInfo != nil {
		s.runInfo.Add("Simulated Time", fmt.Sprint(s.engine.CurrentTime()))
		s.runInfo.End()
	}

	if s.monitor != nil {
		for _, bar := range s.progressBars {
			s.monitor.CompleteProgressBar(bar)
		}
		s.progressBars = nil
	}

	return err
}

// Terminate stops the monitor and closes the trace database.
func (s *Simulation) Terminate() {
	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := s.monitor.StopServer(ctx); err != nil {
			slog.Warn("monitor did not stop cleanly", "err", err)
		}
	}

	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			panic(err)
		}
	}
}
