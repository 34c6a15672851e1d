package station

import (
	"github.com/sarchlab/llrf/sim"
)

// HookPosStep marks the completion of one station step. The hook item is the
// Snapshot taken right after the step.
var HookPosStep = &sim.HookPos{Name: "Station Step"}

// Snapshot is a copy of the observable signals of a station.
type Snapshot struct {
	Step        uint64
	Time        float64
	SetPoint    complex128
	OpenLoop    bool
	Disturbance complex128
	Error       complex128
	Drive       complex128
	Integrator  complex128
	AmpOutput   complex128
	Probe       complex128
	Reverse     complex128
	Forward     complex128
	Voltage     complex128
}

// Comp runs a station inside a simulation engine, one step per tick.
//
// The setters may be called from any goroutine. They take effect from the
// next step on.
type Comp struct {
	*sim.TickingComponent

	spec        Spec
	state       State
	disturbance complex128
	numSteps    uint64
	stepCount   uint64
}

// Start schedules the first step.
func (c *Comp) Start() {
	c.TickNow()
}

// Tick advances the station by one step.
func (c *Comp) Tick() bool {
	c.Lock()

	if c.stepCount >= c.numSteps {
		c.Unlock()
		return false
	}

	Step(c.disturbance, &c.spec, &c.state)
	c.stepCount++
	snapshot := c.snapshotLocked()
	more := c.stepCount < c.numSteps

	c.Unlock()

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Now:    c.CurrentTime(),
			Pos:    HookPosStep,
			Item:   snapshot,
		})
	}

	return more
}

// SetSetPoint changes the target of the controller.
func (c *Comp) SetSetPoint(setPoint complex128) {
	c.Lock()
	defer c.Unlock()

	c.spec.Controller.SetPoint = setPoint
}

// SetOpenLoop switches the controller between feedback and feed-forward.
func (c *Comp) SetOpenLoop(openLoop bool) {
	c.Lock()
	defer c.Unlock()

	c.spec.Controller.OpenLoop = openLoop
}

// SetDisturbance sets the voltage added to the cavity drive on every step.
func (c *Comp) SetDisturbance(disturbance complex128) {
	c.Lock()
	defer c.Unlock()

	c.disturbance = disturbance
}

// Spec returns a copy of the current configuration.
func (c *Comp) Spec() Spec {
	c.Lock()
	defer c.Unlock()

	return c.spec
}

// Snapshot returns the signals after the latest step.
func (c *Comp) Snapshot() Snapshot {
	c.Lock()
	defer c.Unlock()

	return c.snapshotLocked()
}

// StepCount returns the number of steps run so far.
func (c *Comp) StepCount() uint64 {
	c.Lock()
	defer c.Unlock()

	return c.stepCount
}

// NumSteps returns the number of steps after which the component stops.
func (c *Comp) NumSteps() uint64 {
	return c.numSteps
}

func (c *Comp) snapshotLocked() Snapshot {
	return Snapshot{
		Step:        c.stepCount,
		Time:        float64(c.stepCount) * c.spec.TimeStep(),
		SetPoint:    c.spec.Controller.SetPoint,
		OpenLoop:    c.spec.Controller.OpenLoop,
		Disturbance: c.disturbance,
		Error:       c.state.Error,
		Drive:       c.state.Controller.Drive,
		Integrator:  c.state.Controller.Integrator,
		AmpOutput:   c.state.Amplifier.Output,
		Probe:       c.state.Cavity.Probe,
		Reverse:     c.state.Cavity.Reverse,
		Forward:     c.state.Cavity.Forward,
		Voltage:     c.state.Cavity.Voltage,
	}
}
