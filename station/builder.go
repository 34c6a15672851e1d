package station

import (
	"log"

	"github.com/sarchlab/llrf/sim"
)

// Builder can build station components.
type Builder struct {
	engine   sim.Engine
	spec     Spec
	numSteps uint64
}

// MakeBuilder returns a Builder with the reference station and 1000 steps.
func MakeBuilder() Builder {
	return Builder{
		spec:     ReferenceSpec(),
		numSteps: 1000,
	}
}

// WithEngine sets the engine that drives the station.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSpec sets the station configuration.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithNumSteps sets the number of steps the station runs before it stops.
func (b Builder) WithNumSteps(n uint64) Builder {
	b.numSteps = n
	return b
}

// Build creates a station component. It panics if the configuration is not
// usable.
func (b Builder) Build(name string) *Comp {
	b.parametersMustBeValid()

	c := &Comp{
		spec:     b.spec,
		numSteps: b.numSteps,
	}

	freq := sim.FreqOfTimeStep(b.spec.TimeStep())
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, freq, c)

	return c
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.numSteps == 0 {
		log.Panic("number of steps must be positive")
	}

	if err := b.spec.Validate(); err != nil {
		log.Panicf("invalid station spec: %v", err)
	}
}
