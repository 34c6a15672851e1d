package sim

// A SimulationEndHandler is told the final simulated time once the engine
// has no more events.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine delivers events in time order.
type Engine interface {
	Hookable

	// CurrentTime is the time of the event being handled, or of the last
	// one once the run is over.
	CurrentTime() VTimeInSec

	// Schedule queues an event. Events may not be scheduled in the past.
	Schedule(e Event)

	// Run handles events until none is left or a handler fails.
	Run() error

	// Pause holds the run before the next event. Continue releases it.
	Pause()
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished notifies the end handlers.
	Finished()
}
