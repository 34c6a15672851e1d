package sim

import (
	"log"
	"sync"
)

// SerialEngine handles one event at a time on the goroutine that calls
// Run. Pause, Continue, CurrentTime and Schedule may be called from other
// goroutines, such as the monitor's HTTP handlers.
type SerialEngine struct {
	HookableBase

	mu      sync.Mutex
	resumed *sync.Cond
	now     VTimeInSec
	paused  bool
	queue   *EventQueue

	running sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates an engine at time zero.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resumed = sync.NewCond(&e.mu)

	return e
}

// Schedule queues an event. It panics if the event is in the past.
func (e *SerialEngine) Schedule(evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Time() < e.now {
		log.Panicf("event at %.10f is earlier than now (%.10f)",
			evt.Time(), e.now)
	}

	e.queue.Push(evt)
}

// Run handles events until the queue drains or a handler returns an error.
func (e *SerialEngine) Run() error {
	e.running.Lock()
	defer e.running.Unlock()

	for {
		evt, ok := e.advance()
		if !ok {
			return nil
		}

		ctx := HookCtx{
			Domain: e,
			Now:    evt.Time(),
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(ctx)

		err := evt.Handler().Handle(evt)

		ctx.Pos = HookPosAfterEvent
		e.InvokeHook(ctx)

		if err != nil {
			return err
		}
	}
}

// advance waits while paused, then pops the next event and moves the clock
// to it.
func (e *SerialEngine) advance() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.paused {
		e.resumed.Wait()
	}

	if e.queue.Len() == 0 {
		return nil, false
	}

	evt := e.queue.Pop()
	e.now = evt.Time()

	return evt, true
}

// Pause holds the run before the next event. The event being handled, if
// any, completes.
func (e *SerialEngine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Continue releases a paused run.
func (e *SerialEngine) Continue() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()

	e.resumed.Broadcast()
}

// IsPaused tells if Pause has been called without a matching Continue.
func (e *SerialEngine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paused
}

// CurrentTime returns the time of the latest event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// RegisterSimulationEndHandler adds a handler to be called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished calls every end handler with the current time.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
