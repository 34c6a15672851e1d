package sim

import "sync"

// TickEvent asks a ticking component to advance one cycle.
type TickEvent struct {
	EventBase
}

func newTickEvent(handler Handler, at VTimeInSec) TickEvent {
	return TickEvent{EventBase{ID: NextID(), time: at, handler: handler}}
}

// A Ticker advances a state by one cycle. Tick returns false once there is
// nothing left to do, which stops the ticking.
type Ticker interface {
	Tick() bool
}

// TickScheduler puts at most one tick per cycle on the engine.
type TickScheduler struct {
	Freq   Freq
	Engine Engine

	mu        sync.Mutex
	handler   Handler
	scheduled VTimeInSec
}

// NewTickScheduler creates a scheduler whose ticks go to handler.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		Freq:      freq,
		Engine:    engine,
		handler:   handler,
		scheduled: -1,
	}
}

// TickNow schedules a tick on the current cycle boundary, rounding up when
// the engine is between boundaries.
func (t *TickScheduler) TickNow() {
	t.scheduleAt(t.Freq.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick on the boundary after the current time.
func (t *TickScheduler) TickLater() {
	t.scheduleAt(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) scheduleAt(at VTimeInSec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if at <= t.scheduled {
		return
	}

	t.scheduled = at
	t.Engine.Schedule(newTickEvent(t.handler, at))
}

// CurrentTime returns the engine time.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// TickingComponent calls its Ticker once per cycle for as long as the
// Ticker makes progress.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NewTickingComponent creates a component that ticks at freq. Ticking
// starts with the first TickNow or TickLater.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// Handle runs one tick.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}
