package sim

// VTimeInSec is a point on the simulated time axis, in seconds.
type VTimeInSec float64

// An Event is delivered by the engine to its Handler at its Time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary events run after all primary events of the same time.
	IsSecondary() bool
}

// A Handler owns the state that its events modify.
type Handler interface {
	Handle(e Event) error
}

// EventBase holds what every event carries.
type EventBase struct {
	ID        uint64
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event for the handler.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{ID: NextID(), time: t, handler: handler}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the receiver of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary tells if the event yields to same-time primary events.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}
