package tracing

import (
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/station"
)

// NamedHookable is a named object that accepts hooks.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// CollectTrace lets the tracer collect the steps of a domain.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	h := &traceHook{t: tracer, location: domain.Name()}
	domain.AcceptHook(h)
}

// A traceHook forwards station steps to a tracer.
type traceHook struct {
	t        Tracer
	location string
}

// Func calls the tracer when the hook is triggered.
func (h *traceHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != station.HookPosStep {
		return
	}

	h.t.TraceStep(h.location, ctx.Item.(station.Snapshot))
}
