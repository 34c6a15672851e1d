package sim

// HookPos names a site at which hooks are invoked.
type HookPos struct {
	Name string
}

// Positions at which the engine invokes its own hooks.
var (
	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)

// HookCtx describes one hook invocation. Item is what the site produced,
// for example the event being handled or a station snapshot.
type HookCtx struct {
	Domain Hookable
	Now    VTimeInSec
	Pos    *HookPos
	Item   any
	Detail any
}

// A Hook observes a Hookable. It runs synchronously at the hook site.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// Hookable is something hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// HookableBase implements Hookable for embedding.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook attaches a hook. Hooks run in the order they were attached.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook runs every attached hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
