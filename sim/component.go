package sim

import (
	"fmt"
	"regexp"
	"sync"
)

// A Named object has a name that is unique within a simulation.
type Named interface {
	Name() string
}

// A Component is a named event handler that accepts hooks.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase implements the name and hook parts of a Component. The
// embedded mutex is for state that goroutines outside the engine read or
// change, such as monitor requests.
type ComponentBase struct {
	HookableBase
	sync.Mutex

	name string
}

// Names are dot separated identifiers, such as "Linac.CM01.Cav3".
var namePattern = regexp.MustCompile(
	`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)

// NameMustBeValid panics if name is not a dot separated list of
// identifiers.
func NameMustBeValid(name string) {
	if !namePattern.MatchString(name) {
		panic(fmt.Sprintf("invalid component name %q", name))
	}
}

// NewComponentBase creates a ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	return &ComponentBase{name: name}
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
