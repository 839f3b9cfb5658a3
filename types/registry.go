package types

import (
	"fmt"
	"slices"

	"github.com/ffishim/dustr/rust"
)

// Dispatcher finds the behavior of a type. Composite behaviors use it to
// recurse into their type arguments.
type Dispatcher interface {
	Dispatch(t rust.Type) (Behavior, error)
}

// Factory constructs a behavior. Behaviors that need to look up inner
// types keep the Dispatcher they are given.
type Factory func(d Dispatcher) Behavior

// Builtins are the factories of all builtin behaviors, more specific shapes
// first.
var Builtins = []Factory{
	NewResult,
	NewOption,
	NewVec,
	NewDuration,
	NewString,
	NewBool,
	NewScalar,
}

// Default is the registry of all builtin behaviors. It recognizes no user
// types; see [Registry.WithUserTypes].
var Default = NewRegistry(Builtins...)

// Registry is an immutable ordered set of behaviors.
// The first behavior that recognizes a type wins.
type Registry struct {
	factories []Factory
	behaviors []Behavior
}

func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{factories: slices.Clone(factories)}
	r.behaviors = make([]Behavior, 0, len(factories))
	for _, f := range factories {
		r.behaviors = append(r.behaviors, f(r))
	}
	return r
}

// WithUserTypes returns a new registry with a behavior for the given
// user-defined structs and enums appended after all existing behaviors.
// userTypes is keyed by Rust type name.
func (r *Registry) WithUserTypes(userTypes map[string]UserType) *Registry {
	factories := append(slices.Clone(r.factories), NewUser(userTypes))
	return NewRegistry(factories...)
}

// Dispatch returns the first behavior that recognizes t.
func (r *Registry) Dispatch(t rust.Type) (Behavior, error) {
	for _, b := range r.behaviors {
		if b.Is(t) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnrecognizedType, rust.TypeString(t))
}

// Behaviors returns the registered behaviors in dispatch order.
func (r *Registry) Behaviors() []Behavior {
	return slices.Clone(r.behaviors)
}
