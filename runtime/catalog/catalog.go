// Package catalog is the in-memory registry of application actions the
// conversation engine plans against. An Action Descriptor carries an ordered
// parameter list, a description, and an opaque handler; registration order
// defines nothing, but parameter order within one descriptor is authoritative
// and drives positional binding during resolution.
package catalog

import (
	"fmt"
	"sync"

	"goa.design/convo/runtime/planerrors"
)

// Ident is the strong type for action identifiers. Use this type rather than
// a bare string when referencing actions in maps or APIs to avoid accidental
// mixing with free-form text.
type Ident string

// TypeTag identifies the primitive or complex shape of a parameter or
// coerced argument value.
type TypeTag string

const (
	TypeString TypeTag = "string"
	TypeInt    TypeTag = "int"
	TypeBool   TypeTag = "bool"
	TypeFloat  TypeTag = "float"
	// TypeComplex marks a parameter whose value is resolved through a
	// registered TypeFactory keyed by NestedSchemaTag rather than parsed as
	// a primitive.
	TypeComplex TypeTag = "complex"
)

// Mutability classifies whether invoking an action can change host state.
// Mirrors the READ_ONLY/MUTATE distinction a host application uses to gate
// actions behind stricter confirmation policy.
type Mutability string

const (
	ReadOnly Mutability = "READ_ONLY"
	Mutate   Mutability = "MUTATE"
)

type (
	// ParamDescriptor describes one named, typed parameter of an action.
	ParamDescriptor struct {
		// Name is the parameter's unique name within its action.
		Name string
		// Type classifies the expected value shape.
		Type TypeTag
		// NestedSchemaTag identifies the TypeFactory used to decode a
		// TypeComplex parameter. Empty for primitive types.
		NestedSchemaTag string
		// Description is shown to the planner and used as the default
		// pending-parameter prompt when the value is missing.
		Description string
		// AllowedPattern optionally constrains a numeric or string
		// parameter with a regular expression. A resolved value that does
		// not match demotes its step to an ErrorStep.
		AllowedPattern string
		// Examples optionally lists example values surfaced in prompts.
		Examples []string
	}

	// Handler is the opaque callable a host registers for an action. It
	// receives the resolved, ordered, typed arguments plus an execution
	// Context and returns a result or an error. Hosts without reflection
	// over argument lists register Handler directly rather than relying on
	// the catalog to introspect a method signature.
	Handler func(ctx ExecContext, args []any) (any, error)

	// ExecContext is the minimal surface the Plan Executor exposes to a
	// Handler during invocation. It is satisfied by *executor.Context; the
	// catalog package only depends on the interface to avoid an import
	// cycle with the executor package.
	ExecContext interface {
		Get(key string) (any, bool)
		Set(key string, value any)
	}

	// ActionDescriptor is the full registration record for one action.
	ActionDescriptor struct {
		// ID is the unique identifier within one catalog instance.
		ID Ident
		// Description is human-readable context surfaced to the planner.
		Description string
		// Params is the ordered, authoritative parameter list.
		Params []ParamDescriptor
		// Handler is the callable invoked by the executor once arguments
		// are resolved and type-coerced.
		Handler Handler
		// ContextKey names the execution-context key a successful
		// invocation's result is stored under. Empty means the result is
		// not retained in the context.
		ContextKey string
		// AdditionalContextKeys names further context keys a handler may
		// populate itself via ExecContext.Set during invocation.
		AdditionalContextKeys []string
		// Mutability classifies whether invoking this action can change
		// host state.
		Mutability Mutability
	}
)

// Catalog is a read-only-after-build, concurrency-safe registry of action
// descriptors. Registration happens once at startup; reads are safe for
// concurrent use from many conversation sessions.
type Catalog struct {
	mu      sync.RWMutex
	actions map[Ident]*ActionDescriptor
	order   []Ident
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{actions: make(map[Ident]*ActionDescriptor)}
}

// Register adds an action descriptor to the catalog. Registering a
// duplicate ID fails with a planerrors.CatalogConflict error.
func (c *Catalog) Register(desc ActionDescriptor) error {
	if desc.ID == "" {
		return planerrors.New(planerrors.KindCatalogConflict, "action id must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.actions[desc.ID]; exists {
		return planerrors.NewWithCause(planerrors.KindCatalogConflict,
			fmt.Sprintf("duplicate action id: %s", desc.ID), planerrors.CatalogConflict)
	}
	cp := desc
	cp.Params = append([]ParamDescriptor(nil), desc.Params...)
	cp.AdditionalContextKeys = append([]string(nil), desc.AdditionalContextKeys...)
	c.actions[desc.ID] = &cp
	c.order = append(c.order, desc.ID)
	return nil
}

// ByID returns the descriptor registered for id, if any.
func (c *Catalog) ByID(id Ident) (*ActionDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.actions[id]
	return d, ok
}

// All returns every registered descriptor in registration order.
func (c *Catalog) All() []*ActionDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ActionDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.actions[id])
	}
	return out
}

// ParameterOrder returns the authoritative, ordered parameter names for id,
// or nil if id is not registered.
func (c *Catalog) ParameterOrder(id Ident) []string {
	d, ok := c.ByID(id)
	if !ok {
		return nil
	}
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// Describe renders a short human-readable summary of every registered
// action, suitable for CLI introspection (cmd/convoctl catalog) or for
// enriching a retry prompt with parameter context.
func (c *Catalog) Describe() []string {
	var lines []string
	for _, d := range c.All() {
		line := fmt.Sprintf("%s: %s", d.ID, d.Description)
		for _, p := range d.Params {
			line += fmt.Sprintf(" [%s:%s]", p.Name, p.Type)
		}
		lines = append(lines, line)
	}
	return lines
}
