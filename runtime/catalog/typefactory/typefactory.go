// Package typefactory resolves complex, nested-schema-tagged action
// parameters into typed payloads during plan resolution (spec §4.5, §9
// "Opaque argument values during parse"). Each factory is keyed by the
// NestedSchemaTag declared on a catalog.ParamDescriptor; the resolver looks
// the factory up by tag and hands it the raw parsed value (an object tree
// or an opaque embedded-DSL string) without ever inspecting its shape
// itself, keeping the parser and resolver free of domain types.
package typefactory

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Factory converts a raw, untyped value (as produced by the plan parser)
// into a typed payload for one NestedSchemaTag. Implementations should
// return an error describing why the value did not match the expected
// shape; the resolver wraps it into the step's ErrorStep reason.
type Factory func(raw any) (any, error)

// Registry maps a NestedSchemaTag to the Factory that decodes it. Safe for
// concurrent reads after Register calls complete; intended to be built once
// at startup alongside the action catalog.
type Registry struct {
	factories map[string]Factory
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates tag with factory, overwriting any prior registration.
func (r *Registry) Register(tag string, factory Factory) {
	r.factories[tag] = factory
}

// RegisterJSONSchema registers a factory that normalizes the raw value with
// toJSONDoc and validates it against schemaBytes using jsonschema/v6,
// returning the normalized value when validation succeeds.
func (r *Registry) RegisterJSONSchema(tag string, schemaBytes []byte) error {
	var schemaDoc any
	if err := json.Unmarshal(schemaBytes, &schemaDoc); err != nil {
		return fmt.Errorf("typefactory %q: unmarshal schema: %w", tag, err)
	}
	c := jsonschema.NewCompiler()
	resourceName := tag + ".schema.json"
	if err := c.AddResource(resourceName, schemaDoc); err != nil {
		return fmt.Errorf("typefactory %q: add schema resource: %w", tag, err)
	}
	schema, err := c.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("typefactory %q: compile schema: %w", tag, err)
	}
	r.Register(tag, func(raw any) (any, error) {
		doc, err := toJSONDoc(raw)
		if err != nil {
			return nil, fmt.Errorf("typefactory %q: %w", tag, err)
		}
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("typefactory %q: schema validation: %w", tag, err)
		}
		return doc, nil
	})
	return nil
}

// Lookup returns the factory registered for tag, if any.
func (r *Registry) Lookup(tag string) (Factory, bool) {
	f, ok := r.factories[tag]
	return f, ok
}

// toJSONDoc normalizes raw into the any-tree shape jsonschema/v6 expects.
// nil, maps, slices, strings (the opaque embedded-DSL carrier), float64 and
// bool are returned as-is; any other Go value is round-tripped through JSON.
func toJSONDoc(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any, string, float64, bool:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("normalize value: %w", err)
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("normalize value: %w", err)
		}
		return doc, nil
	}
}
