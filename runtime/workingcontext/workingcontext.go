// Package workingcontext maps a host domain's context-type string to its
// payload shape and an optional augmenter that formats the payload into the
// next turn's user message. A host registers its domain artifacts (a query
// in progress, a chart being built) once at startup; the conversation
// manager looks augmenters up by the ConversationState's current
// WorkingContext.ContextType on every turn.
package workingcontext

import "sync"

// WorkingContext is a typed payload representing the user's current domain
// artifact, persisted across turns and optionally rendered into the next
// user message.
type WorkingContext struct {
	// ContextType identifies the registered payload shape and augmenter.
	ContextType string
	// Payload is the opaque typed value; its concrete type is whatever the
	// host registered for ContextType.
	Payload any
	// LastModified records when Payload was last set, as a Unix
	// millisecond timestamp (callers supply this; the package itself never
	// reads the clock so that replay/migration stays deterministic).
	LastModified int64
	// Metadata carries small string annotations alongside Payload.
	Metadata map[string]string
}

// AugmentConfig carries the labels an Augmenter may use when formatting its
// output into the next user message (spec §6 config table).
type AugmentConfig struct {
	ContextPrefix string
	RequestPrefix string
}

// Augmenter formats a WorkingContext into a prefix string prepended to the
// next turn's effective user message. Augmenters may opt out per turn via
// ShouldAugment, e.g. when the payload has not meaningfully changed.
type Augmenter interface {
	// FormatForUserMessage renders wc's payload into a prefix string, or
	// returns ("", false) to opt out for this turn.
	FormatForUserMessage(wc WorkingContext, cfg AugmentConfig) (string, bool)
	// ShouldAugment reports whether this WorkingContext should be
	// formatted at all this turn. Defaults to true when an Augmenter does
	// not need to special-case anything.
	ShouldAugment(wc WorkingContext) bool
}

// Registry maps a contextType to its payload type tag and optional
// Augmenter. Safe for concurrent register/lookup, matching the concurrent
// map the spec requires for C12 ("register/unregister are atomic").
type Registry struct {
	mu         sync.RWMutex
	payloadTag map[string]string
	augmenters map[string]Augmenter
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		payloadTag: make(map[string]string),
		augmenters: make(map[string]Augmenter),
	}
}

// Register associates contextType with a payload type tag (a free-form
// label such as a Go type name) and an optional augmenter. Blob
// deserialization does not consult the tag: a deserialized payload is
// always a generic JSON tree, whatever its contextType.
func (r *Registry) Register(contextType, payloadTypeTag string, augmenter Augmenter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloadTag[contextType] = payloadTypeTag
	if augmenter != nil {
		r.augmenters[contextType] = augmenter
	}
}

// GetPayloadType returns the payload type tag registered for contextType.
func (r *Registry) GetPayloadType(contextType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tag, ok := r.payloadTag[contextType]
	return tag, ok
}

// GetAugmenter returns the augmenter registered for contextType, if any.
func (r *Registry) GetAugmenter(contextType string) (Augmenter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.augmenters[contextType]
	return a, ok
}

// defaultAugmenter implements Augmenter.ShouldAugment's documented default
// (true) for hosts that only need FormatForUserMessage.
type defaultAugmenter struct {
	format func(WorkingContext, AugmentConfig) (string, bool)
}

// NewFuncAugmenter adapts a formatting function into an Augmenter whose
// ShouldAugment always returns true.
func NewFuncAugmenter(format func(WorkingContext, AugmentConfig) (string, bool)) Augmenter {
	return defaultAugmenter{format: format}
}

func (d defaultAugmenter) FormatForUserMessage(wc WorkingContext, cfg AugmentConfig) (string, bool) {
	return d.format(wc, cfg)
}

func (defaultAugmenter) ShouldAugment(WorkingContext) bool { return true }
