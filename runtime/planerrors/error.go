// Package planerrors provides the structured error taxonomy surfaced by the
// conversation engine. PlanError preserves message and causal context while
// still implementing the standard error interface, the same shape the
// runtime's tool-invocation errors use, so callers can errors.Is/As against
// the named sentinels without losing the underlying cause chain.
package planerrors

import (
	"errors"
	"fmt"
)

// Kind classifies a PlanError against the public error taxonomy from the
// system design (ProtocolErrors in the conversational/protocol/programming
// tiers). Conversational-tier failures (parse/verify/resolve) are not
// represented here: those are captured as ErrorStep values inside a Plan
// instead of raised as Go errors.
type Kind string

const (
	// KindIntegrity indicates a blob failed magic/hash verification.
	KindIntegrity Kind = "integrity_error"
	// KindMigration indicates a blob's schema version cannot be migrated
	// to the current version, or a migration registration was invalid.
	KindMigration Kind = "migration_error"
	// KindPlanParse indicates the planner response could not be parsed
	// into a structurally valid Plan.
	KindPlanParse Kind = "plan_parse_error"
	// KindCatalogConflict indicates a duplicate action id was registered.
	KindCatalogConflict Kind = "catalog_conflict"
	// KindWrongMode indicates a Conversation Manager was called through a
	// persistence mode (store-backed or opaque-blob) it was not configured
	// for.
	KindWrongMode Kind = "wrong_mode"
	// KindResolution indicates a verified Plan could not be resolved
	// against the action catalog (unknown handler, coercion failure).
	KindResolution Kind = "resolution_error"
)

// PlanError represents a structured failure that preserves message and
// causal context. Errors may be nested via Cause to retain rich diagnostics
// across a call chain while still supporting errors.Is/As through Unwrap.
type PlanError struct {
	// Kind classifies the failure against the public error taxonomy.
	Kind Kind
	// Message is the human-readable summary of the failure.
	Message string
	// Cause links to the underlying error, enabling error chains.
	Cause error
}

// New constructs a PlanError of the given kind with the provided message.
func New(kind Kind, message string) *PlanError {
	if message == "" {
		message = string(kind)
	}
	return &PlanError{Kind: kind, Message: message}
}

// NewWithCause constructs a PlanError that wraps an underlying error.
func NewWithCause(kind Kind, message string, cause error) *PlanError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &PlanError{Kind: kind, Message: message, Cause: cause}
}

// Errorf formats according to a format specifier and returns a PlanError of
// the given kind.
func Errorf(kind Kind, format string, args ...any) *PlanError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *PlanError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a PlanError with the same Kind, allowing
// callers to match with errors.Is(err, planerrors.Integrity) style sentinels
// defined below.
func (e *PlanError) Is(target error) bool {
	var pe *PlanError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Kind != "" && pe.Kind == e.Kind
}

// Sentinel values for errors.Is matching against the public taxonomy. Each
// carries no message/cause of its own; construct a concrete error with New
// or NewWithCause and compare against these with errors.Is.
var (
	Integrity       = &PlanError{Kind: KindIntegrity}
	Migration       = &PlanError{Kind: KindMigration}
	PlanParse       = &PlanError{Kind: KindPlanParse}
	CatalogConflict = &PlanError{Kind: KindCatalogConflict}
	WrongMode       = &PlanError{Kind: KindWrongMode}
	Resolution      = &PlanError{Kind: KindResolution}
)
