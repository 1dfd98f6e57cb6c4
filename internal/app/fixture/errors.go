package fixture

import (
	"errors"
	"fmt"
)

// ErrUnreachableItem marks an indexed item that the post-build traversal
// could not reach from the computed roots. That is an engine defect, not a
// problem with the user's definition.
var ErrUnreachableItem = errors.New("indexed item not reachable from any root")

// DefinitionError reports malformed or contradictory declarative input. It
// is raised during resolution, before any side effect for the offending
// entry.
type DefinitionError struct {
	Index int    // index of the offending entry, -1 when unknown
	Kind  Kind   // kind name of the offending entry
	Key   string // unresolved reference key, when applicable
	Msg   string
}

func (e *DefinitionError) Error() string {
	out := "invalid definition"
	if e.Index >= 0 {
		out += fmt.Sprintf(" at index %d", e.Index)
	}
	if e.Kind != "" {
		out += fmt.Sprintf(" for kind %q", e.Kind)
	}
	if e.Key != "" {
		out += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Msg != "" {
		out += ": " + e.Msg
	}
	return out
}

func definitionErrorf(format string, args ...any) *DefinitionError {
	return &DefinitionError{Index: -1, Msg: fmt.Sprintf(format, args...)}
}

// CreationError reports a failed external tool invocation or a violated
// filesystem precondition during materialization. It aborts the remainder
// of the build; earlier side effects are left on disk for diagnosis.
type CreationError struct {
	Index int    // index of the failing entry, -1 when unknown
	Kind  Kind   // kind name of the failing entry
	Path  string // path of the item being materialized
	Msg   string
	Err   error // underlying tool or filesystem failure
}

func (e *CreationError) Error() string {
	out := "creation failed"
	if e.Index >= 0 {
		out += fmt.Sprintf(" at index %d", e.Index)
	}
	if e.Kind != "" {
		out += fmt.Sprintf(" for kind %q", e.Kind)
	}
	if e.Path != "" {
		out += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Msg != "" {
		out += ": " + e.Msg
	}
	if e.Err != nil {
		out += ": " + e.Err.Error()
	}
	return out
}

func (e *CreationError) Unwrap() error { return e.Err }

func creationErrorf(path, format string, args ...any) *CreationError {
	return &CreationError{Index: -1, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a divergence between recorded item state and the
// state independently re-derived from disk and tool output. Verifier only.
type IntegrityError struct {
	Path      string // path of the diverging item
	Attribute string // the specific attribute that diverged
	Msg       string
}

func (e *IntegrityError) Error() string {
	out := fmt.Sprintf("integrity mismatch at %s", e.Path)
	if e.Attribute != "" {
		out += fmt.Sprintf(" (%s)", e.Attribute)
	}
	if e.Msg != "" {
		out += ": " + e.Msg
	}
	return out
}

func integrityErrorf(path, attribute, format string, args ...any) *IntegrityError {
	return &IntegrityError{Path: path, Attribute: attribute, Msg: fmt.Sprintf(format, args...)}
}
