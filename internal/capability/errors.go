package capability

import (
	"errors"
	"fmt"

	"github.com/zjrosen/capwire/internal/profile"
)

// Resolution errors.
var (
	// ErrStrategyAbsent signals that no strategy exists for a candidate
	// identifier in this environment. Locators return it for unknown ids and
	// factories may return it to decline; the registry moves to the next
	// candidate. It never escapes Resolve.
	ErrStrategyAbsent = errors.New("strategy absent")

	// ErrDeferred is returned by Context.Get when the key was marked deferred.
	// The registry routes it straight to the substitution handler.
	ErrDeferred = errors.New("capability deferred to substitution handler")

	// ErrNotFound is returned by Context.Get when nothing stored satisfies the key.
	ErrNotFound = errors.New("capability not present in context")

	// ErrExhausted is the cause of a BuildingError when every candidate and the
	// parent capability were absent.
	ErrExhausted = errors.New("no strategy available")

	// ErrCycle is the cause of a BuildingError when a capability's construction
	// requires itself.
	ErrCycle = errors.New("capability dependency cycle")

	// ErrNoRegistry is returned by Require when the context has no registry.
	ErrNoRegistry = errors.New("context has no registry")

	// ErrIncompatible is the cause of a BuildingError when a strategy produced
	// a value that does not implement the capability's Go type.
	ErrIncompatible = errors.New("strategy value does not satisfy capability type")

	// ErrNilStrategy is the cause of a BuildingError when a factory returned nil.
	ErrNilStrategy = errors.New("strategy factory returned nil")

	// ErrInvalidRequest is the cause of a BuildingError when Resolve is called
	// without a context or a key.
	ErrInvalidRequest = errors.New("resolve requires a context and a key")

	// ErrDuplicateStrategy is returned when a candidate id is registered twice.
	ErrDuplicateStrategy = errors.New("strategy already registered")
)

// BuildingError is the only failure Resolve reports to callers. It names the
// capability and the full runtime profile so the failure can be diagnosed
// without reproducing the environment.
type BuildingError struct {
	// Capability is the canonical name of the capability being resolved.
	Capability string
	// Candidate is the identifier whose strategy failed; empty when the
	// failure was not tied to a single candidate.
	Candidate string
	// Profile is the environment the registry resolved against.
	Profile profile.Profile
	// Cause is the underlying error.
	Cause error
}

func (e *BuildingError) Error() string {
	msg := fmt.Sprintf("unable to build capability %q", e.Capability)
	if e.Candidate != "" {
		msg += fmt.Sprintf(" (candidate %q)", e.Candidate)
	}
	msg += " on " + e.Profile.String()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BuildingError) Unwrap() error {
	return e.Cause
}
