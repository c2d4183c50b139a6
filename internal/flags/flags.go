// Package flags holds the feature switches read from configuration.
// A Registry is read-only once built and answers false for anything unknown.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/capwire/internal/log"
)

const (
	// FlagPrivilegedStrategies switches capability families that have a
	// privileged sibling (zero-copy, unsafe-backed) to that sibling through
	// the substitution handler.
	FlagPrivilegedStrategies = "privileged-strategies"

	// FlagStrictCandidates fails resolution commands when a deferred
	// capability is left unrescued instead of reporting it.
	FlagStrictCandidates = "strict-candidates"
)

// Known lists every flag the binary understands with a short description.
var Known = map[string]string{
	FlagPrivilegedStrategies: "resolve privileged strategy families where available",
	FlagStrictCandidates:     "treat unrescued deferred capabilities as errors",
}

// Registry holds flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables everything.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for name := range r.flags {
		if _, ok := Known[name]; !ok {
			log.Warn(log.CatConfig, "unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Unknown flags and a nil registry
// report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "flag not set", "flag", name)
		return false
	}
	return value
}

// All returns a copy of every configured flag.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// Names returns the known flag names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(Known))
}
