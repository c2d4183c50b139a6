// Package metrics tracks resolution counters for a capability registry.
package metrics

import (
	"fmt"
	"sync/atomic"
)

// ResolutionStats counts what a registry did. Safe for concurrent use.
type ResolutionStats struct {
	resolved      atomic.Int64
	memoHits      atomic.Int64
	absent        atomic.Int64
	failures      atomic.Int64
	substitutions atomic.Int64
	fallbacks     atomic.Int64
}

// Snapshot is a point-in-time copy of ResolutionStats.
type Snapshot struct {
	// Resolved counts capabilities built from a located strategy.
	Resolved int64 `json:"resolved" yaml:"resolved"`
	// MemoHits counts Resolve calls answered from the context.
	MemoHits int64 `json:"memo_hits" yaml:"memo_hits"`
	// Absent counts candidate identifiers with no strategy.
	Absent int64 `json:"absent_candidates" yaml:"absent_candidates"`
	// Failures counts BuildingErrors returned to callers.
	Failures int64 `json:"failures" yaml:"failures"`
	// Substitutions counts successful substitution handler results.
	Substitutions int64 `json:"substitutions" yaml:"substitutions"`
	// Fallbacks counts resolutions satisfied by a parent capability.
	Fallbacks int64 `json:"parent_fallbacks" yaml:"parent_fallbacks"`
}

func (s *ResolutionStats) IncResolved()     { s.resolved.Add(1) }
func (s *ResolutionStats) IncMemoHit()      { s.memoHits.Add(1) }
func (s *ResolutionStats) IncAbsent()       { s.absent.Add(1) }
func (s *ResolutionStats) IncFailure()      { s.failures.Add(1) }
func (s *ResolutionStats) IncSubstitution() { s.substitutions.Add(1) }
func (s *ResolutionStats) IncFallback()     { s.fallbacks.Add(1) }

// Snapshot copies the current counters.
func (s *ResolutionStats) Snapshot() Snapshot {
	return Snapshot{
		Resolved:      s.resolved.Load(),
		MemoHits:      s.memoHits.Load(),
		Absent:        s.absent.Load(),
		Failures:      s.failures.Load(),
		Substitutions: s.substitutions.Load(),
		Fallbacks:     s.fallbacks.Load(),
	}
}

// HitRate returns the fraction of lookups answered from memo (0-100).
func (s Snapshot) HitRate() float64 {
	total := s.MemoHits + s.Resolved + s.Substitutions + s.Fallbacks
	if total == 0 {
		return 0
	}
	return float64(s.MemoHits) / float64(total) * 100
}

// FormatSummary returns a one-line summary (e.g. "4 built, 9 absent, 0 failed, 1 substituted").
func (s Snapshot) FormatSummary() string {
	return fmt.Sprintf("%d built, %d absent, %d failed, %d substituted",
		s.Resolved, s.Absent, s.Failures, s.Substitutions)
}

// FormatHitRate returns the memo hit rate (e.g. "66.7%").
func (s Snapshot) FormatHitRate() string {
	return fmt.Sprintf("%.1f%%", s.HitRate())
}
