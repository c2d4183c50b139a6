// Package history records resolution sessions so runs under different
// profiles can be compared after the fact.
package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/profile"
)

// Session is one recorded resolution pass.
type Session struct {
	ID          string
	Profile     profile.Profile
	RecordedAt  time.Time
	Resolutions []capability.Resolution
}

// NewSession captures cc's report under p.
func NewSession(cc *capability.Context, p profile.Profile, at time.Time) *Session {
	return &Session{
		ID:          cc.ID(),
		Profile:     p,
		RecordedAt:  at,
		Resolutions: cc.Report(),
	}
}

// Failures counts resolutions that ended in OutcomeFailed.
func (s *Session) Failures() int {
	n := 0
	for _, r := range s.Resolutions {
		if r.Outcome == capability.OutcomeFailed {
			n++
		}
	}
	return n
}

// Chosen maps each top-level capability to the candidate that satisfied it.
// Memoized answers keep the candidate from the first resolution.
func (s *Session) Chosen() map[string]string {
	out := map[string]string{}
	for _, r := range s.Resolutions {
		if _, seen := out[r.Capability]; seen {
			continue
		}
		switch r.Outcome {
		case capability.OutcomeBuilt:
			out[r.Capability] = r.Candidate
		case capability.OutcomeParent, capability.OutcomeSubstituted:
			out[r.Capability] = string(r.Outcome)
		}
	}
	return out
}

// Summary is a session without its resolutions.
type Summary struct {
	ID          string
	Profile     profile.Profile
	RecordedAt  time.Time
	Resolutions int
	Failures    int
}

// ListFilter narrows Repository.List.
type ListFilter struct {
	// Capability keeps sessions that resolved it.
	Capability string
	// Limit caps the result; zero means no limit.
	Limit int
}

// Repository persists sessions.
type Repository interface {
	Save(s *Session) error
	Find(id string) (*Session, error)
	// List returns summaries newest first.
	List(filter ListFilter) ([]Summary, error)
	// Prune deletes sessions recorded before the cutoff.
	Prune(before time.Time) (int64, error)
}

// NotFoundError is returned when no session has the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("history session %q not found", e.ID)
}

// Capabilities lists the distinct capability names in s, sorted.
func (s *Session) Capabilities() []string {
	var names []string
	for _, r := range s.Resolutions {
		if !slices.Contains(names, r.Capability) {
			names = append(names, r.Capability)
		}
	}
	slices.Sort(names)
	return names
}
