package presentation

import (
	"time"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/metrics"
	"github.com/zjrosen/capwire/internal/profile"
)

// ProfileDTO represents a runtime profile for presentation
type ProfileDTO struct {
	VersionTier int    `json:"version_tier" yaml:"version_tier"`
	VendorTag   string `json:"vendor_tag" yaml:"vendor_tag"`
	Arch        string `json:"arch" yaml:"arch"`
	Summary     string `json:"summary" yaml:"summary"`
}

// FromProfile converts a profile to a DTO.
func FromProfile(p profile.Profile) ProfileDTO {
	return ProfileDTO{
		VersionTier: p.VersionTier,
		VendorTag:   p.VendorTag,
		Arch:        p.Arch(),
		Summary:     p.String(),
	}
}

// CandidateDTO is one candidate id and whether a strategy is registered for it
type CandidateDTO struct {
	ID         string `json:"id" yaml:"id"`
	Registered bool   `json:"registered" yaml:"registered"`
}

// CandidatesDTO lists the search order for one capability
type CandidatesDTO struct {
	Capability string         `json:"capability" yaml:"capability"`
	Profile    ProfileDTO     `json:"profile" yaml:"profile"`
	Tiers      []int          `json:"tiers" yaml:"tiers"`
	Candidates []CandidateDTO `json:"candidates" yaml:"candidates"`
}

// ResolutionDTO represents one resolution step
type ResolutionDTO struct {
	Capability string               `json:"capability" yaml:"capability"`
	Outcome    string               `json:"outcome" yaml:"outcome"`
	Candidate  string               `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Depth      int                  `json:"depth" yaml:"depth"`
	Attempts   []capability.Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// FromResolution converts a recorded resolution to a DTO.
func FromResolution(r capability.Resolution) ResolutionDTO {
	return ResolutionDTO{
		Capability: r.Capability,
		Outcome:    string(r.Outcome),
		Candidate:  r.Candidate,
		Depth:      r.Depth,
		Attempts:   r.Attempts,
		Error:      r.Error,
	}
}

// StrategyDTO describes the strategy a capability resolved to
type StrategyDTO struct {
	Capability string `json:"capability" yaml:"capability"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// EventDTO is a published resolution event
type EventDTO struct {
	Type       string `json:"type" yaml:"type"`
	Capability string `json:"capability" yaml:"capability"`
	Candidate  string `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResolveDTO is the result of a resolve run
type ResolveDTO struct {
	Session     string           `json:"session" yaml:"session"`
	Profile     ProfileDTO       `json:"profile" yaml:"profile"`
	Strategies  []StrategyDTO    `json:"strategies" yaml:"strategies"`
	Resolutions []ResolutionDTO  `json:"resolutions" yaml:"resolutions"`
	Events      []EventDTO       `json:"events,omitempty" yaml:"events,omitempty"`
	Stats       metrics.Snapshot `json:"stats" yaml:"stats"`
	Summary     string           `json:"summary" yaml:"summary"`
	HitRate     string           `json:"hit_rate" yaml:"hit_rate"`
}

// CatalogEntryDTO is one registered strategy id, split into its parts
type CatalogEntryDTO struct {
	ID         string `json:"id" yaml:"id"`
	Capability string `json:"capability" yaml:"capability"`
	Tier       int    `json:"tier,omitempty" yaml:"tier,omitempty"`
	Qualifier  string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
}

// CatalogDTO lists every registered strategy
type CatalogDTO struct {
	Tiers      []int             `json:"tiers" yaml:"tiers"`
	Strategies []CatalogEntryDTO `json:"strategies" yaml:"strategies"`
}

// FromCatalog converts a catalog listing to a DTO.
func FromCatalog(c *capability.Catalog) CatalogDTO {
	ids := c.IDs()
	dto := CatalogDTO{Tiers: c.Tiers(), Strategies: make([]CatalogEntryDTO, 0, len(ids))}
	for _, id := range ids {
		parts := capability.SplitCandidate(id)
		dto.Strategies = append(dto.Strategies, CatalogEntryDTO{
			ID:         id,
			Capability: parts.Name,
			Tier:       parts.Tier,
			Qualifier:  parts.Qualifier,
		})
	}
	return dto
}

// SessionSummaryDTO is one row of the history listing
type SessionSummaryDTO struct {
	ID          string     `json:"id" yaml:"id"`
	Profile     ProfileDTO `json:"profile" yaml:"profile"`
	RecordedAt  time.Time  `json:"recorded_at" yaml:"recorded_at"`
	Resolutions int        `json:"resolutions" yaml:"resolutions"`
	Failures    int        `json:"failures" yaml:"failures"`
}

// HistoryDTO lists recorded sessions, newest first
type HistoryDTO struct {
	Sessions []SessionSummaryDTO `json:"sessions" yaml:"sessions"`
}

// FromSummaries converts repository summaries.
func FromSummaries(sums []history.Summary) HistoryDTO {
	dto := HistoryDTO{Sessions: make([]SessionSummaryDTO, 0, len(sums))}
	for _, s := range sums {
		dto.Sessions = append(dto.Sessions, SessionSummaryDTO{
			ID:          s.ID,
			Profile:     FromProfile(s.Profile),
			RecordedAt:  s.RecordedAt.UTC(),
			Resolutions: s.Resolutions,
			Failures:    s.Failures,
		})
	}
	return dto
}

// SessionDTO is one recorded session in full
type SessionDTO struct {
	ID          string            `json:"id" yaml:"id"`
	Profile     ProfileDTO        `json:"profile" yaml:"profile"`
	RecordedAt  time.Time         `json:"recorded_at" yaml:"recorded_at"`
	Chosen      map[string]string `json:"chosen" yaml:"chosen"`
	Resolutions []ResolutionDTO   `json:"resolutions" yaml:"resolutions"`
}

// FromSession converts a recorded session.
func FromSession(s *history.Session) SessionDTO {
	dto := SessionDTO{
		ID:          s.ID,
		Profile:     FromProfile(s.Profile),
		RecordedAt:  s.RecordedAt.UTC(),
		Chosen:      s.Chosen(),
		Resolutions: make([]ResolutionDTO, 0, len(s.Resolutions)),
	}
	for _, r := range s.Resolutions {
		dto.Resolutions = append(dto.Resolutions, FromResolution(r))
	}
	return dto
}
