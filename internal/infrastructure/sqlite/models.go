package sqlite

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/profile"
)

// SessionModel is a row of the sessions table.
type SessionModel struct {
	ID          string
	VersionTier int
	VendorTag   string
	Is64Bit     bool
	RecordedAt  int64 // Unix milliseconds
}

// ResolutionModel is a row of the resolutions table.
type ResolutionModel struct {
	SessionID  string
	Seq        int
	Capability string
	Outcome    string
	Candidate  *string // nullable
	Depth      int
	Error      *string // nullable
	Attempts   string  // JSON encoded []capability.Attempt
}

func toSessionModel(s *history.Session) *SessionModel {
	return &SessionModel{
		ID:          s.ID,
		VersionTier: s.Profile.VersionTier,
		VendorTag:   s.Profile.VendorTag,
		Is64Bit:     s.Profile.Is64Bit,
		RecordedAt:  s.RecordedAt.UnixMilli(),
	}
}

func (m *SessionModel) profile() profile.Profile {
	return profile.Profile{VersionTier: m.VersionTier, VendorTag: m.VendorTag, Is64Bit: m.Is64Bit}
}

func (m *SessionModel) recordedAt() time.Time {
	return time.UnixMilli(m.RecordedAt)
}

func toResolutionModels(sessionID string, rs []capability.Resolution) ([]ResolutionModel, error) {
	out := make([]ResolutionModel, 0, len(rs))
	for i, r := range rs {
		attempts := r.Attempts
		if attempts == nil {
			attempts = []capability.Attempt{}
		}
		encoded, err := json.Marshal(attempts)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolutionModel{
			SessionID:  sessionID,
			Seq:        i,
			Capability: r.Capability,
			Outcome:    string(r.Outcome),
			Candidate:  nullable(r.Candidate),
			Depth:      r.Depth,
			Error:      nullable(r.Error),
			Attempts:   string(encoded),
		})
	}
	return out, nil
}

func (m *ResolutionModel) toDomain() (capability.Resolution, error) {
	r := capability.Resolution{
		Capability: m.Capability,
		Outcome:    capability.Outcome(m.Outcome),
		Depth:      m.Depth,
	}
	if m.Candidate != nil {
		r.Candidate = *m.Candidate
	}
	if m.Error != nil {
		r.Error = *m.Error
	}
	if err := json.Unmarshal([]byte(m.Attempts), &r.Attempts); err != nil {
		return r, err
	}
	if len(r.Attempts) == 0 {
		r.Attempts = nil
	}
	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
