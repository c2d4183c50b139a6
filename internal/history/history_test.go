package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/profile"
)

func sampleSession() *Session {
	return &Session{
		ID:         "s1",
		Profile:    profile.Profile{VersionTier: 22, VendorTag: "gc", Is64Bit: true},
		RecordedAt: time.Unix(1700000000, 0),
		Resolutions: []capability.Resolution{
			{Capability: "MapClearer", Outcome: capability.OutcomeBuilt, Candidate: "MapClearer$Tier21"},
			{Capability: "Snapshotter", Outcome: capability.OutcomeBuilt, Candidate: "Snapshotter"},
			{Capability: "MapClearer", Outcome: capability.OutcomeMemoized, Depth: 1},
			{Capability: "StringBytes", Outcome: capability.OutcomeSubstituted},
			{Capability: "Teleporter", Outcome: capability.OutcomeFailed, Error: "exhausted"},
		},
	}
}

func TestSession_Chosen(t *testing.T) {
	require.Equal(t, map[string]string{
		"MapClearer":  "MapClearer$Tier21",
		"Snapshotter": "Snapshotter",
		"StringBytes": "substituted",
	}, sampleSession().Chosen())
}

func TestSession_Failures(t *testing.T) {
	require.Equal(t, 1, sampleSession().Failures())
}

func TestSession_Capabilities(t *testing.T) {
	require.Equal(t, []string{"MapClearer", "Snapshotter", "StringBytes", "Teleporter"}, sampleSession().Capabilities())
}

func TestNewSession(t *testing.T) {
	cc := capability.NewContext()
	p := profile.Profile{VersionTier: 21, VendorTag: "gccgo"}
	at := time.Unix(42, 0)

	s := NewSession(cc, p, at)
	require.Equal(t, cc.ID(), s.ID)
	require.Equal(t, p, s.Profile)
	require.Equal(t, at, s.RecordedAt)
	require.Empty(t, s.Resolutions)
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{ID: "abc"}
	require.EqualError(t, err, `history session "abc" not found`)
}
