package presentation

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/profile"
)

func TestNewFormatter_RejectsUnknownFormat(t *testing.T) {
	_, err := NewFormatter(&bytes.Buffer{}, "xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "xml")
}

func TestFormatProfile_JSON(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, "")
	require.NoError(t, err)

	p := profile.Profile{VersionTier: 22, VendorTag: "gccgo", Is64Bit: true}
	require.NoError(t, f.FormatProfile(FromProfile(p)))

	var got ProfileDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, ProfileDTO{
		VersionTier: 22,
		VendorTag:   "gccgo",
		Arch:        "64-bit",
		Summary:     "tier=22 vendor=gccgo arch=64-bit",
	}, got)
}

func TestFormatResolve_YAML(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, FormatYAML)
	require.NoError(t, err)

	dto := ResolveDTO{
		Session: "s-1",
		Resolutions: []ResolutionDTO{FromResolution(capability.Resolution{
			Capability: "BytesCloner",
			Outcome:    capability.OutcomeBuilt,
			Candidate:  "BytesCloner$Tier20",
			Attempts:   []capability.Attempt{{Candidate: "BytesCloner$Tier20", Outcome: capability.OutcomeBuilt}},
		})},
	}
	require.NoError(t, f.FormatResolve(dto))
	require.Contains(t, buf.String(), "candidate: BytesCloner$Tier20")

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "s-1", got["session"])
}

func TestFromCatalog(t *testing.T) {
	c := capability.NewCatalog()
	noop := func(*capability.Context) (any, error) { return struct{}{}, nil }
	c.MustRegister("Clone$Tier20$GCCGo", noop)
	c.MustRegister("Clone", noop)

	dto := FromCatalog(c)
	require.Equal(t, []int{20}, dto.Tiers)
	require.Equal(t, []CatalogEntryDTO{
		{ID: "Clone", Capability: "Clone"},
		{ID: "Clone$Tier20$GCCGo", Capability: "Clone", Tier: 20, Qualifier: "GCCGo"},
	}, dto.Strategies)
}
