package capability

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/capwire/internal/profile"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []int
		profile profile.Profile
		want    []string
	}{
		{
			name:    "qualified vendor",
			tiers:   []int{18, 22, 25},
			profile: gccgo22,
			want: []string{
				"Clone$Tier22$GCCGo", "Clone$Tier22",
				"Clone$Tier18$GCCGo", "Clone$Tier18",
				"Clone$GCCGo", "Clone",
			},
		},
		{
			name:    "unknown vendor gets no qualifier",
			tiers:   []int{21, 23},
			profile: profile.Profile{VersionTier: 24, VendorTag: "gc"},
			want:    []string{"Clone$Tier23", "Clone$Tier21", "Clone"},
		},
		{
			name:    "unsorted and duplicate tiers",
			tiers:   []int{20, 24, 20, 22},
			profile: profile.Profile{VersionTier: 24, VendorTag: "gc"},
			want:    []string{"Clone$Tier24", "Clone$Tier22", "Clone$Tier20", "Clone"},
		},
		{
			name:    "every tier too new",
			tiers:   []int{23, 25},
			profile: profile.Profile{VersionTier: 21, VendorTag: "tinygo"},
			want:    []string{"Clone$TinyGo", "Clone"},
		},
		{
			name:    "no tiers",
			profile: profile.Profile{VersionTier: 21},
			want:    []string{"Clone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Candidates("Clone", tt.tiers, tt.profile, DefaultVendors()))
		})
	}
}

func TestCandidates_DoesNotMutateTiers(t *testing.T) {
	tiers := []int{25, 18, 22}
	Candidates("Clone", tiers, gccgo22, DefaultVendors())
	require.Equal(t, []int{25, 18, 22}, tiers)
}

func TestCandidates_Properties(t *testing.T) {
	vendors := []string{"gc", "gccgo", "tinygo", "gopherjs", ""}

	rapid.Check(t, func(t *rapid.T) {
		tiers := rapid.SliceOf(rapid.IntRange(1, 40)).Draw(t, "tiers")
		p := profile.Profile{
			VersionTier: rapid.IntRange(1, 40).Draw(t, "tier"),
			VendorTag:   rapid.SampledFrom(vendors).Draw(t, "vendor"),
			Is64Bit:     rapid.Bool().Draw(t, "is64"),
		}

		first := Candidates("Cap", tiers, p, DefaultVendors())
		second := Candidates("Cap", slices.Clone(tiers), p, DefaultVendors())
		if !slices.Equal(first, second) {
			t.Fatalf("not deterministic: %v vs %v", first, second)
		}
		if first[len(first)-1] != "Cap" {
			t.Fatalf("bare name must come last: %v", first)
		}

		last := p.VersionTier + 1
		_, qualified := DefaultVendors().Qualifier(p.VendorTag)
		for i, id := range first {
			parts := SplitCandidate(id)
			if parts.Name != "Cap" {
				t.Fatalf("unexpected name in %q", id)
			}
			if parts.HasTier {
				if parts.Tier > p.VersionTier {
					t.Fatalf("tier %d above profile tier %d", parts.Tier, p.VersionTier)
				}
				if parts.Tier > last {
					t.Fatalf("tiers not descending: %v", first)
				}
				last = parts.Tier
			}
			if qualified && parts.Qualifier != "" && i+1 < len(first) {
				next := SplitCandidate(first[i+1])
				if next.Qualifier != "" || next.Tier != parts.Tier {
					t.Fatalf("qualified %q not followed by its unqualified form", id)
				}
			}
		}
		if len(first) != len(slices.Compact(slices.Clone(first))) {
			t.Fatalf("duplicate candidates: %v", first)
		}
	})
}

func TestSplitCandidate(t *testing.T) {
	tests := []struct {
		id   string
		want CandidateParts
	}{
		{"Clone", CandidateParts{Name: "Clone"}},
		{"Clone$Tier22", CandidateParts{Name: "Clone", Tier: 22, HasTier: true}},
		{"Clone$Tier22$GCCGo", CandidateParts{Name: "Clone", Tier: 22, HasTier: true, Qualifier: "GCCGo"}},
		{"Clone$GCCGo", CandidateParts{Name: "Clone", Qualifier: "GCCGo"}},
		{"Clone$Tierx", CandidateParts{Name: "Clone", Qualifier: "Tierx"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			require.Equal(t, tt.want, SplitCandidate(tt.id))
		})
	}
}

func TestJoinCandidate(t *testing.T) {
	require.Equal(t, "Clone", JoinCandidate("Clone"))
	require.Equal(t, "Clone$Tier22$GCCGo", JoinCandidate("Clone", TierTag(22), "GCCGo"))
}

func TestDefaultVendors_ReturnsCopy(t *testing.T) {
	v := DefaultVendors()
	v["gc"] = "Mainline"
	_, ok := DefaultVendors().Qualifier("gc")
	require.False(t, ok)
}
