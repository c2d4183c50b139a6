package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGoVersion(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "major.minor", input: "go1.22", want: 22, wantOK: true},
		{name: "patch release", input: "go1.22.4", want: 22, wantOK: true},
		{name: "release candidate", input: "go1.23rc1", want: 23, wantOK: true},
		{name: "experiment suffix", input: "go1.21.0 X:loopvar", want: 21, wantOK: true},
		{name: "devel build", input: "devel go1.24-abcdef", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "missing minor", input: "go1.", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGoVersion(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCurrent_IsStable(t *testing.T) {
	first := Current()
	second := Current()

	require.Equal(t, first, second)
	require.NotEmpty(t, first.VendorTag)
	require.Positive(t, first.VersionTier)
}

func TestApply_OverridesOnlySetFields(t *testing.T) {
	base := Profile{VersionTier: 22, VendorTag: "gc", Is64Bit: true}
	tier := 18
	is64 := false

	got := base.Apply(Overrides{VersionTier: &tier, Is64Bit: &is64})

	require.Equal(t, Profile{VersionTier: 18, VendorTag: "gc", Is64Bit: false}, got)
	require.Equal(t, 22, base.VersionTier, "base must not be mutated")
}

func TestString(t *testing.T) {
	p := Profile{VersionTier: 21, VendorTag: "gccgo", Is64Bit: false}
	require.Equal(t, "tier=21 vendor=gccgo arch=32-bit", p.String())

	require.Equal(t, "tier=0 vendor=unknown arch=64-bit", Profile{Is64Bit: true}.String())
}
