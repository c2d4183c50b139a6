package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/capwire/internal/profile"
)

func TestBuildingError_Message(t *testing.T) {
	p := profile.Profile{VersionTier: 21, VendorTag: "gc", Is64Bit: false}

	tests := []struct {
		name string
		err  *BuildingError
		want string
	}{
		{
			name: "with candidate",
			err:  &BuildingError{Capability: "Cloner", Candidate: "Cloner$Tier21", Profile: p, Cause: errBoom},
			want: `unable to build capability "Cloner" (candidate "Cloner$Tier21") on tier=21 vendor=gc arch=32-bit: boom`,
		},
		{
			name: "without candidate",
			err:  &BuildingError{Capability: "Cloner", Profile: p, Cause: ErrExhausted},
			want: `unable to build capability "Cloner" on tier=21 vendor=gc arch=32-bit: no strategy available`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBuildingError_Unwrap(t *testing.T) {
	err := error(&BuildingError{Capability: "Cloner", Cause: errBoom})
	require.True(t, errors.Is(err, errBoom))
	require.False(t, errors.Is(err, ErrStrategyAbsent))
}

func TestNewType(t *testing.T) {
	require.Equal(t, "Greeter", tGreeter.Name())
	require.Nil(t, tGreeter.Parent())
	require.Equal(t, Key(tGreeter), tLoud.Parent())
	require.Equal(t, "LoudGreeter", tLoud.String())

	require.True(t, tGreeter.Accepts(&plainGreeter{}))
	require.False(t, tGreeter.Accepts("text"))
	require.False(t, tGreeter.Accepts(nil))
	require.False(t, tLoud.Accepts(&plainGreeter{}))

	require.Panics(t, func() { NewType[greeter]("Greeter") })
	require.Panics(t, func() { NewType[greeter]("") })
}
