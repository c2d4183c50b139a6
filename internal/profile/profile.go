// Package profile detects the runtime environment that strategy resolution is
// keyed on: the Go release tier, the compiler vendor and the word size.
//
// The detected profile is computed once per process and never changes.
// Overrides (from configuration or tests) produce derived copies.
package profile

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// DefaultVersionTier is used when the toolchain version cannot be parsed,
// e.g. for devel builds.
const DefaultVersionTier = 24

// Profile describes the executing environment.
type Profile struct {
	// VersionTier is the Go minor release ("go1.22.4" -> 22).
	VersionTier int `json:"version_tier" yaml:"version_tier"`
	// VendorTag is the compiler that produced the binary (runtime.Compiler).
	VendorTag string `json:"vendor_tag" yaml:"vendor_tag"`
	// Is64Bit reports a 64-bit word size.
	Is64Bit bool `json:"is_64bit" yaml:"is_64bit"`
}

// Overrides replaces individual profile fields. Nil fields keep the base value.
type Overrides struct {
	VersionTier *int
	VendorTag   *string
	Is64Bit     *bool
}

var (
	current     Profile
	currentOnce sync.Once
)

// Current returns the process-wide profile, detecting it on first use.
func Current() Profile {
	currentOnce.Do(func() {
		current = Detect()
	})
	return current
}

// Detect inspects the running binary. It never fails; unknown values fall
// back to defaults.
func Detect() Profile {
	tier, ok := ParseGoVersion(runtime.Version())
	if !ok {
		tier = DefaultVersionTier
	}
	vendor := runtime.Compiler
	if vendor == "" {
		vendor = "gc"
	}
	return Profile{
		VersionTier: tier,
		VendorTag:   vendor,
		Is64Bit:     strconv.IntSize == 64,
	}
}

// ParseGoVersion extracts the minor release from a Go version string.
// Accepts "go1.22", "go1.22.4", "go1.23rc1" and trailing build metadata
// ("go1.22.4 X:nocoverageredesign"). Returns false for devel builds.
func ParseGoVersion(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, ' '); i >= 0 {
		v = v[:i]
	}
	rest, ok := strings.CutPrefix(v, "go1.")
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	minor, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return minor, true
}

// Apply returns a copy of p with the non-nil overrides applied.
func (p Profile) Apply(o Overrides) Profile {
	if o.VersionTier != nil {
		p.VersionTier = *o.VersionTier
	}
	if o.VendorTag != nil {
		p.VendorTag = *o.VendorTag
	}
	if o.Is64Bit != nil {
		p.Is64Bit = *o.Is64Bit
	}
	return p
}

// Arch returns "64-bit" or "32-bit".
func (p Profile) Arch() string {
	if p.Is64Bit {
		return "64-bit"
	}
	return "32-bit"
}

// String renders the profile for diagnostics.
func (p Profile) String() string {
	vendor := p.VendorTag
	if vendor == "" {
		vendor = "unknown"
	}
	return fmt.Sprintf("tier=%d vendor=%s arch=%s", p.VersionTier, vendor, p.Arch())
}
