package capability

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/zjrosen/capwire/internal/profile"
)

const (
	// Separator joins a capability name with its variant tags.
	Separator = "$"
	// TierPrefix starts a version tag ("Tier22").
	TierPrefix = "Tier"
)

// VendorTable maps a profile vendor tag to the qualifier appended to
// candidate ids. Vendors missing from the table get no qualifier.
type VendorTable map[string]string

// Qualifier returns the candidate qualifier for vendor.
func (t VendorTable) Qualifier(vendor string) (string, bool) {
	q, ok := t[vendor]
	if !ok || q == "" {
		return "", false
	}
	return q, true
}

// The mainline gc toolchain is the unqualified default.
var defaultVendors = VendorTable{
	"gccgo":    "GCCGo",
	"tinygo":   "TinyGo",
	"gopherjs": "GopherJS",
}

// DefaultVendors returns a copy of the compiled-in vendor table.
func DefaultVendors() VendorTable {
	return maps.Clone(defaultVendors)
}

// TierTag renders a version tag.
func TierTag(tier int) string {
	return TierPrefix + strconv.Itoa(tier)
}

// JoinCandidate joins a name and tags with Separator.
func JoinCandidate(name string, tags ...string) string {
	if len(tags) == 0 {
		return name
	}
	return name + Separator + strings.Join(tags, Separator)
}

// CandidateParts holds the parsed components of a candidate id.
type CandidateParts struct {
	Name      string
	Tier      int
	HasTier   bool
	Qualifier string
}

// SplitCandidate parses "Name[$TierN][$Qualifier]". Tags that are not a
// well-formed version tag are treated as the vendor qualifier.
func SplitCandidate(id string) CandidateParts {
	parts := strings.Split(id, Separator)
	out := CandidateParts{Name: parts[0]}
	for _, tag := range parts[1:] {
		if n, ok := parseTierTag(tag); ok && !out.HasTier {
			out.Tier, out.HasTier = n, true
			continue
		}
		out.Qualifier = tag
	}
	return out
}

func parseTierTag(tag string) (int, bool) {
	digits, ok := strings.CutPrefix(tag, TierPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Candidates lists the strategy ids to try for a capability, most specific
// first. Tiers above p.VersionTier are skipped and the remaining tiers are
// tried newest first; each tier is tried with the vendor qualifier before
// without it, and the bare name comes last:
//
//	Name$Tier22$GCCGo, Name$Tier22, Name$Tier18$GCCGo, Name$Tier18, Name$GCCGo, Name
//
// The result depends only on the arguments.
func Candidates(name string, tiers []int, p profile.Profile, vendors VendorTable) []string {
	qualifier, qualified := vendors.Qualifier(p.VendorTag)

	eligible := make([]int, 0, len(tiers))
	for _, t := range tiers {
		if t <= p.VersionTier {
			eligible = append(eligible, t)
		}
	}
	slices.Sort(eligible)
	eligible = slices.Compact(eligible)
	slices.Reverse(eligible)

	perBase := 1
	if qualified {
		perBase = 2
	}
	out := make([]string, 0, (len(eligible)+1)*perBase)
	emit := func(base string) {
		if qualified {
			out = append(out, base+Separator+qualifier)
		}
		out = append(out, base)
	}
	for _, t := range eligible {
		emit(JoinCandidate(name, TierTag(t)))
	}
	emit(name)
	return out
}
