// Package capability resolves abstract capabilities to concrete strategies
// chosen for the running toolchain.
//
// A capability is declared as a typed token:
//
//	var Cloner = capability.NewType[BytesCloner]("BytesCloner")
//
// Strategies are registered under candidate ids such as
// "BytesCloner$Tier22$GCCGo", "BytesCloner$Tier22" or "BytesCloner". For a
// given profile the Registry enumerates candidates from the most specific
// version tier down, each with the vendor qualifier first, and builds the
// first strategy it can locate. Results are memoized in a Context, which is
// also how strategy factories reach their own dependencies (see Require).
//
// When the search is exhausted, or the capability was marked deferred, the
// Context's SubstitutionHandler gets one chance to supply an alternate. Any
// failure that leaves Resolve is a *BuildingError naming the capability and
// the profile.
package capability
