package tracing

// Span attribute keys for capability resolution.
const (
	AttrCapability     = "capability.name"
	AttrParent         = "capability.parent"
	AttrCandidate      = "capability.candidate"
	AttrCandidateCount = "capability.candidate_count"
	AttrOutcome        = "capability.outcome"
	AttrSessionID      = "session.id"
	AttrVersionTier    = "profile.version_tier"
	AttrVendorTag      = "profile.vendor_tag"
	AttrIs64Bit        = "profile.is_64bit"
	AttrSubstitute     = "substitution.target"

	AttrErrorMessage = "error.message"
)

// SpanPrefixResolve prefixes one span per Registry.Resolve call.
const SpanPrefixResolve = "capability.resolve."

// Span events.
const (
	EventCandidateAbsent = "candidate.absent"
	EventCandidateFailed = "candidate.failed"
	EventCandidateBuilt  = "candidate.built"
	EventMemoHit         = "memo.hit"
	EventDeferred        = "marker.deferred"
	EventParentFallback  = "parent.fallback"
	EventSubstitution    = "substitution.invoked"
)
