package capability

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/capwire/internal/cachemanager"
	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/metrics"
	"github.com/zjrosen/capwire/internal/profile"
	"github.com/zjrosen/capwire/internal/pubsub"
	"github.com/zjrosen/capwire/internal/tracing"
)

// Registry resolves capabilities to strategies for one runtime profile.
//
// A Registry is immutable after construction and may be shared by any number
// of Contexts; all per-session state lives in the Context.
type Registry struct {
	locator Locator
	profile profile.Profile
	tiers   []int
	vendors VendorTable
	tracer  trace.Tracer
	broker  *pubsub.Broker[Event]
	stats   metrics.ResolutionStats

	// candidate lists depend only on the key name and the fields above
	candidates *cachemanager.ReadThroughCache[string, []string, string]
	cacheStore *cachemanager.InMemoryCacheManager[string, []string]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithProfile resolves against p instead of profile.Current().
func WithProfile(p profile.Profile) RegistryOption {
	return func(r *Registry) {
		r.profile = p
	}
}

// WithTiers sets the version tiers strategies are registered for. Without
// it the tiers come from the locator when it exposes Tiers() (as Catalog does).
func WithTiers(tiers ...int) RegistryOption {
	return func(r *Registry) {
		r.tiers = append(make([]int, 0, len(tiers)), tiers...)
	}
}

// WithVendors replaces the vendor qualifier table.
func WithVendors(v VendorTable) RegistryOption {
	return func(r *Registry) {
		r.vendors = v
	}
}

// WithTracer records one span per resolution.
func WithTracer(t trace.Tracer) RegistryOption {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithBroker publishes resolution events on b.
func WithBroker(b *pubsub.Broker[Event]) RegistryOption {
	return func(r *Registry) {
		r.broker = b
	}
}

// NewRegistry creates a registry that finds strategies through locator.
func NewRegistry(locator Locator, opts ...RegistryOption) *Registry {
	if locator == nil {
		locator = LocatorFunc(func(id string) (Factory, error) {
			return nil, fmt.Errorf("%w: %s", ErrStrategyAbsent, id)
		})
	}
	r := &Registry{
		locator: locator,
		profile: profile.Current(),
		vendors: DefaultVendors(),
		tracer:  noop.NewTracerProvider().Tracer("capability"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tiers == nil {
		if src, ok := locator.(interface{ Tiers() []int }); ok {
			r.tiers = src.Tiers()
		}
	}
	r.cacheStore = cachemanager.NewInMemoryCacheManager[string, []string](
		"candidates", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval)
	r.candidates = cachemanager.NewReadThroughCache[string, []string, string](
		r.cacheStore,
		func(_ context.Context, name string) ([]string, error) {
			return Candidates(name, r.tiers, r.profile, r.vendors), nil
		},
		false,
	)
	log.Debug(log.CatResolve, "registry created", "profile", r.profile.String(), "tiers", r.tiers)
	return r
}

// Profile returns the profile the registry resolves against.
func (r *Registry) Profile() profile.Profile {
	return r.profile
}

// Tiers returns the registered version tiers.
func (r *Registry) Tiers() []int {
	return slices.Clone(r.tiers)
}

// Candidates lists the ids Resolve would try for key, in order.
func (r *Registry) Candidates(key Key) []string {
	ids, _ := r.candidates.Get(context.Background(), key.Name(), key.Name(), cachemanager.NoExpiration)
	return slices.Clone(ids)
}

// CachedCandidateLists reports how many capabilities have a cached
// candidate list.
func (r *Registry) CachedCandidateLists() int {
	return r.cacheStore.Len()
}

// Stats returns a snapshot of the registry counters.
func (r *Registry) Stats() metrics.Snapshot {
	return r.stats.Snapshot()
}

// Resolve returns the strategy for key, building it if cc does not hold one.
//
// Candidates are tried most specific first. A candidate without a strategy
// is skipped; a strategy that fails to construct ends the search. When every
// candidate is absent the parent capability is tried. Whatever is left
// unresolved goes to the context's substitution handler, if any. Failures
// are reported as *BuildingError.
//
// After the first success, Resolve returns the same instance for key for the
// lifetime of cc.
func (r *Registry) Resolve(cc *Context, key Key) (any, error) {
	if cc == nil || key == nil {
		name := ""
		if key != nil {
			name = key.Name()
		}
		r.stats.IncFailure()
		return nil, &BuildingError{Capability: name, Profile: r.profile, Cause: ErrInvalidRequest}
	}

	v, err := cc.Get(key)
	if err == nil {
		r.stats.IncMemoHit()
		r.finish(cc, Resolution{Capability: key.Name(), Outcome: OutcomeMemoized, Depth: cc.depth()}, nil)
		return v, nil
	}
	deferred := errors.Is(err, ErrDeferred)

	if !cc.enter(key) {
		berr := r.buildingError(key, "", ErrCycle)
		r.stats.IncFailure()
		r.finish(cc, Resolution{Capability: key.Name(), Outcome: OutcomeFailed, Depth: cc.depth()}, berr)
		return nil, berr
	}
	defer cc.leave(key)

	cc.PutIfAbsentRegistry(func() *Registry { return r })

	res := Resolution{Capability: key.Name(), Depth: cc.depth() - 1}
	span := r.startSpan(cc, key)

	var cause *BuildingError
	if deferred {
		span.event(tracing.EventDeferred)
		log.Debug(log.CatSubst, "deferred marker read", "capability", key.Name(), "session", cc.ID())
		cause = r.buildingError(key, "", ErrDeferred)
	} else {
		v, cause = r.search(cc, key, &res, span)
		if cause == nil {
			span.end(res, nil)
			r.finish(cc, res, nil)
			return v, nil
		}
	}

	v, err = r.substitute(cc, key, cause, span)
	if err != nil {
		r.stats.IncFailure()
		res.Outcome = OutcomeFailed
		span.end(res, err)
		r.finish(cc, res, err)
		return nil, err
	}
	r.stats.IncSubstitution()
	res.Outcome = OutcomeSubstituted
	span.end(res, nil)
	r.finish(cc, res, nil)
	return v, nil
}

func (r *Registry) search(cc *Context, key Key, res *Resolution, span *resolveSpan) (any, *BuildingError) {
	candidates := r.Candidates(key)
	span.span.SetAttributes(attribute.Int(tracing.AttrCandidateCount, len(candidates)))

	for _, id := range candidates {
		v, err := r.construct(cc, key, id)
		if err == nil {
			v = cc.Put(key, v)
			r.stats.IncResolved()
			res.Attempts = append(res.Attempts, Attempt{Candidate: id, Outcome: OutcomeBuilt})
			res.Outcome = OutcomeBuilt
			res.Candidate = id
			span.event(tracing.EventCandidateBuilt, attribute.String(tracing.AttrCandidate, id))
			return v, nil
		}

		if errors.Is(err, ErrStrategyAbsent) {
			r.stats.IncAbsent()
			res.Attempts = append(res.Attempts, Attempt{Candidate: id, Outcome: OutcomeAbsent})
			span.event(tracing.EventCandidateAbsent, attribute.String(tracing.AttrCandidate, id))
			r.publish(cc, OutcomeAbsent, Event{Capability: key.Name(), Candidate: id})
			log.Debug(log.CatCandidate, "candidate absent", "capability", key.Name(), "candidate", id)
			continue
		}

		// A present but broken strategy must not be masked by a less specific one.
		res.Attempts = append(res.Attempts, Attempt{Candidate: id, Outcome: OutcomeFailed, Error: err.Error()})
		res.Candidate = id
		span.event(tracing.EventCandidateFailed,
			attribute.String(tracing.AttrCandidate, id),
			attribute.String(tracing.AttrErrorMessage, err.Error()))
		log.ErrorErr(log.CatCandidate, "candidate construction failed", err, "capability", key.Name(), "candidate", id)
		return nil, r.buildingError(key, id, err)
	}

	parent := key.Parent()
	if parent == nil {
		return nil, r.buildingError(key, "", ErrExhausted)
	}

	span.event(tracing.EventParentFallback, attribute.String(tracing.AttrParent, parent.Name()))
	log.Debug(log.CatResolve, "falling back to parent", "capability", key.Name(), "parent", parent.Name())
	v, err := r.Resolve(cc, parent)
	if err != nil {
		return nil, r.buildingError(key, "", err)
	}
	if !key.Accepts(v) {
		return nil, r.buildingError(key, "", fmt.Errorf("%w: parent %s produced %T", ErrIncompatible, parent.Name(), v))
	}
	r.stats.IncFallback()
	res.Outcome = OutcomeParent
	res.Candidate = parent.Name()
	return cc.Put(key, v), nil
}

// construct locates and runs the factory for id.
func (r *Registry) construct(cc *Context, key Key, id string) (any, error) {
	factory, err := r.locator.Locate(id)
	if err != nil {
		return nil, err
	}
	v, err := factory(cc)
	switch {
	case err != nil:
		return nil, err
	case v == nil:
		return nil, ErrNilStrategy
	case !key.Accepts(v):
		return nil, fmt.Errorf("%w: got %T", ErrIncompatible, v)
	}
	return v, nil
}

func (r *Registry) substitute(cc *Context, key Key, cause *BuildingError, span *resolveSpan) (any, error) {
	h := cc.SubstitutionHandler()
	if h == nil {
		return nil, cause
	}

	span.event(tracing.EventSubstitution)
	log.Debug(log.CatSubst, "invoking substitution handler", "capability", key.Name(), "cause", cause.Cause)

	v, err := h.Handle(r, key, cc, cause)
	if err != nil {
		var berr *BuildingError
		if !errors.As(err, &berr) {
			err = r.buildingError(key, "", err)
		}
		return nil, err
	}
	if v == nil {
		return nil, r.buildingError(key, "", ErrNilStrategy)
	}
	if key.Accepts(v) {
		v = cc.Put(key, v)
	}
	return v, nil
}

func (r *Registry) buildingError(key Key, candidate string, cause error) *BuildingError {
	return &BuildingError{
		Capability: key.Name(),
		Candidate:  candidate,
		Profile:    r.profile,
		Cause:      cause,
	}
}

// finish records res in the session report and publishes it.
func (r *Registry) finish(cc *Context, res Resolution, err error) {
	if err != nil {
		res.Error = err.Error()
	}
	cc.record(res)

	ev := Event{Capability: res.Capability, Candidate: res.Candidate, Error: res.Error}
	r.publish(cc, res.Outcome, ev)

	switch res.Outcome {
	case OutcomeMemoized:
		log.Debug(log.CatResolve, "memo hit", "capability", res.Capability, "session", cc.ID())
	case OutcomeFailed:
		log.Warn(log.CatResolve, "resolution failed", "capability", res.Capability, "error", res.Error)
	default:
		log.Info(log.CatResolve, "resolved", "capability", res.Capability,
			"outcome", res.Outcome, "via", res.Candidate, "session", cc.ID())
	}
}

func (r *Registry) publish(cc *Context, o Outcome, ev Event) {
	if r.broker == nil {
		return
	}
	ev.SessionID = cc.ID()
	r.broker.Publish(outcomeEvent(o), ev)
}

// resolveSpan parents nested resolutions under the current one by swapping
// the context's span parent for the duration of the call.
type resolveSpan struct {
	span trace.Span
	cc   *Context
	prev context.Context
}

func (r *Registry) startSpan(cc *Context, key Key) *resolveSpan {
	attrs := []attribute.KeyValue{
		attribute.String(tracing.AttrCapability, key.Name()),
		attribute.String(tracing.AttrSessionID, cc.ID()),
		attribute.Int(tracing.AttrVersionTier, r.profile.VersionTier),
		attribute.String(tracing.AttrVendorTag, r.profile.VendorTag),
		attribute.Bool(tracing.AttrIs64Bit, r.profile.Is64Bit),
	}
	if p := key.Parent(); p != nil {
		attrs = append(attrs, attribute.String(tracing.AttrParent, p.Name()))
	}
	ctx, span := r.tracer.Start(cc.spanCtx, tracing.SpanPrefixResolve+key.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	s := &resolveSpan{span: span, cc: cc, prev: cc.spanCtx}
	cc.spanCtx = ctx
	return s
}

func (s *resolveSpan) event(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *resolveSpan) end(res Resolution, err error) {
	s.span.SetAttributes(attribute.String(tracing.AttrOutcome, string(res.Outcome)))
	if res.Candidate != "" {
		s.span.SetAttributes(attribute.String(tracing.AttrCandidate, res.Candidate))
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.cc.spanCtx = s.prev
	s.span.End()
}
