package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/capwire/internal/builtin"
	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/flags"
	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/presentation"
	"github.com/zjrosen/capwire/internal/pubsub"
	"github.com/zjrosen/capwire/internal/tracing"
)

const eventBuffer = 256

func newResolveCmd(s *state) *cobra.Command {
	var (
		withEvents bool
		viaKit     bool
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [capability...]",
		Short: "Resolve capabilities and report which strategy each one got",
		Long: `Resolve capabilities in one session and report the chosen strategies, every
candidate tried, and the registry counters.

With no arguments every primary builtin capability is resolved. With the
privileged-strategies flag enabled, capabilities with a privileged sibling are
deferred to it through the substitution handler.

Examples:
  capwire resolve
  capwire resolve Snapshotter --tier 20
  capwire resolve --kit --events -o yaml
  capwire resolve --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := builtin.Primary()
			if len(args) > 0 {
				keys = keys[:0:0]
				for _, name := range args {
					key, err := lookup(name)
					if err != nil {
						return err
					}
					keys = append(keys, key)
				}
			}

			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var (
				opts   []capability.RegistryOption
				events <-chan pubsub.Event[capability.Event]
			)
			if withEvents {
				broker := pubsub.NewBrokerWithBuffer[capability.Event](eventBuffer)
				defer broker.Close()
				events = broker.Subscribe(ctx)
				opts = append(opts, capability.WithBroker(broker))
			}
			r := s.registry(opts...)

			ctx, span := s.tracer.Tracer().Start(ctx, "capwire.resolve")
			span.SetAttributes(attribute.Int(tracing.AttrCandidateCount, len(keys)))
			defer span.End()

			var (
				dto    presentation.ResolveDTO
				report []capability.Resolution
			)
			if viaKit {
				dto, report = s.resolveKit(r)
			} else {
				dto, report = s.resolveKeys(ctx, r, keys)
			}
			if record {
				if err := s.record(&history.Session{
					ID:          dto.Session,
					Profile:     r.Profile(),
					RecordedAt:  time.Now(),
					Resolutions: report,
				}); err != nil {
					return err
				}
			}
			dto.Profile = presentation.FromProfile(r.Profile())
			dto.Events = drain(events)

			stats := r.Stats()
			dto.Stats = stats
			dto.Summary = stats.FormatSummary()
			dto.HitRate = stats.FormatHitRate()

			if err := f.FormatResolve(dto); err != nil {
				return err
			}

			var failed []string
			for _, st := range dto.Strategies {
				if st.Error != "" {
					failed = append(failed, st.Capability)
				}
			}
			if len(failed) > 0 {
				span.SetStatus(codes.Error, "unresolved capabilities")
				log.Warn(log.CatCLI, "unresolved capabilities", "capabilities", failed)
				if s.flags.Enabled(flags.FlagStrictCandidates) {
					return fmt.Errorf("%d capabilities failed to resolve: %s", len(failed), strings.Join(failed, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withEvents, "events", false, "include published resolution events in the output")
	cmd.Flags().BoolVar(&viaKit, "kit", false, "build the builtin Kit facade instead of individual capabilities")
	cmd.Flags().BoolVar(&record, "record", false, "save the session to the history database")
	return cmd
}

func (s *state) resolveKeys(ctx context.Context, r *capability.Registry, keys []capability.Key) (presentation.ResolveDTO, []capability.Resolution) {
	opts := []capability.ContextOption{capability.WithTraceParent(ctx)}
	if s.flags.Enabled(flags.FlagPrivilegedStrategies) {
		opts = append(opts, capability.NewRedirectHandler(builtin.PrivilegedRoutes()).Deferrer())
	}
	cc := capability.NewContext(opts...)

	dto := presentation.ResolveDTO{Session: cc.ID()}
	for _, key := range keys {
		st := presentation.StrategyDTO{Capability: key.Name()}
		if v, err := r.Resolve(cc, key); err != nil {
			st.Error = err.Error()
		} else {
			st.Type = fmt.Sprintf("%T", v)
		}
		dto.Strategies = append(dto.Strategies, st)
	}
	report := cc.Report()
	for _, res := range report {
		dto.Resolutions = append(dto.Resolutions, presentation.FromResolution(res))
	}
	return dto, report
}

func (s *state) resolveKit(r *capability.Registry) (presentation.ResolveDTO, []capability.Resolution) {
	kit := builtin.NewKit(r, builtin.WithFlags(s.flags))
	k, err := kit.Get()

	// the facade owns its contexts, so the session gets its own id
	dto := presentation.ResolveDTO{Session: uuid.NewString()}
	report := kit.LastReport()
	for _, res := range report {
		dto.Resolutions = append(dto.Resolutions, presentation.FromResolution(res))
	}
	if err != nil {
		dto.Strategies = []presentation.StrategyDTO{{Capability: "Kit", Error: err.Error()}}
		return dto, report
	}
	dto.Strategies = []presentation.StrategyDTO{
		{Capability: builtin.CapBytesCloner.Name(), Type: fmt.Sprintf("%T", k.Cloner)},
		{Capability: builtin.CapMapClearer.Name(), Type: fmt.Sprintf("%T", k.Clearer)},
		{Capability: builtin.CapSnapshotter.Name(), Type: fmt.Sprintf("%T", k.Snapshots)},
		{Capability: builtin.CapStringBytes.Name(), Type: fmt.Sprintf("%T", k.Strings)},
	}
	return dto, report
}

// drain collects the events already buffered on ch.
func drain(ch <-chan pubsub.Event[capability.Event]) []presentation.EventDTO {
	if ch == nil {
		return nil
	}
	var out []presentation.EventDTO
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, presentation.EventDTO{
				Type:       string(ev.Type),
				Capability: ev.Payload.Capability,
				Candidate:  ev.Payload.Candidate,
				Error:      ev.Payload.Error,
			})
		default:
			return out
		}
	}
}
