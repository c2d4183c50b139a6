package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/capwire/internal/builtin"
	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/presentation"
)

func newProfileCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the runtime profile capabilities resolve against",
		Long: `Show the runtime profile: version tier, toolchain vendor and word size.

Examples:
  capwire profile
  capwire profile --tier 21 --vendor gccgo -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}
			return f.FormatProfile(presentation.FromProfile(s.profile()))
		},
	}
}

func newCandidatesCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <capability>",
		Short: "List the strategy ids a capability would try, in order",
		Long: `List the candidate strategy ids for a capability, most specific first, and
whether the catalog holds a strategy for each.

Examples:
  capwire candidates BytesCloner
  capwire candidates MapClearer --tier 20 --vendor tinygo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := lookup(args[0])
			if err != nil {
				return err
			}
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}

			r := s.registry()
			dto := presentation.CandidatesDTO{
				Capability: key.Name(),
				Profile:    presentation.FromProfile(r.Profile()),
				Tiers:      r.Tiers(),
			}
			for _, id := range r.Candidates(key) {
				_, err := builtin.Catalog().Locate(id)
				dto.Candidates = append(dto.Candidates, presentation.CandidateDTO{ID: id, Registered: err == nil})
			}
			return f.FormatCandidates(dto)
		},
	}
}

func newCatalogCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every registered strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}
			return f.FormatCatalog(presentation.FromCatalog(builtin.Catalog()))
		},
	}
}

func lookup(name string) (capability.Key, error) {
	if key, ok := builtin.Lookup(name); ok {
		return key, nil
	}
	names := make([]string, 0, len(builtin.Keys()))
	for _, k := range builtin.Keys() {
		names = append(names, k.Name())
	}
	return nil, fmt.Errorf("unknown capability %q (known: %s)", name, strings.Join(names, ", "))
}
