package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/capwire/internal/builtin"
	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/presentation"
	"github.com/zjrosen/capwire/internal/profile"
)

func newDiffCmd(s *state) *cobra.Command {
	var (
		againstTier   int
		againstVendor string
	)

	cmd := &cobra.Command{
		Use:   "diff [capability...]",
		Short: "Compare the strategies chosen under the current profile and another one",
		Long: `Resolve capabilities under the current profile and under a second profile
that differs in tier and/or vendor, then show which strategies change.

Examples:
  capwire diff --against-tier 20
  capwire diff Snapshotter --tier 24 --against-tier 19 -o text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if againstTier == 0 && againstVendor == "" {
				return fmt.Errorf("set --against-tier and/or --against-vendor")
			}
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

			base := s.profile()
			var o profile.Overrides
			if againstTier > 0 {
				o.VersionTier = &againstTier
			}
			if againstVendor != "" {
				o.VendorTag = &againstVendor
			}
			other := base.Apply(o)

			baseChosen := s.chosen(ctx, s.registry(), keys)
			otherChosen := s.chosen(ctx, s.registry(capability.WithProfile(other)), keys)
			return f.FormatDiff(presentation.Diff(base.String(), baseChosen, other.String(), otherChosen))
		},
	}

	cmd.Flags().IntVar(&againstTier, "against-tier", 0, "version tier of the profile to compare against")
	cmd.Flags().StringVar(&againstVendor, "against-vendor", "", "vendor of the profile to compare against")
	return cmd
}

// chosen resolves keys in one session and reports the candidate each got.
func (s *state) chosen(ctx context.Context, r *capability.Registry, keys []capability.Key) map[string]string {
	_, report := s.resolveKeys(ctx, r, keys)
	sess := history.Session{Profile: r.Profile(), Resolutions: report}
	return sess.Chosen()
}
