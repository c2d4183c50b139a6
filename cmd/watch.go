package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/presentation"
	"github.com/zjrosen/capwire/internal/watcher"
)

func newWatchCmd(s *state) *cobra.Command {
	var maxReloads int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the builtin Kit whenever the config file changes",
		Long: `Build the builtin Kit facade, print the result, then rebuild and print it
again every time the config file changes. Edits to the profile or to feature
flags take effect without restarting.

Example:
  capwire watch --config .capwire/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.configPath()
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("watch needs an existing config file: %w", err)
			}

			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			w, err := watcher.New(watcher.DefaultConfig(path))
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()
			changes, err := w.Start()
			if err != nil {
				return err
			}

			if err := s.printKit(f); err != nil {
				return err
			}

			for reloads := 0; maxReloads <= 0 || reloads < maxReloads; {
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
				}
				if err := s.reload(); err != nil {
					log.Warn(log.CatWatch, "keeping previous config", "path", path, "error", err)
					continue
				}
				reloads++
				log.Info(log.CatWatch, "config changed, rebuilding kit", "path", path, "profile", s.profile().String())
				if err := s.printKit(f); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxReloads, "max-reloads", 0, "exit after this many successful reloads (0 = run until interrupted)")
	_ = cmd.Flags().MarkHidden("max-reloads")
	return cmd
}

// printKit builds a fresh registry and Kit from the current config.
func (s *state) printKit(f *presentation.Formatter) error {
	r := s.registry()
	dto, _ := s.resolveKit(r)
	dto.Profile = presentation.FromProfile(r.Profile())
	stats := r.Stats()
	dto.Stats = stats
	dto.Summary = stats.FormatSummary()
	dto.HitRate = stats.FormatHitRate()
	return f.FormatResolve(dto)
}
