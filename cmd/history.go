package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/capwire/internal/history"
	"github.com/zjrosen/capwire/internal/infrastructure/sqlite"
	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/presentation"
)

// withHistory opens the history database for the duration of fn.
func (s *state) withHistory(fn func(history.Repository) error) error {
	if s.cfg.History.Path == "" {
		return errors.New("history.path is not set")
	}
	db, err := sqlite.NewDB(s.cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn(log.CatHistory, "closing history database", "error", err)
		}
	}()
	return fn(db.HistoryRepository())
}

func (s *state) record(sess *history.Session) error {
	return s.withHistory(func(repo history.Repository) error {
		return repo.Save(sess)
	})
}

func newHistoryCmd(s *state) *cobra.Command {
	var filter history.ListFilter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List sessions saved with resolve --record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}
			return s.withHistory(func(repo history.Repository) error {
				sums, err := repo.List(filter)
				if err != nil {
					return err
				}
				return f.FormatHistory(presentation.FromSummaries(sums))
			})
		},
	}
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum sessions to list (0 = all)")
	cmd.Flags().StringVar(&filter.Capability, "capability", "", "only sessions that resolved this capability")

	cmd.AddCommand(newHistoryShowCmd(s), newHistoryDiffCmd(s), newHistoryPruneCmd(s))
	return cmd
}

func newHistoryShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session>",
		Short: "Show one recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}
			return s.withHistory(func(repo history.Repository) error {
				sess, err := repo.Find(args[0])
				if err != nil {
					return err
				}
				return f.FormatSession(presentation.FromSession(sess))
			})
		},
	}
}

func newHistoryDiffCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <base-session> <other-session>",
		Short: "Compare the strategies two recorded sessions chose",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.formatter(cmd)
			if err != nil {
				return err
			}
			return s.withHistory(func(repo history.Repository) error {
				base, err := repo.Find(args[0])
				if err != nil {
					return err
				}
				other, err := repo.Find(args[1])
				if err != nil {
					return err
				}
				return f.FormatDiff(presentation.Diff(
					sessionLabel(base), base.Chosen(),
					sessionLabel(other), other.Chosen(),
				))
			})
		},
	}
}

func sessionLabel(sess *history.Session) string {
	return fmt.Sprintf("%s (%s)", sess.ID, sess.Profile)
}

func newHistoryPruneCmd(s *state) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded sessions older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return s.withHistory(func(repo history.Repository) error {
				n, err := repo.Prune(time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions\n", n)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the oldest session to keep")
	return cmd
}
