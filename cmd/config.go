package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/capwire/internal/config"
	"github.com/zjrosen/capwire/internal/flags"
)

func newConfigCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the capwire configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(s), newConfigShowCmd(s), newConfigPinCmd(s), newConfigFlagCmd(s))
	return cmd
}

func newConfigInitCmd(s *state) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := s.configPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(s.cfg); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}

func newConfigPinCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "pin",
		Short: "Save the current profile (with any overrides) to the config file",
		Long: `Save the current profile to the config file so later runs resolve against it
regardless of the toolchain they run under.

Example:
  capwire config pin --tier 21 --vendor gccgo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.configPath()
			p := s.profile()
			if err := config.SaveProfile(path, config.ProfileConfigFrom(p)); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pinned %s in %s\n", p, path)
			return err
		},
	}
}

func newConfigFlagCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "flag <name> <on|off>",
		Short: "Enable or disable a feature flag in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := flags.Known[name]; !ok {
				return fmt.Errorf("unknown flag %q (known: %v)", name, flags.Names())
			}
			var on bool
			switch args[1] {
			case "on", "true":
				on = true
			case "off", "false":
			default:
				return fmt.Errorf("flag value must be on or off, got %q", args[1])
			}

			updated := s.flags.All()
			updated[name] = on
			path := s.configPath()
			if err := config.SaveFlags(path, updated); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s=%t in %s\n", name, on, path)
			return err
		},
	}
}
