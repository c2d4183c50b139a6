package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/capwire/internal/builtin"
	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/config"
	"github.com/zjrosen/capwire/internal/flags"
	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/presentation"
	"github.com/zjrosen/capwire/internal/profile"
	"github.com/zjrosen/capwire/internal/tracing"
)

const localConfigPath = ".capwire/config.yaml"

var version = "dev"

// state is shared by every subcommand of one invocation.
type state struct {
	cfgFile string
	output  string
	arch32  bool

	v        *viper.Viper
	cfg      config.Config
	flags    *flags.Registry
	tracer   *tracing.Provider
	closeLog func()
}

// NewRootCmd builds the capwire command tree.
func NewRootCmd() *cobra.Command {
	s := &state{v: viper.New()}

	root := &cobra.Command{
		Use:   "capwire",
		Short: "Inspect capability resolution for the running toolchain",
		Long: `capwire resolves abstract capabilities to the concrete strategy best suited
to the detected Go toolchain (release tier, vendor and word size).

Use it to see which candidates a capability would try, which strategies are
registered, and what a full resolution pass picks, optionally under an
overridden profile.`,
		Version:            version,
		SilenceUsage:       true,
		PersistentPreRunE:  func(cmd *cobra.Command, _ []string) error { return s.init(cmd) },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error { return s.shutdown(cmd.Context()) },
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&s.cfgFile, "config", "c", "",
		"config file (default: .capwire/config.yaml, then ~/.config/capwire/config.yaml)")
	pf.Int("tier", 0, "override the version tier (e.g. 22 for go1.22)")
	pf.String("vendor", "", "override the toolchain vendor (gc, gccgo, tinygo, gopherjs)")
	pf.BoolVar(&s.arch32, "arch32", false, "resolve as a 32-bit platform")
	pf.StringVarP(&s.output, "output", "o", presentation.FormatJSON, "output format: json, yaml or text")

	_ = s.v.BindPFlag("profile.version_tier", pf.Lookup("tier"))
	_ = s.v.BindPFlag("profile.vendor_tag", pf.Lookup("vendor"))

	root.AddCommand(
		newProfileCmd(s),
		newCandidatesCmd(s),
		newResolveCmd(s),
		newCatalogCmd(s),
		newConfigCmd(s),
		newWatchCmd(s),
		newHistoryCmd(s),
		newDiffCmd(s),
	)
	return root
}

func (s *state) init(cmd *cobra.Command) error {
	defaults := config.Defaults()
	s.v.SetDefault("log.level", defaults.Log.Level)
	s.v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	s.v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	s.v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	s.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	s.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	s.v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	s.v.SetDefault("history.path", defaults.History.Path)

	s.v.SetEnvPrefix("CAPWIRE")
	s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	s.v.AutomaticEnv()

	// Config lookup order:
	// 1. --config
	// 2. .capwire/config.yaml (current directory)
	// 3. ~/.config/capwire/config.yaml (user config)
	if s.cfgFile != "" {
		s.v.SetConfigFile(s.cfgFile)
	} else if _, err := os.Stat(localConfigPath); err == nil {
		s.v.SetConfigFile(localConfigPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			s.v.AddConfigPath(filepath.Join(home, ".config", "capwire"))
		}
		s.v.SetConfigName("config")
		s.v.SetConfigType("yaml")
	}

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := s.decode(); err != nil {
		return err
	}

	if s.cfg.Log.Path != "" {
		closeLog, err := log.Init(s.cfg.Log.Path, log.ParseLevel(s.cfg.Log.Level))
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		s.closeLog = closeLog
	}
	log.Debug(log.CatCLI, "command starting", "command", cmd.CommandPath(), "config", s.v.ConfigFileUsed())

	s.flags = flags.New(s.cfg.Flags)

	tp, err := tracing.NewProvider(s.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	s.tracer = tp
	return nil
}

// decode unmarshals the loaded config over the defaults and validates it.
func (s *state) decode() error {
	cfg := config.Defaults()
	if err := s.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if s.arch32 {
		cfg.Profile.Arch = "32"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	s.cfg = cfg
	return nil
}

// reload re-reads the config file. The previous configuration stays in
// effect when the new one does not parse or validate.
func (s *state) reload() error {
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := s.decode(); err != nil {
		return err
	}
	s.flags = flags.New(s.cfg.Flags)
	return nil
}

func (s *state) shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if shutdownErr := s.tracer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("flushing traces: %w", shutdownErr)
		}
	}
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
	return err
}

// profile is the detected profile with configuration overrides applied.
func (s *state) profile() profile.Profile {
	return s.cfg.Profile.Resolve()
}

func (s *state) registry(opts ...capability.RegistryOption) *capability.Registry {
	base := []capability.RegistryOption{
		capability.WithProfile(s.profile()),
		capability.WithTracer(s.tracer.Tracer()),
	}
	return capability.NewRegistry(builtin.Catalog(), append(base, opts...)...)
}

func (s *state) formatter(cmd *cobra.Command) (*presentation.Formatter, error) {
	return presentation.NewFormatter(cmd.OutOrStdout(), s.output)
}

// configPath is where config writes go: the loaded file, else the local default.
func (s *state) configPath() string {
	if used := s.v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); !errors.Is(err, fs.ErrNotExist) {
			return used
		}
	}
	if s.cfgFile != "" {
		return s.cfgFile
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
