// Package config provides configuration types and defaults for capwire.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/zjrosen/capwire/internal/log"
	"github.com/zjrosen/capwire/internal/profile"
	"github.com/zjrosen/capwire/internal/tracing"
)

// Config holds all configuration options for capwire.
type Config struct {
	Profile ProfileConfig   `mapstructure:"profile" yaml:"profile"`
	Log     LogConfig       `mapstructure:"log" yaml:"log"`
	Tracing tracing.Config  `mapstructure:"tracing" yaml:"tracing"`
	History HistoryConfig   `mapstructure:"history" yaml:"history"`
	Flags   map[string]bool `mapstructure:"flags" yaml:"flags,omitempty"`
}

// ProfileConfig overrides parts of the detected runtime profile.
// Zero values keep the detected value.
type ProfileConfig struct {
	VersionTier int    `mapstructure:"version_tier" yaml:"version_tier,omitempty"`
	VendorTag   string `mapstructure:"vendor_tag" yaml:"vendor_tag,omitempty"`
	Arch        string `mapstructure:"arch" yaml:"arch,omitempty"` // "32", "64" or empty
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// Path enables file logging when set.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
	// Level is one of debug, info, warn, error. Default: info.
	Level string `mapstructure:"level" yaml:"level"`
}

// HistoryConfig locates the resolution history database.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// Overrides converts the configured values into profile overrides.
func (p ProfileConfig) Overrides() profile.Overrides {
	var o profile.Overrides
	if p.VersionTier > 0 {
		tier := p.VersionTier
		o.VersionTier = &tier
	}
	if p.VendorTag != "" {
		vendor := p.VendorTag
		o.VendorTag = &vendor
	}
	switch p.Arch {
	case "32":
		o.Is64Bit = new(bool)
	case "64":
		is64 := true
		o.Is64Bit = &is64
	}
	return o
}

// Resolve applies the overrides to the detected profile.
func (p ProfileConfig) Resolve() profile.Profile {
	return profile.Current().Apply(p.Overrides())
}

// ProfileConfigFrom captures p in configuration form.
func ProfileConfigFrom(p profile.Profile) ProfileConfig {
	arch := "32"
	if p.Is64Bit {
		arch = "64"
	}
	return ProfileConfig{VersionTier: p.VersionTier, VendorTag: p.VendorTag, Arch: arch}
}

var logLevels = []string{"debug", "info", "warn", "error"}

// DefaultTracesFilePath returns ~/.config/capwire/traces/traces.jsonl, or an
// empty string when the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "capwire", "traces", "traces.jsonl")
}

// DefaultHistoryPath returns ~/.config/capwire/history.db, or an empty
// string when the home directory is unavailable.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "capwire", "history.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Log:     LogConfig{Level: "info"},
		Tracing: tc,
		History: HistoryConfig{Path: DefaultHistoryPath()},
		Flags:   map[string]bool{},
	}
}

// ValidateProfile checks profile overrides for errors.
func ValidateProfile(p ProfileConfig) error {
	if p.VersionTier < 0 {
		return fmt.Errorf("profile.version_tier must not be negative, got %d", p.VersionTier)
	}
	switch p.Arch {
	case "", "32", "64":
	default:
		return fmt.Errorf("profile.arch must be \"32\" or \"64\", got %q", p.Arch)
	}
	return nil
}

// ValidateLog checks logging configuration for errors.
func ValidateLog(l LogConfig) error {
	if l.Level != "" && !slices.Contains(logLevels, l.Level) {
		return fmt.Errorf("log.level must be one of %v, got %q", logLevels, l.Level)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateProfile(c.Profile); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# capwire configuration

# Runtime profile overrides. Leave unset to use the detected toolchain.
profile:
  # version_tier: 22      # Go minor release to resolve for (go1.22 -> 22)
  # vendor_tag: gccgo     # gc, gccgo, tinygo, gopherjs
  # arch: "64"            # "32" or "64"

# Debug log (disabled unless path is set)
log:
  level: info
  # path: ~/.config/capwire/debug.log

# Resolution tracing
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ~/.config/capwire/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Resolution history written by "capwire resolve --record"
# history:
#   path: ~/.config/capwire/history.db

# Feature flags
flags:
  privileged-strategies: false
  strict-candidates: false
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
