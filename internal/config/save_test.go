package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSaveProfile_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveProfile(path, ProfileConfig{VersionTier: 22, VendorTag: "gccgo", Arch: "64"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version_tier: 22")
	assert.Contains(t, string(data), "vendor_tag: gccgo")

	cfg := load(t, path)
	require.Equal(t, 22, cfg.Profile.VersionTier)
	require.Equal(t, "64", cfg.Profile.Arch)
}

func TestSaveProfile_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# top comment
log:
  level: debug # keep me
profile:
  version_tier: 18
`
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	require.NoError(t, SaveProfile(path, ProfileConfig{VersionTier: 23}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# top comment")
	assert.Contains(t, string(data), "# keep me")
	assert.NotContains(t, string(data), "version_tier: 18")

	cfg := load(t, path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 23, cfg.Profile.VersionTier)
}

func TestSaveFlags_AppendsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	require.NoError(t, SaveFlags(path, map[string]bool{"privileged-strategies": true}))

	cfg := load(t, path)
	require.Equal(t, "warn", cfg.Log.Level)
	require.True(t, cfg.Flags["privileged-strategies"])
}

func TestSaveFlags_OverDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveFlags(path, map[string]bool{"strict-candidates": true}))

	cfg := load(t, path)
	require.True(t, cfg.Flags["strict-candidates"])
	require.NoError(t, cfg.Validate())
}

func TestSave_RejectsNonMappingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	require.Error(t, SaveFlags(path, map[string]bool{}))
}

func TestSave_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed\n"), 0o600))

	err := SaveProfile(path, ProfileConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing config")
}
