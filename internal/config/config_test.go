package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/one-release/internal/domain/release"
)

// TestDefault checks the built-in configuration is valid and matches the usual project layout.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, filepath.Join("target", "release", "one_server.exe"), cfg.ArtifactPath())
	require.Equal(t, release.LayoutFlat, cfg.Layout)
	require.Equal(t, []string{"cfg.json", "launch.bat"}, cfg.Assets.Files)
}

// TestValidate checks required fields and path rules.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Empty config is completed with defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultOutputDir, cfg.OutputDir)

	cases := map[string]func(*Config){
		"empty program": func(c *Config) { c.Build.Command = []string{""} },
		"bad layout":    func(c *Config) { c.Layout = "zip" },
		"exe with dir":  func(c *Config) { c.Build.Executable = "bin/one_server.exe" },
		"asset dir":     func(c *Config) { c.Assets.Files = []string{"../cfg.json"} },
		"no assets":     func(c *Config) { c.Assets.Files = []string{} },
		"duplicate":     func(c *Config) { c.Assets.Files = []string{"cfg.json", "cfg.json"} },
		"absolute out":  func(c *Config) { c.OutputDir = filepath.Join(string(filepath.Separator), "tmp", "release") },
		"escaping out":  func(c *Config) { c.OutputDir = filepath.Join("..", "release") },
		"root out":      func(c *Config) { c.OutputDir = "." },
		"out is assets": func(c *Config) { c.OutputDir = "asset" },
		"out has build": func(c *Config) { c.OutputDir = "target" },
		"unknown nested": func(c *Config) {
			c.Layout = release.LayoutNested
			c.Assets.Nested = []string{"other.json"}
		},
		"nothing nested": func(c *Config) {
			c.Layout = release.LayoutNested
			c.Assets.Nested = []string{}
		},
	}

	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		require.Error(t, Validate(cfg), name)
	}

	// Output inside an input directory is fine.
	cfg = Default()
	cfg.Build.OutputDir = "."
	require.NoError(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures configuration is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)

	cfg := Default()
	cfg.Layout = release.LayoutNested
	cfg.Build.Command = []string{"cargo", "build", "--release", "--locked"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

// TestLoadPartialFile fills omitted fields with defaults.
func TestLoadPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: nested\noutput_dir: dist\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, release.LayoutNested, cfg.Layout)
	require.Equal(t, "dist", cfg.OutputDir)
	require.Equal(t, Default().Build, cfg.Build)
}

// TestLoadOrDefault returns defaults only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("layout: [flat"), 0o600))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
