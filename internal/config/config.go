package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/one-release/internal/domain/release"
)

// Config describes how a release is built and laid out.
// Relative paths are resolved against the project root.
type Config struct {
	// Build describes the external build step.
	Build Build `yaml:"build"`
	// Assets describes the static files bundled with the executable.
	Assets Assets `yaml:"assets"`
	// OutputDir is the release directory, recreated on every run.
	OutputDir string `yaml:"output_dir"`
	// Layout is either "flat" or "nested".
	Layout release.Layout `yaml:"layout"`
}

// Build describes the external build step.
type Build struct {
	// Command is the build tool invocation, program first.
	Command []string `yaml:"command"`
	// Dir is the working directory of the build tool.
	Dir string `yaml:"dir"`
	// OutputDir is where the build tool places the executable.
	OutputDir string `yaml:"output_dir"`
	// Executable is the file name of the built executable.
	Executable string `yaml:"executable"`
}

// Assets describes the static files bundled with the executable.
type Assets struct {
	// SourceDir holds the asset files.
	SourceDir string `yaml:"source_dir"`
	// Files are the asset file names.
	Files []string `yaml:"files"`
	// Subdir is the release subdirectory used by the nested layout.
	Subdir string `yaml:"subdir"`
	// Nested lists the assets moved into Subdir by the nested layout.
	Nested []string `yaml:"nested"`
}

const (
	// DefaultConfigFilename is the configuration file looked up in the project root.
	DefaultConfigFilename = "one-release.yaml"

	// DefaultOutputDir is the release directory name.
	DefaultOutputDir = "release"

	// DefaultFilePermissions is used when writing the configuration file.
	DefaultFilePermissions = 0o644
)

var (
	errConfigIsNotSet       = errors.New("configuration is not set")
	errBuildCommandRequired = errors.New("build command must be provided")
	errInvalidName          = errors.New("must be a plain file name")
	errNoAssets             = errors.New("at least one asset file must be listed")
	errDuplicateAsset       = errors.New("asset listed twice")
	errUnknownNestedAsset   = errors.New("nested asset is not listed in assets.files")
	errNothingNested        = errors.New("nested layout requires assets.nested")
	errNotLocalPath         = errors.New("must be a relative path inside the project")
	errOverlappingPaths     = errors.New("output directory contains an input directory")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Build: Build{
			Command:    []string{"cargo", "build", "--release"},
			Dir:        ".",
			OutputDir:  filepath.Join("target", "release"),
			Executable: "one_server.exe",
		},
		Assets: Assets{
			SourceDir: "asset",
			Files:     []string{"cfg.json", "launch.bat"},
			Subdir:    "asset",
			Nested:    []string{"cfg.json"},
		},
		OutputDir: DefaultOutputDir,
		Layout:    release.LayoutFlat,
	}
}

// Load reads configuration from path, fills omitted fields with defaults and validates it.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration %s: %w", path, err)
	}

	if err = Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save validates cfg and writes it to path atomically.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}

	if err = writeFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	return nil
}

// Validate fills empty fields with defaults and checks the result.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if len(cfg.Build.Command) == 0 || cfg.Build.Command[0] == "" {
		return errBuildCommandRequired
	}

	if !cfg.Layout.Valid() {
		return fmt.Errorf("layout: %w: %q", release.ErrUnknownLayout, cfg.Layout)
	}

	if err := checkName("build.executable", cfg.Build.Executable); err != nil {
		return err
	}

	if err := validateAssets(cfg); err != nil {
		return err
	}

	return validatePaths(cfg)
}

func applyDefaults(cfg *Config) {
	def := Default()

	if len(cfg.Build.Command) == 0 {
		cfg.Build.Command = def.Build.Command
	}

	if cfg.Build.Dir == "" {
		cfg.Build.Dir = def.Build.Dir
	}

	if cfg.Build.OutputDir == "" {
		cfg.Build.OutputDir = def.Build.OutputDir
	}

	if cfg.Build.Executable == "" {
		cfg.Build.Executable = def.Build.Executable
	}

	if cfg.Assets.SourceDir == "" {
		cfg.Assets.SourceDir = def.Assets.SourceDir
	}

	if cfg.Assets.Files == nil {
		cfg.Assets.Files = def.Assets.Files
	}

	if cfg.Assets.Subdir == "" {
		cfg.Assets.Subdir = def.Assets.Subdir
	}

	if cfg.Assets.Nested == nil {
		cfg.Assets.Nested = def.Assets.Nested
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}

	if cfg.Layout == "" {
		cfg.Layout = def.Layout
	}
}

func validateAssets(cfg *Config) error {
	if len(cfg.Assets.Files) == 0 {
		return errNoAssets
	}

	for i, name := range cfg.Assets.Files {
		if err := checkName("assets.files", name); err != nil {
			return err
		}

		if slices.Contains(cfg.Assets.Files[:i], name) {
			return fmt.Errorf("%w: %s", errDuplicateAsset, name)
		}
	}

	if cfg.Layout != release.LayoutNested {
		return nil
	}

	if err := checkName("assets.subdir", cfg.Assets.Subdir); err != nil {
		return err
	}

	if len(cfg.Assets.Nested) == 0 {
		return errNothingNested
	}

	for _, name := range cfg.Assets.Nested {
		if !slices.Contains(cfg.Assets.Files, name) {
			return fmt.Errorf("%w: %s", errUnknownNestedAsset, name)
		}
	}

	return nil
}

func validatePaths(cfg *Config) error {
	paths := []struct {
		field, value string
	}{
		{"build.dir", cfg.Build.Dir},
		{"build.output_dir", cfg.Build.OutputDir},
		{"assets.source_dir", cfg.Assets.SourceDir},
		{"output_dir", cfg.OutputDir},
	}

	for _, p := range paths {
		if !filepath.IsLocal(p.value) && filepath.Clean(p.value) != "." {
			return fmt.Errorf("%s %q: %w", p.field, p.value, errNotLocalPath)
		}
	}

	if filepath.Clean(cfg.OutputDir) == "." {
		return fmt.Errorf("output_dir %q: %w", cfg.OutputDir, errNotLocalPath)
	}

	for _, input := range []string{cfg.Assets.SourceDir, cfg.Build.OutputDir} {
		if contains(cfg.OutputDir, input) {
			return fmt.Errorf("%w: %s and %s", errOverlappingPaths, cfg.OutputDir, input)
		}
	}

	return nil
}

// ArtifactPath returns the expected location of the built executable.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Build.OutputDir, c.Build.Executable)
}

// PlanInputs converts the configuration into release plan inputs.
func (c *Config) PlanInputs(artifact string) release.Inputs {
	return release.Inputs{
		Artifact:       artifact,
		AssetSourceDir: c.Assets.SourceDir,
		Assets:         slices.Clone(c.Assets.Files),
		Layout:         c.Layout,
		AssetsSubdir:   c.Assets.Subdir,
		NestedAssets:   slices.Clone(c.Assets.Nested),
	}
}

func checkName(field, name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%s %q: %w", field, name, errInvalidName)
	}

	return nil
}

// contains reports whether dir is path itself or one of its ancestors.
// Removing such a dir would destroy the inputs of the next run.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))

	return err == nil && (rel == "." || filepath.IsLocal(rel))
}
