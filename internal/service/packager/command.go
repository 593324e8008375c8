package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/one-release/internal/config"
	"github.com/oshokin/one-release/internal/domain/release"
	"github.com/oshokin/one-release/internal/logger"
	"github.com/oshokin/one-release/internal/repository/releasedir"
	"github.com/oshokin/one-release/internal/service/builder"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ProjectRoot is the directory all configured paths are relative to (defaults to the working directory).
	ProjectRoot string
	// ConfigPath is an explicit configuration file. When empty, one-release.yaml in
	// ProjectRoot is used if present, built-in defaults otherwise.
	ConfigPath string
	// Layout overrides the configured layout when set.
	Layout string
	// SkipBuild packages the executable left by a previous build.
	SkipBuild bool
	// Force skips the running-executable check.
	Force bool
}

// PlacedFile describes one file of a finished release.
type PlacedFile struct {
	// Path is slash-separated and relative to the release directory.
	Path string
	// Kind is either an artifact or an asset.
	Kind release.Kind
	// Size is the number of bytes copied.
	Size int64
	// Checksum is the base64-encoded SHA-512 digest.
	Checksum string
}

// Result describes a finished release.
type Result struct {
	// OutputDir is the release directory relative to the project root.
	OutputDir string
	// Layout is the layout the release was assembled with.
	Layout release.Layout
	// Files are the placed files in plan order.
	Files []PlacedFile
}

// packager runs the packaging pipeline for one configuration.
// Callers outside the package use Run.
type packager struct {
	// cfg is the validated packaging configuration.
	cfg *config.Config
	// dir performs file operations relative to the project root.
	dir *releasedir.Directory
	// builder produces the executable.
	builder builder.Builder
	// processes lists running processes for the running-executable check; nil disables the check.
	processes processLister
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "one-release")

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}

	cfg, err := loadConfig(root, opts)
	if err != nil {
		return nil, err
	}

	var b builder.Builder = builder.NewCommandBuilder(root, cfg)
	if opts.SkipBuild {
		b = builder.NewPrebuilt(root, cfg)
	}

	p := newPackager(cfg, releasedir.New(osfs.New(root)), b)
	if !opts.Force {
		p.processes = ps.Processes
	}

	return p.Run(ctx)
}

func loadConfig(root string, opts *Options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOrDefault(filepath.Join(root, config.DefaultConfigFilename))
	}

	if err != nil {
		return nil, err
	}

	if opts.Layout != "" {
		if cfg.Layout, err = release.ParseLayout(opts.Layout); err != nil {
			return nil, err
		}

		if err = config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func newPackager(cfg *config.Config, dir *releasedir.Directory, b builder.Builder) *packager {
	return &packager{
		cfg:     cfg,
		dir:     dir,
		builder: b,
	}
}

// Run builds the executable and assembles the release directory.
func (p *packager) Run(ctx context.Context) (*Result, error) {
	if p.processes != nil {
		if err := ensureNotRunning(ctx, p.cfg.Build.Executable, p.processes); err != nil {
			return nil, err
		}
	}

	artifact, err := p.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := release.NewPlan(p.cfg.PlanInputs(artifact))
	if err != nil {
		return nil, fmt.Errorf("plan release: %w", err)
	}

	if err = p.preflight(plan); err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	var (
		output  = filepath.Clean(p.cfg.OutputDir)
		staging = siblingPath(output, "staging")
		backup  = siblingPath(output, "previous")
	)

	logger.InfoKV(ctx, "Assembling release", "output", output, "layout", plan.Layout)

	// Leftovers of an interrupted run.
	for _, path := range []string{staging, backup} {
		if err = p.dir.Remove(path); err != nil {
			return nil, err
		}
	}

	files, err := p.stage(ctx, plan, staging)
	if err != nil {
		_ = p.dir.Remove(staging)
		return nil, err
	}

	if err = p.dir.Swap(staging, output, backup); err != nil {
		_ = p.dir.Remove(staging)
		return nil, err
	}

	if err = p.verifyContents(plan, output); err != nil {
		return nil, err
	}

	result := &Result{
		OutputDir: output,
		Layout:    plan.Layout,
		Files:     files,
	}

	p.report(ctx, result)

	return result, nil
}

// preflight checks every source exists before anything is removed.
func (p *packager) preflight(plan *release.Plan) error {
	for _, pl := range plan.Placements {
		if _, err := p.dir.StatFile(pl.Source); err != nil {
			return classify(pl, err)
		}
	}

	return nil
}

// stage lays out the release in staging and copies every placement into it.
func (p *packager) stage(ctx context.Context, plan *release.Plan, staging string) ([]PlacedFile, error) {
	if err := p.dir.Reset(staging); err != nil {
		return nil, err
	}

	for _, dir := range plan.Dirs {
		if err := p.dir.MkdirAll(filepath.Join(staging, dir)); err != nil {
			return nil, err
		}
	}

	files := make([]PlacedFile, 0, len(plan.Placements))

	for _, pl := range plan.Placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		placed, err := p.place(pl, staging)
		if err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Placed file", "kind", pl.Kind, "source", pl.Source, "destination", placed.Path)

		files = append(files, placed)
	}

	return files, nil
}

// place copies one file and checks the copy against the source checksum.
func (p *packager) place(pl release.Placement, staging string) (PlacedFile, error) {
	dst := filepath.Join(staging, pl.Destination)

	size, err := p.dir.Copy(pl.Source, dst)
	if err != nil {
		return PlacedFile{}, classify(pl, err)
	}

	want, err := p.dir.Checksum(pl.Source)
	if err != nil {
		return PlacedFile{}, classify(pl, err)
	}

	got, err := p.dir.Checksum(dst)
	if err != nil {
		return PlacedFile{}, err
	}

	if !slices.Equal(want, got) {
		return PlacedFile{}, &release.FileSystemError{
			Op:   "verify",
			Path: dst,
			Err:  release.ErrChecksumMismatch,
		}
	}

	return PlacedFile{
		Path:     filepath.ToSlash(pl.Destination),
		Kind:     pl.Kind,
		Size:     size,
		Checksum: base64.StdEncoding.EncodeToString(got),
	}, nil
}

// verifyContents checks the release holds exactly the planned files.
func (p *packager) verifyContents(plan *release.Plan, output string) error {
	files, err := p.dir.List(output)
	if err != nil {
		return err
	}

	if want := plan.Files(); !slices.Equal(want, files) {
		return &release.FileSystemError{
			Op:   "verify",
			Path: output,
			Err:  fmt.Errorf("%w: got %v, want %v", release.ErrUnexpectedContents, files, want),
		}
	}

	return nil
}

// report logs the completion line and, at debug level, every placed file.
func (p *packager) report(ctx context.Context, result *Result) {
	for _, f := range result.Files {
		logger.DebugKV(ctx, "Release file", "path", f.Path, "size", f.Size, "sha512", f.Checksum)
	}

	logger.Infof(ctx, "Release is ready in %s", result.OutputDir)
}

// classify turns a missing asset source into a MissingAssetError.
func classify(pl release.Placement, err error) error {
	if pl.Kind == release.KindAsset && errors.Is(err, fs.ErrNotExist) {
		return &release.MissingAssetError{
			Path: pl.Source,
			Err:  fs.ErrNotExist,
		}
	}

	if pl.Kind == release.KindArtifact && errors.Is(err, fs.ErrNotExist) {
		return &release.BuildError{
			ExitCode: -1,
			Err:      err,
		}
	}

	return err
}

// siblingPath returns a hidden directory next to output, e.g. .release.staging.
func siblingPath(output, suffix string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+"."+suffix)
}
