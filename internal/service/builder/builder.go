package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oshokin/one-release/internal/config"
	"github.com/oshokin/one-release/internal/domain/release"
	"github.com/oshokin/one-release/internal/logger"
)

// Builder produces the release executable.
type Builder interface {
	// Build returns the path of the executable relative to the project root.
	// Failures are reported as *release.BuildError.
	Build(ctx context.Context) (string, error)
}

var (
	errArtifactMissing = errors.New("executable was not produced")
	errArtifactNotFile = errors.New("executable is not a regular file")
)

// CommandBuilder runs the configured build command as an external process.
type CommandBuilder struct {
	// root is the project root.
	root string
	// dir is the working directory of the build tool.
	dir string
	// command is the build tool invocation, program first.
	command []string
	// artifact is the executable path relative to root.
	artifact string
	// env is appended to the current process environment.
	env []string
	// stdout and stderr receive the build tool output unmodified.
	stdout io.Writer
	stderr io.Writer
}

// Option customizes a CommandBuilder.
type Option func(*CommandBuilder)

// WithOutput redirects the build tool output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *CommandBuilder) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithEnv appends KEY=VALUE pairs to the build tool environment.
func WithEnv(env ...string) Option {
	return func(b *CommandBuilder) {
		b.env = append(b.env, env...)
	}
}

// NewCommandBuilder creates a builder running cfg.Build.Command inside root.
func NewCommandBuilder(root string, cfg *config.Config, opts ...Option) *CommandBuilder {
	b := &CommandBuilder{
		root:     root,
		dir:      filepath.Join(root, cfg.Build.Dir),
		command:  slices.Clone(cfg.Build.Command),
		artifact: cfg.ArtifactPath(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build runs the build command and checks that it produced the executable.
func (b *CommandBuilder) Build(ctx context.Context) (string, error) {
	logger.InfoKV(ctx, "Building application", "command", strings.Join(b.command, " "), "dir", b.dir)

	//nolint:gosec // The command comes from the project configuration.
	cmd := exec.CommandContext(ctx, b.command[0], b.command[1:]...)
	cmd.Dir = b.dir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr

	if len(b.env) > 0 {
		cmd.Env = append(os.Environ(), b.env...)
	}

	if err := cmd.Run(); err != nil {
		exitCode := -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return "", &release.BuildError{
			Command:  slices.Clone(b.command),
			ExitCode: exitCode,
			Err:      err,
		}
	}

	if err := verifyArtifact(b.root, b.artifact); err != nil {
		return "", &release.BuildError{
			Command:  slices.Clone(b.command),
			ExitCode: 0,
			Err:      err,
		}
	}

	logger.InfoKV(ctx, "Build finished", "artifact", b.artifact)

	return b.artifact, nil
}

// Prebuilt skips compilation and uses an executable produced earlier.
type Prebuilt struct {
	root     string
	artifact string
}

// NewPrebuilt returns a builder that only checks cfg.ArtifactPath inside root.
func NewPrebuilt(root string, cfg *config.Config) *Prebuilt {
	return &Prebuilt{
		root:     root,
		artifact: cfg.ArtifactPath(),
	}
}

// Build verifies the executable exists.
func (p *Prebuilt) Build(ctx context.Context) (string, error) {
	logger.InfoKV(ctx, "Skipping build, using existing executable", "artifact", p.artifact)

	if err := verifyArtifact(p.root, p.artifact); err != nil {
		return "", &release.BuildError{
			ExitCode: -1,
			Err:      err,
		}
	}

	return p.artifact, nil
}

func verifyArtifact(root, artifact string) error {
	info, err := os.Stat(filepath.Join(root, artifact))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", errArtifactMissing, artifact)
	}

	if err != nil {
		return fmt.Errorf("stat %s: %w", artifact, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", errArtifactNotFile, artifact)
	}

	return nil
}
