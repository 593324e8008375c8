package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/one-release/internal/config"
	"github.com/oshokin/one-release/internal/domain/release"
)

const helperEnv = "ONE_RELEASE_WANT_HELPER_PROCESS"

// TestHelperProcess is not a real test: it stands in for the build toolchain when re-executed by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}

	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "build":
		_ = os.MkdirAll(filepath.Join("target", "release"), 0o755)
		_ = os.WriteFile(filepath.Join("target", "release", "one_server.exe"), []byte("binary"), 0o755)

		fmt.Println("Finished release [optimized] target(s)")
		os.Exit(0)
	case "noop":
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "error: could not compile `one_server`")
		os.Exit(101)
	default:
		os.Exit(2)
	}
}

func helperConfig(t *testing.T, mode string) *config.Config {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Build.Command = []string{exe, "-test.run=TestHelperProcess", "--", mode}

	return cfg
}

// TestCommandBuilder_Success runs the fake toolchain and returns the artifact path.
func TestCommandBuilder_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	var stdout, stderr bytes.Buffer

	b := NewCommandBuilder(root, helperConfig(t, "build"),
		WithOutput(&stdout, &stderr),
		WithEnv(helperEnv+"=1"),
	)

	artifact, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join("target", "release", "one_server.exe"), artifact)
	require.Contains(t, stdout.String(), "Finished release")

	_, err = os.Stat(filepath.Join(root, artifact))
	require.NoError(t, err)
}

// TestCommandBuilder_NonZeroExit reports a BuildError carrying the exit status and passes stderr through.
func TestCommandBuilder_NonZeroExit(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	b := NewCommandBuilder(t.TempDir(), helperConfig(t, "fail"),
		WithOutput(&stdout, &stderr),
		WithEnv(helperEnv+"=1"),
	)

	_, err := b.Build(context.Background())
	require.ErrorIs(t, err, release.ErrBuildFailure)

	var buildErr *release.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, 101, buildErr.ExitCode)
	require.Contains(t, stderr.String(), "could not compile")
}

// TestCommandBuilder_NoArtifact fails when the toolchain succeeds without producing the executable.
func TestCommandBuilder_NoArtifact(t *testing.T) {
	t.Parallel()

	b := NewCommandBuilder(t.TempDir(), helperConfig(t, "noop"),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithEnv(helperEnv+"=1"),
	)

	_, err := b.Build(context.Background())
	require.ErrorIs(t, err, release.ErrBuildFailure)
	require.ErrorIs(t, err, errArtifactMissing)
}

// TestCommandBuilder_UnknownProgram reports a BuildError without an exit status.
func TestCommandBuilder_UnknownProgram(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Build.Command = []string{filepath.Join(t.TempDir(), "no-such-toolchain")}

	_, err := NewCommandBuilder(t.TempDir(), cfg).Build(context.Background())

	var buildErr *release.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, -1, buildErr.ExitCode)
}

// TestPrebuilt checks an existing artifact without running anything.
func TestPrebuilt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := config.Default()

	_, err := NewPrebuilt(root, cfg).Build(context.Background())
	require.ErrorIs(t, err, release.ErrBuildFailure)

	require.NoError(t, os.MkdirAll(filepath.Join(root, cfg.Build.OutputDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, cfg.ArtifactPath()), []byte("binary"), 0o755))

	artifact, err := NewPrebuilt(root, cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, cfg.ArtifactPath(), artifact)
}
