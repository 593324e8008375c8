package packager

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/one-release/internal/config"
)

type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

func listing(processes ...ps.Process) processLister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

// TestEnsureNotRunning matches the executable name with or without extension, ignoring case.
func TestEnsureNotRunning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.NoError(t, ensureNotRunning(ctx, "one_server.exe", listing(
		fakeProcess{pid: 10, executable: "cargo"},
	)))

	require.ErrorIs(t, ensureNotRunning(ctx, "one_server.exe", listing(
		fakeProcess{pid: 11, executable: "ONE_SERVER.EXE"},
	)), ErrExecutableRunning)

	require.ErrorIs(t, ensureNotRunning(ctx, "one_server.exe", listing(
		fakeProcess{pid: 12, executable: "one_server"},
	)), ErrExecutableRunning)

	// The packager itself never blocks.
	require.NoError(t, ensureNotRunning(ctx, "one_server.exe", listing(
		fakeProcess{pid: os.Getpid(), executable: "one_server.exe"},
	)))

	// Listing failures are logged and ignored.
	require.NoError(t, ensureNotRunning(ctx, "one_server.exe", func() ([]ps.Process, error) {
		return nil, errors.New("permission denied")
	}))
}

// TestRun_ExecutableRunning refuses to package before building.
func TestRun_ExecutableRunning(t *testing.T) {
	t.Parallel()

	root := newProject(t)
	cfg := config.Default()
	b := &fakeBuilder{artifact: cfg.ArtifactPath()}

	p := newTestPackager(root, cfg, b)
	p.processes = listing(fakeProcess{pid: 4242, executable: "one_server.exe"})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrExecutableRunning)
	require.Zero(t, b.calls)
}
