package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/one-release/internal/logger"
)

// ErrExecutableRunning is returned when the executable being packaged is running.
// A running server keeps its release files locked on Windows.
var ErrExecutableRunning = errors.New("the executable is running now, stop it or use --force")

// processLister returns the running processes.
type processLister func() ([]ps.Process, error)

// ensureNotRunning fails if a process other than the current one runs an executable named name.
func ensureNotRunning(ctx context.Context, name string, list processLister) error {
	processes, err := list()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list running processes, skipping the check", "error", err)
		return nil
	}

	self := os.Getpid()
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		executable := process.Executable()
		if strings.EqualFold(executable, name) || strings.EqualFold(executable, stem) {
			return fmt.Errorf("%w: %s (pid %d)", ErrExecutableRunning, executable, process.Pid())
		}
	}

	return nil
}
