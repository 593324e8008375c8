package release

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBuildFailure marks errors caused by the external build step.
	ErrBuildFailure = errors.New("build failure")
	// ErrMissingAsset marks errors caused by an absent static asset.
	ErrMissingAsset = errors.New("missing asset")
	// ErrFileSystem marks errors raised while removing, creating or copying files.
	ErrFileSystem = errors.New("file system error")
	// ErrChecksumMismatch is reported when a copy differs from its source.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrUnexpectedContents is reported when the release directory does not match the plan.
	ErrUnexpectedContents = errors.New("unexpected release contents")

	// ErrUnknownLayout is returned for layouts other than flat and nested.
	ErrUnknownLayout = errors.New("unknown layout")
	// ErrNoArtifact is returned when a plan is requested without an artifact.
	ErrNoArtifact = errors.New("artifact path is empty")
	// ErrDuplicateDestination is returned when two placements target the same path.
	ErrDuplicateDestination = errors.New("duplicate destination")
)

// BuildError reports that the build step did not produce a usable executable.
type BuildError struct {
	// Command is the build command line, empty when the build was skipped.
	Command []string
	// ExitCode is the exit status of the build tool, -1 when it did not run to completion.
	ExitCode int
	// Err is the underlying error.
	Err error
}

func (e *BuildError) Error() string {
	if len(e.Command) == 0 {
		return fmt.Sprintf("%s: %v", ErrBuildFailure, e.Err)
	}

	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %q exited with status %d: %v",
			ErrBuildFailure, strings.Join(e.Command, " "), e.ExitCode, e.Err)
	}

	return fmt.Sprintf("%s: %q: %v", ErrBuildFailure, strings.Join(e.Command, " "), e.Err)
}

// Unwrap exposes both ErrBuildFailure and the underlying error.
func (e *BuildError) Unwrap() []error {
	return []error{ErrBuildFailure, e.Err}
}

// MissingAssetError reports a static asset absent from the asset source directory.
type MissingAssetError struct {
	// Path is the expected location of the asset.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMissingAsset, e.Path, e.Err)
}

// Unwrap exposes both ErrMissingAsset and the underlying error.
func (e *MissingAssetError) Unwrap() []error {
	return []error{ErrMissingAsset, e.Err}
}

// FileSystemError reports a failed remove, create, copy or verify operation.
type FileSystemError struct {
	// Op is the failed operation.
	Op string
	// Path is the file or directory the operation was applied to.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrFileSystem, e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrFileSystem and the underlying error.
func (e *FileSystemError) Unwrap() []error {
	return []error{ErrFileSystem, e.Err}
}
