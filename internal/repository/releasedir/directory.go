package releasedir

import (
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/oshokin/one-release/internal/domain/release"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultDirMode is used for every directory created inside a release.
	DefaultDirMode os.FileMode = 0o755

	// ChecksumFunction hashes release files.
	ChecksumFunction crypto.Hash = crypto.SHA512
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	errNotRegularFile  = errors.New("not a regular file")
	errNotDirectory    = errors.New("not a directory")
)

// Directory performs release file operations on a billy filesystem.
type Directory struct {
	fs billy.Filesystem
}

// New returns a Directory operating on fs. Paths passed to its methods are relative to fs.
func New(fs billy.Filesystem) *Directory {
	return &Directory{
		fs: fs,
	}
}

// Root returns the root of the underlying filesystem.
func (d *Directory) Root() string {
	return d.fs.Root()
}

// Exists reports whether path exists.
func (d *Directory) Exists(path string) (bool, error) {
	_, err := d.fs.Stat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fsError("stat", path, err)
	}
}

// StatFile returns file information for path and fails unless it is a regular file.
func (d *Directory) StatFile(path string) (os.FileInfo, error) {
	info, err := d.fs.Stat(path)
	if err != nil {
		return nil, fsError("stat", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fsError("stat", path, errNotRegularFile)
	}

	return info, nil
}

// Remove deletes path and everything below it. A missing path is not an error.
func (d *Directory) Remove(path string) error {
	if err := util.RemoveAll(d.fs, path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fsError("remove", path, err)
	}

	return nil
}

// MkdirAll creates path along with any missing parents.
func (d *Directory) MkdirAll(path string) error {
	if err := d.fs.MkdirAll(path, DefaultDirMode); err != nil {
		return fsError("mkdir", path, err)
	}

	return nil
}

// Reset removes path if present and recreates it empty.
func (d *Directory) Reset(path string) error {
	if err := d.Remove(path); err != nil {
		return err
	}

	return d.MkdirAll(path)
}

// Copy copies the regular file src to dst keeping its permission bits and returns the number of bytes written.
// The parent directory of dst must exist.
func (d *Directory) Copy(src, dst string) (int64, error) {
	info, err := d.StatFile(src)
	if err != nil {
		return 0, err
	}

	in, err := d.fs.Open(src)
	if err != nil {
		return 0, fsError("open", src, err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := d.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fsError("create", dst, err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return written, fsError("copy", dst, err)
	}

	if err = out.Close(); err != nil {
		return written, fsError("close", dst, err)
	}

	return written, nil
}

// Checksum returns the ChecksumFunction digest of the file at path.
func (d *Directory) Checksum(path string) ([]byte, error) {
	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	f, err := d.fs.Open(path)
	if err != nil {
		return nil, fsError("open", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := ChecksumFunction.New()
	if _, err = io.Copy(hasher, f); err != nil {
		return nil, fsError("checksum", path, err)
	}

	return hasher.Sum(nil), nil
}

// List returns the sorted slash-separated paths of all regular files below root, relative to root.
func (d *Directory) List(root string) ([]string, error) {
	info, err := d.fs.Stat(root)
	if err != nil {
		return nil, fsError("stat", root, err)
	}

	if !info.IsDir() {
		return nil, fsError("list", root, errNotDirectory)
	}

	var files []string
	if err = d.walk(root, "", &files); err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

func (d *Directory) walk(root, rel string, files *[]string) error {
	dir := filepath.Join(root, rel)

	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		return fsError("list", dir, err)
	}

	for _, entry := range entries {
		name := filepath.Join(rel, entry.Name())
		if entry.IsDir() {
			if err = d.walk(root, name, files); err != nil {
				return err
			}

			continue
		}

		*files = append(*files, filepath.ToSlash(name))
	}

	return nil
}

// Swap replaces target with staging.
// The current target is first renamed to backup, so a failed rename of staging can be rolled back;
// the backup is removed once staging is in place.
func (d *Directory) Swap(staging, target, backup string) error {
	if err := d.Remove(backup); err != nil {
		return err
	}

	hadTarget, err := d.Exists(target)
	if err != nil {
		return err
	}

	if hadTarget {
		if err = d.fs.Rename(target, backup); err != nil {
			return fsError("rename", target, err)
		}
	}

	if err = d.fs.Rename(staging, target); err != nil {
		if hadTarget {
			_ = d.fs.Rename(backup, target)
		}

		return fsError("rename", staging, err)
	}

	return d.Remove(backup)
}

func fsError(op, path string, err error) error {
	var fsErr *release.FileSystemError
	if errors.As(err, &fsErr) {
		return err
	}

	return &release.FileSystemError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
