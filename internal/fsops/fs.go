// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem mutations performed by discord-loader against a host
// installation go through the FS interface, which wraps the primitives the
// engine needs (clobbering copies, atomic writes, exclusive creation) along
// with path validation to keep resource requests inside their base directory.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Exclusive creation for advisory lock files
//   - Recursive copies that overwrite existing files in place
//   - Testable via the FS interface
package fsops

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// Copy copies a file or directory from src to dst, overwriting existing files.
	Copy(src, dst string) error

	// WriteFile writes data to path, creating parent directories as needed.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// CreateExclusive writes data to path only if path does not exist yet.
	// Returns an error satisfying errors.Is(err, os.ErrExist) otherwise.
	CreateExclusive(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

func (fs *RealFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Copy copies a file or tree from src to dst. Destination files are
// truncated and rewritten; files in dst without a counterpart in src stay.
func (fs *RealFS) Copy(src, dst string) error {
	root, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !root.IsDir() {
		return copyFile(src, dst, root.Mode())
	}

	return filepath.WalkDir(src, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			// A file where a directory belongs is replaced.
			if info, err := os.Lstat(target); err == nil && !info.IsDir() {
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("failed to replace %s: %w", target, err)
				}
			}
			return os.MkdirAll(target, 0755)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	if info, err := os.Lstat(dst); err == nil && info.IsDir() {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// WriteFile writes data to path, truncating any existing file.
func (fs *RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	return os.WriteFile(path, data, perm)
}

// AtomicWrite writes data next to path and renames it into place, so
// readers see either the old or the new content.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".discord-loader-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CreateExclusive writes data to a file that must not exist yet.
func (fs *RealFS) CreateExclusive(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ErrUnsafePath means a relative path is empty, absolute or leaves its base.
var ErrUnsafePath = errors.New("unsafe relative path")

// ValidateRelPath checks that a slash- or OS-separated relative path stays
// inside the directory it will be joined to.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))

	switch {
	case relPath == "" || cleaned == ".":
		return fmt.Errorf("%w: empty path", ErrUnsafePath)
	case filepath.IsAbs(cleaned), strings.HasPrefix(relPath, "/"), filepath.VolumeName(cleaned) != "":
		return fmt.Errorf("%w: %q is absolute", ErrUnsafePath, relPath)
	case cleaned == "..", strings.HasPrefix(cleaned, ".."+string(filepath.Separator)):
		return fmt.Errorf("%w: %q escapes its base directory", ErrUnsafePath, relPath)
	}
	return nil
}
