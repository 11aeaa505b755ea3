// Package fsops performs the filesystem effects of a sort: moves that never
// overwrite, deletions and folder creation. Moves across volumes fall back
// to copy and delete.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

var (
	// ErrDestinationExists is returned when a move would overwrite a file.
	ErrDestinationExists = errors.New("destination exists")

	// ErrCopyFailed is returned when the copy step of a cross-volume move
	// fails. The source is left in place.
	ErrCopyFailed = errors.New("cross-volume copy failed")
)

// FS wraps an afero filesystem with the operations the executor and the
// undo engine need.
type FS struct {
	fs afero.Fs
}

// New wraps fs. A nil fs uses the OS filesystem.
func New(fs afero.Fs) *FS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FS{fs: fs}
}

// Fs returns the underlying filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

// Exists reports whether path exists.
func (f *FS) Exists(path string) (bool, error) {
	_, err := f.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Move renames src to dst. It fails with ErrDestinationExists rather than
// replace dst.
func (f *FS) Move(src, dst string) error {
	exists, err := f.Exists(dst)
	if err != nil {
		return fmt.Errorf("checking %s: %w", dst, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}

	err = f.fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("moving %s: %w", src, err)
	}
	return f.copyAndRemove(src, dst)
}

// copyAndRemove moves src to dst on another volume. When either step
// fails the destination is removed again and the source stays where it
// was, so a failed move leaves no unjournaled copy behind.
func (f *FS) copyAndRemove(src, dst string) error {
	info, err := f.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	if err := f.copyFile(src, dst, info); err != nil {
		_ = f.fs.Remove(dst)
		return fmt.Errorf("%w: %s -> %s: %w", ErrCopyFailed, src, dst, err)
	}

	if err := f.fs.Remove(src); err != nil {
		if rmErr := f.fs.Remove(dst); rmErr != nil {
			return fmt.Errorf("removing %s after copy: %w (copy left at %s: %w)", src, err, dst, rmErr)
		}
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

func (f *FS) copyFile(src, dst string, info os.FileInfo) error {
	in, err := f.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := f.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Keep the modification time; collision handling depends on it.
	return f.fs.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Remove deletes a file.
func (f *FS) Remove(path string) error {
	if err := f.fs.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Mkdir creates a single directory.
func (f *FS) Mkdir(dir string) error {
	if err := f.fs.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// RemoveDirIfEmpty removes dir when it holds no entries. It reports
// whether the directory was removed; a missing directory counts as removed.
func (f *FS) RemoveDirIfEmpty(dir string) (bool, error) {
	exists, err := f.Exists(dir)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	empty, err := afero.IsEmpty(f.fs, dir)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	if err := f.fs.Remove(dir); err != nil {
		return false, fmt.Errorf("removing %s: %w", dir, err)
	}
	return true, nil
}
