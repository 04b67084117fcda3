package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/types"
)

const (
	// FileMode is applied to every installed file
	FileMode fs.FileMode = 0644
	// DirMode is used for directories created during installation
	DirMode fs.FileMode = 0755
)

// Exists reports whether anything (including a dangling symlink) is at path
func Exists(fsys types.FS, path string) bool {
	_, err := fsys.Lstat(path)
	return err == nil
}

// RemoveIfExists deletes the entry at path. A missing entry is not an error.
func RemoveIfExists(fsys types.FS, path string) error {
	if !Exists(fsys, path) {
		return nil
	}
	if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", path)
	}
	return nil
}

// EnsureParent creates the parent directories of path. Directories that
// already exist are fine.
func EnsureParent(fsys types.FS, path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := fsys.MkdirAll(dir, DirMode); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", dir)
	}
	return nil
}

// CopyFile copies src to dst verbatim and normalizes the permissions of dst
func CopyFile(fsys types.FS, src, dst string) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", src)
	}
	if err := RemoveIfExists(fsys, dst); err != nil {
		return err
	}
	if err := EnsureParent(fsys, dst); err != nil {
		return err
	}
	if err := fsys.WriteFile(dst, data, FileMode); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", dst)
	}
	return Normalize(fsys, dst)
}

// Normalize applies FileMode to path, ignoring umask
func Normalize(fsys types.FS, path string) error {
	if err := fsys.Chmod(path, FileMode); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to chmod %s", path)
	}
	return nil
}

// ReplaceWithSymlink removes whatever is at link and points it at target
func ReplaceWithSymlink(fsys types.FS, target, link string) error {
	if err := RemoveIfExists(fsys, link); err != nil {
		return err
	}
	if err := EnsureParent(fsys, link); err != nil {
		return err
	}
	if err := fsys.Symlink(target, link); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s to %s", link, target)
	}
	return nil
}
