package resource

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"
)

// Mkdir creates exactly one directory level. It returns false without error when
// the path already exists or the parent directory is missing.
func (r *PathResource) Mkdir() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Mkdir(r.path, r.opts.DirPerm)
	switch {
	case err == nil:
		r.invalidateLocked("mkdir")
		return true, r.done("mkdir", nil)
	case errors.Is(err, fs.ErrExist), errors.Is(err, fs.ErrNotExist):
		return false, r.done("mkdir", nil)
	}
	return false, r.done("mkdir", common.NewIOFailure("mkdir", r.path, err))
}

// Mkdirs creates the directory and every missing parent. It returns true if the
// directory already exists.
func (r *PathResource) Mkdirs() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, err := os.Stat(r.path); err == nil && info.IsDir() {
		return true, r.done("mkdirs", nil)
	}
	if err := os.MkdirAll(r.path, r.opts.DirPerm); err != nil {
		return false, r.done("mkdirs", common.NewIOFailure("mkdirs", r.path, err))
	}
	r.invalidateLocked("mkdirs")
	return true, r.done("mkdirs", nil)
}

// CreateNewFile creates missing parent directories and then an empty file.
// It returns false without error if the file already exists.
func (r *PathResource) CreateNewFile() (bool, error) {
	path := r.Path()

	parent, err := r.Parent()
	if err != nil {
		return false, r.done("createNewFile", err)
	}
	if parent != nil {
		if _, err := parent.Mkdirs(); err != nil {
			return false, r.done("createNewFile", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, r.opts.FilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, r.done("createNewFile", nil)
		}
		return false, r.done("createNewFile", common.NewIOFailure("createNewFile", path, err))
	}
	if err := f.Close(); err != nil {
		return false, r.done("createNewFile", common.NewIOFailure("createNewFile", path, err))
	}
	return true, r.done("createNewFile", nil)
}

// CreateTempResource creates a new empty file with a unique name in the
// configured temp directory and returns it as a resource.
func (r *PathResource) CreateTempResource() (*PathResource, error) {
	f, err := os.CreateTemp(r.opts.TempDir, r.opts.TempPrefix+"*")
	if err != nil {
		return nil, r.done("createTempResource", common.NewIOFailure("createTempResource", r.opts.TempDir, err))
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return nil, r.done("createTempResource", common.NewIOFailure("createTempResource", name, err))
	}

	r.opts.Logger.Debug().Str("path", name).Msg("temp resource created")

	tmp, err := r.wrap(name)
	return tmp, r.done("createTempResource", err)
}

// Delete removes a file or an empty directory. It returns false without error
// if the path does not exist.
func (r *PathResource) Delete() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, r.done("delete", nil)
		}
		return false, r.done("delete", common.NewIOFailure("delete", r.path, err))
	}
	r.invalidateLocked("delete")
	r.removedLocked()
	return true, r.done("delete", nil)
}

// DeleteTree behaves like Delete when recursive is false. Otherwise it removes
// the whole tree depth first, each directory after its contents. The first
// failed removal stops the traversal and is returned; entries removed before
// it stay removed. Symlinks are removed, never followed.
func (r *PathResource) DeleteTree(recursive bool) (bool, error) {
	if !recursive {
		return r.Delete()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Lstat(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, r.done("deleteTree", nil)
		}
		return false, r.done("deleteTree", common.NewIOFailure("deleteTree", r.path, err))
	}

	if err := removeTree(r.path, info.IsDir()); err != nil {
		r.invalidateLocked("deleteTree")
		return false, r.done("deleteTree", common.NewIOFailure("deleteTree", r.path, err))
	}

	r.opts.Logger.Debug().Str("path", r.path).Msg("tree deleted")
	r.invalidateLocked("deleteTree")
	r.removedLocked()
	return true, r.done("deleteTree", nil)
}

func removeTree(path string, isDir bool) error {
	if isDir {
		entries, err := readDirUnsorted(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := removeTree(filepath.Join(path, entry.Name()), entry.IsDir()); err != nil {
				return err
			}
		}
	}
	return os.Remove(path)
}

// RenameTo moves r to name resolved as a sibling of the current path (an
// absolute name is used as is). The target must not exist; moves the platform
// cannot do atomically, such as across devices, fail.
func (r *PathResource) RenameTo(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, r.done("rename", common.NewPreconditionViolation("rename", r.Path(), common.ErrEmptyName))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(r.path), name)
	}
	return r.moveLocked("rename", filepath.Clean(target))
}

// MoveTo moves r to the exact path of target. On success r takes the target
// path, both listing caches are dropped and target's last known modification
// time is re-read.
func (r *PathResource) MoveTo(target *PathResource) (bool, error) {
	if target == nil {
		return false, r.done("move", common.NewPreconditionViolation("move", r.Path(), common.ErrNilTarget))
	}

	dst := target.Path()

	r.mu.Lock()
	ok, err := r.moveLocked("move", dst)
	r.mu.Unlock()
	if !ok || target == r {
		return ok, err
	}

	target.mu.Lock()
	target.invalidateLocked("move")
	if info, statErr := os.Stat(dst); statErr == nil {
		target.lastModification = info.ModTime()
	}
	target.mu.Unlock()

	return true, nil
}

func (r *PathResource) moveLocked(op, dst string) (bool, error) {
	src := r.path
	if err := renameNoReplace(src, dst); err != nil {
		return false, r.done(op, common.NewIOFailure(op, src, err))
	}

	r.path = dst
	r.invalidateLocked(op)
	if t, ok := r.factory.(Tracker); ok {
		t.Moved(r, src, dst)
	}

	r.opts.Logger.Debug().Str("from", src).Str("to", dst).Msg("resource moved")
	return true, r.done(op, nil)
}

// renameCheckFirst refuses an existing target before renaming. The check and
// the rename are not atomic.
func renameCheckFirst(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(oldpath, newpath)
}

// DeleteOnExit asks the factory to remove the path when it is closed.
func (r *PathResource) DeleteOnExit() error {
	reg, ok := r.factory.(ExitRegistrar)
	if !ok {
		return r.done("deleteOnExit", common.NewIOFailure("deleteOnExit", r.Path(), common.ErrUnsupported))
	}
	reg.DeleteOnExit(r.Path())
	return r.done("deleteOnExit", nil)
}

func (r *PathResource) removedLocked() {
	if t, ok := r.factory.(Tracker); ok {
		t.Removed(r.path)
	}
}
