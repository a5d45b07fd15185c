package resource

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"
)

// ContentReader opens the file for reading. The caller closes it.
func (r *PathResource) ContentReader() (io.ReadCloser, error) {
	path := r.Path()
	f, err := os.Open(path)
	if err != nil {
		return nil, r.done("contentReader", common.NewIOFailure("contentReader", path, err))
	}
	return f, nil
}

// ReadContents returns the whole file.
func (r *PathResource) ReadContents() ([]byte, error) {
	path := r.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, r.done("readContents", common.NewIOFailure("readContents", path, err))
	}
	return data, nil
}

// SetContentsString replaces the file contents with s.
func (r *PathResource) SetContentsString(s string) error {
	return r.SetContents(strings.NewReader(s))
}

// SetContentsBytes replaces the file contents with data. A nil slice writes an empty file.
func (r *PathResource) SetContentsBytes(data []byte) error {
	return r.SetContents(bytes.NewReader(data))
}

// SetContents replaces the whole file with everything read from data. Missing
// parent directories and the file are created first. The write goes through
// symlinks to the file they name. The new contents are staged in a temp file
// beside that file and renamed over it, so readers see either the old or the
// new contents. A file with several hard links is rewritten in place instead,
// which keeps the links together. data is closed if it is an io.Closer, on
// success and on failure.
func (r *PathResource) SetContents(data io.Reader) error {
	path := r.Path()
	if data == nil {
		return r.done("setContents", common.NewPreconditionViolation("setContents", path, common.ErrNilContents))
	}
	if c, ok := data.(io.Closer); ok {
		defer c.Close()
	}

	if !r.Exists() {
		if _, err := r.CreateNewFile(); err != nil {
			return r.done("setContents", err)
		}
	}

	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	}

	mode, inPlace := r.opts.FilePerm, false
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
		inPlace = linkCount(info) > 1
	}

	n, err := writeReplace(target, data, mode, inPlace)
	if err != nil {
		return r.done("setContents", common.NewIOFailure("setContents", path, err))
	}

	r.opts.Metrics.AddBytesWritten(n)
	return r.done("setContents", nil)
}

// writeReplace stages data in a temp file next to path. The staged file is then
// renamed over path, or copied into it when inPlace is set. path is untouched
// if reading data fails.
func writeReplace(path string, data io.Reader, mode os.FileMode, inPlace bool) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if n, err = io.Copy(tmp, data); err != nil {
		return n, err
	}
	if err = tmp.Sync(); err != nil {
		return n, err
	}

	if inPlace {
		if err = copyInto(path, tmp); err != nil {
			return n, err
		}
		return n, nil
	}

	if err = tmp.Close(); err != nil {
		return n, err
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return n, err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}

// copyInto truncates path and copies the staged file into it.
func copyInto(path string, staged *os.File) error {
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return err
	}
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, staged); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
