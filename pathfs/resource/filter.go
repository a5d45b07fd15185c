package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"

	ignore "github.com/sabhiram/go-gitignore"
)

// ResourceFilter selects resources for listings and monitors.
type ResourceFilter interface {
	Accept(r *PathResource) bool
}

// FilterFunc adapts a function to ResourceFilter.
type FilterFunc func(r *PathResource) bool

func (f FilterFunc) Accept(r *PathResource) bool { return f(r) }

// IgnoreFilter rejects resources whose path, relative to Root, matches a
// gitignore-style pattern. Paths outside Root are accepted.
type IgnoreFilter struct {
	Root      string
	matcher   *ignore.GitIgnore
	pathUtils *common.PathUtils
}

// NewIgnoreFilter compiles patterns relative to root.
func NewIgnoreFilter(root string, patterns ...string) *IgnoreFilter {
	return &IgnoreFilter{
		Root:      filepath.Clean(root),
		matcher:   ignore.CompileIgnoreLines(patterns...),
		pathUtils: common.NewPathUtils(),
	}
}

// NewIgnoreFileFilter compiles the patterns in an ignore file, relative to root.
func NewIgnoreFileFilter(root, ignoreFile string) (*IgnoreFilter, error) {
	matcher, err := ignore.CompileIgnoreFile(ignoreFile)
	if err != nil {
		return nil, fmt.Errorf("error reading ignore file %s: %w", ignoreFile, err)
	}
	return &IgnoreFilter{Root: filepath.Clean(root), matcher: matcher, pathUtils: common.NewPathUtils()}, nil
}

// LoadIgnoreFilter compiles root/name when that file exists. It returns a nil
// filter and no error when there is no ignore file.
func LoadIgnoreFilter(root, name string) (*IgnoreFilter, error) {
	if name == "" {
		return nil, nil
	}
	path := filepath.Join(root, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, common.NewIOFailure("loadIgnoreFilter", path, err)
	}
	return NewIgnoreFileFilter(root, path)
}

// IgnoreFilter loads the configured ignore file from r's directory. It returns
// nil when the option is empty or r has no such file.
func (r *PathResource) IgnoreFilter() (*IgnoreFilter, error) {
	return LoadIgnoreFilter(r.Path(), r.opts.IgnoreFile)
}

// Accept reports whether r is not ignored.
func (f *IgnoreFilter) Accept(r *PathResource) bool {
	return f.AcceptPath(r.Path())
}

// AcceptPath is Accept for a raw path. A nil filter accepts everything.
func (f *IgnoreFilter) AcceptPath(path string) bool {
	if f == nil {
		return true
	}
	if !f.pathUtils.IsSubpath(f.Root, path) {
		return true
	}
	rel, err := filepath.Rel(f.pathUtils.NormalizePath(f.Root), f.pathUtils.NormalizePath(path))
	if err != nil {
		return true
	}
	return !f.matcher.MatchesPath(filepath.ToSlash(rel))
}
