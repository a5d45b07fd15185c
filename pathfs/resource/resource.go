package resource

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"
)

// PathResource wraps one filesystem path. Files and directories share this type;
// Kind reports which one the path currently is.
//
// A PathResource may be used from several goroutines. The path, the last known
// modification time and the listing cache are guarded by one RWMutex.
type PathResource struct {
	factory Factory
	opts    *Options

	mu               sync.RWMutex
	path             string
	lastModification time.Time
	listCache        []*PathResource // nil until populated
}

// New wraps path. The path does not need to exist; existence is checked when an
// operation runs. Factories call New; most callers should go through a Factory.
func New(factory Factory, path string, opts *Options) *PathResource {
	r := &PathResource{
		factory: factory,
		opts:    opts.withDefaults(),
		path:    filepath.Clean(path),
	}
	if info, err := os.Stat(r.path); err == nil {
		r.lastModification = info.ModTime()
	}
	return r
}

// Path returns the current location.
func (r *PathResource) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

// Name returns the last element of the path.
func (r *PathResource) Name() string {
	return filepath.Base(r.Path())
}

func (r *PathResource) String() string {
	return r.Path()
}

// Factory returns the factory that created r, or nil.
func (r *PathResource) Factory() Factory {
	return r.factory
}

// Exists reports whether the path exists right now.
func (r *PathResource) Exists() bool {
	_, err := os.Stat(r.Path())
	return err == nil
}

// IsDirectory reports whether the path is a directory right now.
func (r *PathResource) IsDirectory() bool {
	return r.Kind() == KindDirectory
}

// Kind stats the path and reports what it denotes.
func (r *PathResource) Kind() Kind {
	info, err := os.Stat(r.Path())
	if err != nil {
		return KindUnknown
	}
	return kindOf(info)
}

// Size returns the size in bytes reported by stat.
func (r *PathResource) Size() (uint64, error) {
	path := r.Path()
	info, err := os.Stat(path)
	if err != nil {
		return 0, r.done("size", common.NewIOFailure("size", path, err))
	}
	return uint64(info.Size()), nil
}

// IsReadable probes read permission for the current process.
func (r *PathResource) IsReadable() bool {
	return canAccess(r.Path(), accessRead)
}

// IsWritable probes write permission for the current process.
func (r *PathResource) IsWritable() bool {
	return canAccess(r.Path(), accessWrite)
}

// IsExecutable probes execute (or, for directories, search) permission.
func (r *PathResource) IsExecutable() bool {
	return canAccess(r.Path(), accessExecute)
}

// LastModified returns the live modification time.
func (r *PathResource) LastModified() (time.Time, error) {
	path := r.Path()
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, common.NewIOFailure("lastModified", path, err)
	}
	return info.ModTime(), nil
}

// SetLastModified sets the modification time, leaving the access time unchanged.
func (r *PathResource) SetLastModified(t time.Time) error {
	path := r.Path()
	if err := os.Chtimes(path, time.Time{}, t); err != nil {
		return r.done("setLastModified", common.NewIOFailure("setLastModified", path, err))
	}
	return r.done("setLastModified", nil)
}

// Refresh records the live modification time as the last known one and drops
// the listing cache, so the next listing reflects the current directory.
func (r *PathResource) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return r.done("refresh", common.NewIOFailure("refresh", r.path, err))
	}
	r.lastModification = info.ModTime()
	r.invalidateLocked("refresh")
	return r.done("refresh", nil)
}

// IsStale reports whether the live modification time differs from the last known one.
func (r *PathResource) IsStale() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isStaleLocked()
}

func (r *PathResource) isStaleLocked() (bool, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return false, common.NewIOFailure("isStale", r.path, err)
	}
	return !info.ModTime().Equal(r.lastModification), nil
}

// Parent returns the resource for the containing directory, or nil at a root.
func (r *PathResource) Parent() (*PathResource, error) {
	path := r.Path()
	dir := filepath.Dir(path)
	if dir == path {
		return nil, nil
	}
	return r.wrap(dir)
}

// Child returns the resource for name inside r. The child need not exist.
func (r *PathResource) Child(name string) (*PathResource, error) {
	if name == "" {
		return nil, common.NewPreconditionViolation("child", r.Path(), common.ErrEmptyName)
	}
	return r.wrap(filepath.Join(r.Path(), name))
}

// Monitor watches r through the configured MonitorService.
func (r *PathResource) Monitor(ctx context.Context) (MonitorHandle, error) {
	return r.MonitorFiltered(ctx, nil)
}

// MonitorFiltered watches r, delivering only events whose resource filter accepts.
func (r *PathResource) MonitorFiltered(ctx context.Context, filter ResourceFilter) (MonitorHandle, error) {
	return r.opts.Monitors.Watch(ctx, r, filter)
}

// wrap turns a raw path into a resource the same way the factory does.
func (r *PathResource) wrap(path string) (*PathResource, error) {
	if r.factory != nil {
		return r.factory.Create(path)
	}
	return New(nil, path, r.opts), nil
}

func (r *PathResource) invalidateLocked(reason string) {
	if r.listCache == nil {
		return
	}
	r.listCache = nil
	r.opts.Metrics.CacheInvalidated()
	r.opts.Logger.Debug().Str("path", r.path).Str("reason", reason).Msg("listing cache discarded")
}

// done records op in the shared metrics and returns err unchanged.
func (r *PathResource) done(op string, err error) error {
	r.opts.Metrics.Record(op, err)
	return err
}
