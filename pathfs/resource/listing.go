package resource

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"

	"github.com/sourcegraph/conc/iter"
)

// ListResources returns the immediate children of a directory in the order the
// directory read reports them. The listing is cached; a stale directory is
// rescanned before anything is returned. A rescan does not update the last
// known modification time, so once the directory has changed every call
// rescans until Refresh is called. Non-directories return an empty slice and
// leave the cache alone.
func (r *PathResource) ListResources() ([]*PathResource, error) {
	if !r.IsDirectory() {
		return []*PathResource{}, nil
	}

	r.mu.RLock()
	if r.listCache != nil {
		stale, err := r.isStaleLocked()
		if err != nil {
			r.mu.RUnlock()
			return nil, r.done("list", err)
		}
		if !stale {
			children := append([]*PathResource(nil), r.listCache...)
			r.mu.RUnlock()
			r.opts.Metrics.CacheHit()
			return children, r.done("list", nil)
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	stale, err := r.isStaleLocked()
	if err != nil {
		return nil, r.done("list", err)
	}
	if stale {
		r.invalidateLocked("stale")
	}

	if r.listCache == nil {
		r.opts.Metrics.CacheMiss()
		children, err := r.scanLocked()
		if err != nil {
			return nil, r.done("list", err)
		}
		r.listCache = children
	} else {
		r.opts.Metrics.CacheHit()
	}

	return append([]*PathResource{}, r.listCache...), r.done("list", nil)
}

// ListResourcesFiltered returns the children accepted by filter. A nil filter accepts all.
func (r *PathResource) ListResourcesFiltered(filter ResourceFilter) ([]*PathResource, error) {
	children, err := r.ListResources()
	if err != nil || filter == nil {
		return children, err
	}

	accepted := make([]*PathResource, 0, len(children))
	for _, child := range children {
		if filter.Accept(child) {
			accepted = append(accepted, child)
		}
	}
	return accepted, nil
}

func (r *PathResource) scanLocked() ([]*PathResource, error) {
	entries, err := readDirUnsorted(r.path)
	if err != nil {
		return nil, common.NewIOFailure("list", r.path, err)
	}

	dir := r.path
	mapper := iter.Mapper[fs.DirEntry, *PathResource]{MaxGoroutines: r.opts.ListParallelism}
	children, err := mapper.MapErr(entries, func(entry *fs.DirEntry) (*PathResource, error) {
		return r.wrap(filepath.Join(dir, (*entry).Name()))
	})
	if err != nil {
		return nil, err
	}

	r.opts.Logger.Debug().Str("path", r.path).Int("entries", len(children)).Msg("listing cache populated")
	return children, nil
}

// readDirUnsorted reads every entry of a directory in the order the platform returns them.
func readDirUnsorted(path string) ([]fs.DirEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}
