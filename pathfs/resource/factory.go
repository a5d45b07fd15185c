package resource

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"

	"github.com/armon/go-radix"
)

// Factory turns a path into a resource. The core uses it for parents, children,
// rename and move results, and temp resources.
type Factory interface {
	Create(path string) (*PathResource, error)
}

// Tracker is implemented by factories that index resources by path and need to
// hear when a resource leaves its path. Implementations must not call methods
// on r: r is locked while the hook runs.
type Tracker interface {
	Moved(r *PathResource, from, to string)
	Removed(path string)
}

// ExitRegistrar is implemented by factories that delete paths when they close.
type ExitRegistrar interface {
	DeleteOnExit(path string)
}

// DefaultFactory interns resources so that one cleaned path maps to one
// instance. Paths are stored in a radix tree, which makes dropping a moved or
// deleted subtree one prefix operation.
type DefaultFactory struct {
	opts      *Options
	pathUtils *common.PathUtils
	errUtils  *common.ErrorUtils

	mu           sync.Mutex
	tree         *radix.Tree
	deleteOnExit map[string]struct{}
}

// NewFactory creates a factory whose resources share opts.
func NewFactory(opts *Options) *DefaultFactory {
	return &DefaultFactory{
		opts:         opts.withDefaults(),
		pathUtils:    common.NewPathUtils(),
		errUtils:     common.NewErrorUtils(),
		tree:         radix.New(),
		deleteOnExit: make(map[string]struct{}),
	}
}

// Create returns the resource registered for path, wrapping it on first use.
func (f *DefaultFactory) Create(path string) (*PathResource, error) {
	if err := f.pathUtils.ValidatePath(path); err != nil {
		return nil, common.NewPreconditionViolation("create", path, err)
	}
	key := filepath.Clean(path)

	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.tree.Get(key); ok {
		return v.(*PathResource), nil
	}

	r := New(f, key, f.opts)
	f.tree.Insert(key, r)
	return r, nil
}

// Moved re-registers r under its new path and forgets everything at or below the old one.
func (f *DefaultFactory) Moved(r *PathResource, from, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := f.deleteSubtreeLocked(from)
	f.tree.Insert(to, r)

	f.opts.Logger.Debug().Str("from", from).Str("to", to).Int("dropped", dropped).Msg("registry updated after move")
}

// Removed forgets the path and every registered descendant.
func (f *DefaultFactory) Removed(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteSubtreeLocked(path)
}

// deleteSubtreeLocked removes key and keys below it. A plain prefix delete
// would also hit siblings such as "/a/bc" for "/a/b".
func (f *DefaultFactory) deleteSubtreeLocked(key string) int {
	n := 0
	if _, ok := f.tree.Delete(key); ok {
		n++
	}
	prefix := key
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return n + f.tree.DeletePrefix(prefix)
}

// Lookup returns the registered resource for path without creating one.
func (f *DefaultFactory) Lookup(path string) (*PathResource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.tree.Get(filepath.Clean(path))
	if !ok {
		return nil, false
	}
	return v.(*PathResource), true
}

// Len returns the number of registered resources.
func (f *DefaultFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree.Len()
}

// DeleteOnExit marks path for removal by Close.
func (f *DefaultFactory) DeleteOnExit(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteOnExit[filepath.Clean(path)] = struct{}{}
}

// Metrics returns the metrics shared by this factory's resources.
func (f *DefaultFactory) Metrics() map[string]interface{} {
	return f.opts.Metrics.GetMetrics()
}

// Close recursively deletes every path marked with DeleteOnExit, deepest first,
// and returns the errors joined. The marks are cleared either way.
func (f *DefaultFactory) Close() error {
	f.mu.Lock()
	paths := make([]string, 0, len(f.deleteOnExit))
	for p := range f.deleteOnExit {
		paths = append(paths, p)
	}
	f.deleteOnExit = make(map[string]struct{})
	f.mu.Unlock()

	// longest first so nested marks go before their parents
	sort.Slice(paths, func(i, j int) bool { return len(paths[i]) > len(paths[j]) })

	var errs []error
	for _, p := range paths {
		r, err := f.Create(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := r.DeleteTree(true); err != nil {
			errs = append(errs, f.errUtils.WrapError(err, "delete on exit"))
		}
	}
	return errors.Join(errs...)
}

func (f *DefaultFactory) String() string {
	return fmt.Sprintf("DefaultFactory(%d resources)", f.Len())
}
