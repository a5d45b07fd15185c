package filesystem

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/pathresource/pathfs/resource"

	"github.com/sourcegraph/conc/pool"
)

// TraversalHandler receives every resource a traversal visits. Handlers are
// called from several goroutines.
type TraversalHandler interface {
	HandleDirectory(r *resource.PathResource) error
	HandleFile(r *resource.PathResource) error
}

// HandlerFuncs adapts two functions to TraversalHandler. Nil fields are skipped.
type HandlerFuncs struct {
	Directory func(r *resource.PathResource) error
	File      func(r *resource.PathResource) error
}

func (h HandlerFuncs) HandleDirectory(r *resource.PathResource) error {
	if h.Directory == nil {
		return nil
	}
	return h.Directory(r)
}

func (h HandlerFuncs) HandleFile(r *resource.PathResource) error {
	if h.File == nil {
		return nil
	}
	return h.File(r)
}

// TraversalStats tracks performance metrics during traversal
type TraversalStats struct {
	DirsProcessed  int64
	FilesProcessed int64
	ErrorsFound    int64
	StartTime      time.Time
	EndTime        time.Time
}

// ConcurrentTraverser walks a resource tree breadth first. All directories on
// one level are listed concurrently, through each resource's listing cache.
// Symlinked directories are reported as files and never descended into.
type ConcurrentTraverser struct {
	maxWorkers int
	filter     resource.ResourceFilter
}

// NewConcurrentTraverser creates a traverser. maxWorkers <= 0 picks a worker
// count from the CPU count. A nil filter falls back to the ignore file in the
// traversal root, if there is one, and otherwise accepts everything. A
// rejected directory is neither reported nor descended into.
func NewConcurrentTraverser(maxWorkers int, filter resource.ResourceFilter) *ConcurrentTraverser {
	if maxWorkers <= 0 {
		// I/O bound, so oversubscribe the CPUs within limits
		maxWorkers = min(max(runtime.NumCPU()*2, 4), 32)
	}
	return &ConcurrentTraverser{maxWorkers: maxWorkers, filter: filter}
}

// Traverse visits the descendants of root, not root itself. maxDepth -1 is
// unlimited; 0 visits only root's immediate children. Listing failures are
// logged and counted; handler errors are logged. The returned error is only
// set when ctx ends the traversal early.
func (ct *ConcurrentTraverser) Traverse(ctx context.Context, root *resource.PathResource, maxDepth int, handler TraversalHandler) (*TraversalStats, error) {
	stats := &TraversalStats{StartTime: time.Now()}
	filter := ct.rootFilter(root)
	seen := make(map[string]bool)
	var seenMu sync.Mutex

	currentLevel := []*resource.PathResource{root}

	for depth := 0; (maxDepth == -1 || depth <= maxDepth) && len(currentLevel) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		var nextLevel []*resource.PathResource
		var nextLevelMu sync.Mutex

		levelPool := pool.New().WithMaxGoroutines(ct.maxWorkers).WithContext(ctx)

		for _, dir := range currentLevel {
			seenMu.Lock()
			if seen[dir.Path()] {
				seenMu.Unlock()
				continue
			}
			seen[dir.Path()] = true
			seenMu.Unlock()

			levelPool.Go(func(ctx context.Context) error {
				subdirs := ct.processDirectory(ctx, dir, filter, handler, stats)

				nextLevelMu.Lock()
				nextLevel = append(nextLevel, subdirs...)
				nextLevelMu.Unlock()
				return nil
			})
		}

		// tasks never fail; cancellation is checked at the next level
		_ = levelPool.Wait()

		currentLevel = nextLevel
	}

	stats.EndTime = time.Now()
	ct.logPerformanceStats(stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// rootFilter returns the configured filter, or the root's ignore file.
func (ct *ConcurrentTraverser) rootFilter(root *resource.PathResource) resource.ResourceFilter {
	if ct.filter != nil || !root.IsDirectory() {
		return ct.filter
	}
	ignore, err := root.IgnoreFilter()
	if err != nil {
		slog.Warn("Ignoring unreadable ignore file", "path", root.Path(), "error", err)
		return nil
	}
	if ignore == nil {
		return nil
	}
	slog.Debug("Using ignore file", "root", root.Path())
	return ignore
}

// processDirectory reports the accepted children of dir and returns the real
// subdirectories among them.
func (ct *ConcurrentTraverser) processDirectory(ctx context.Context, dir *resource.PathResource, filter resource.ResourceFilter, handler TraversalHandler, stats *TraversalStats) []*resource.PathResource {
	if ctx.Err() != nil {
		return nil
	}

	children, err := dir.ListResourcesFiltered(filter)
	if err != nil {
		atomic.AddInt64(&stats.ErrorsFound, 1)
		slog.Error("Error processing directory", "path", dir.Path(), "error", err)
		return nil
	}
	atomic.AddInt64(&stats.DirsProcessed, 1)

	var subdirs []*resource.PathResource
	for _, child := range children {
		if ctx.Err() != nil {
			return subdirs
		}

		info, err := os.Lstat(child.Path())
		if err != nil {
			// removed since the listing was taken
			slog.Debug("Skipping vanished entry", "path", child.Path(), "error", err)
			continue
		}

		if info.IsDir() {
			subdirs = append(subdirs, child)
			if err := handler.HandleDirectory(child); err != nil {
				slog.Warn("Handler error for directory", "path", child.Path(), "error", err)
			}
			continue
		}

		atomic.AddInt64(&stats.FilesProcessed, 1)
		if err := handler.HandleFile(child); err != nil {
			slog.Warn("Handler error for file", "path", child.Path(), "error", err)
		}
	}
	return subdirs
}

// logPerformanceStats logs traversal performance metrics
func (ct *ConcurrentTraverser) logPerformanceStats(stats *TraversalStats) {
	duration := stats.EndTime.Sub(stats.StartTime)
	dirsProcessed := atomic.LoadInt64(&stats.DirsProcessed)
	filesProcessed := atomic.LoadInt64(&stats.FilesProcessed)

	slog.Debug("Traversal completed",
		"dirs", dirsProcessed,
		"files", filesProcessed,
		"duration", duration,
		"errors", atomic.LoadInt64(&stats.ErrorsFound))
}
