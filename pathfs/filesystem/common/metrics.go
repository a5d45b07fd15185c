package common

import (
	"sync"
	"time"
)

// PerformanceMetrics defines the interface for performance tracking
type PerformanceMetrics interface {
	GetMetrics() map[string]interface{}
}

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics updates common metrics fields
func (bm *BaseMetrics) UpdateBaseMetrics(success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// OperationMetrics tracks per-operation outcomes and listing cache behaviour
// for every resource sharing one factory.
type OperationMetrics struct {
	BaseMetrics
	ByOperation        map[string]int64
	BytesWritten       int64
	CacheHits          int64
	CacheMisses        int64
	CacheInvalidations int64
}

// NewOperationMetrics creates an empty OperationMetrics.
func NewOperationMetrics() *OperationMetrics {
	return &OperationMetrics{ByOperation: make(map[string]int64)}
}

// Record counts one finished operation. Errors count as failures.
func (om *OperationMetrics) Record(op string, err error) {
	if om == nil {
		return
	}
	om.UpdateBaseMetrics(err == nil)

	om.Mu.Lock()
	om.ByOperation[op]++
	om.Mu.Unlock()
}

// AddBytesWritten accumulates bytes written by content replacement.
func (om *OperationMetrics) AddBytesWritten(n int64) {
	if om == nil {
		return
	}
	om.Mu.Lock()
	om.BytesWritten += n
	om.Mu.Unlock()
}

// CacheHit records a listing served from cache.
func (om *OperationMetrics) CacheHit() {
	if om == nil {
		return
	}
	om.Mu.Lock()
	om.CacheHits++
	om.Mu.Unlock()
}

// CacheMiss records a listing that required a directory scan.
func (om *OperationMetrics) CacheMiss() {
	if om == nil {
		return
	}
	om.Mu.Lock()
	om.CacheMisses++
	om.Mu.Unlock()
}

// CacheInvalidated records a discarded listing.
func (om *OperationMetrics) CacheInvalidated() {
	if om == nil {
		return
	}
	om.Mu.Lock()
	om.CacheInvalidations++
	om.Mu.Unlock()
}

// GetMetrics returns operation metrics as a map
func (om *OperationMetrics) GetMetrics() map[string]interface{} {
	metrics := om.GetBaseMetrics()

	om.Mu.RLock()
	defer om.Mu.RUnlock()

	byOp := make(map[string]int64, len(om.ByOperation))
	for k, v := range om.ByOperation {
		byOp[k] = v
	}
	metrics["by_operation"] = byOp
	metrics["bytes_written"] = om.BytesWritten
	metrics["cache_hits"] = om.CacheHits
	metrics["cache_misses"] = om.CacheMisses
	metrics["cache_invalidations"] = om.CacheInvalidations
	return metrics
}
