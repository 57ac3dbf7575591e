package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Counts how often a remote operation fell back to the local store.
	fallbackCount uint64

	// Counts completed refresh cycles, keyed by driver mode ("polling"/"subscribed").
	refreshCount map[string]uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		refreshCount:    make(map[string]uint64),
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) IncrementFallbacks() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.fallbackCount++
}

func (mc *MetricsCollector) IncrementRefreshes(mode string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.refreshCount[mode]++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Snapshot returns current counters for the health endpoint.
func (mc *MetricsCollector) Snapshot() map[string]uint64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snap := map[string]uint64{
		"requests":  mc.requestCount,
		"errors":    mc.errorCount,
		"fallbacks": mc.fallbackCount,
	}
	for mode, count := range mc.refreshCount {
		snap["refresh_"+mode] = count
	}
	return snap
}
