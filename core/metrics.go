package core

import (
	"context"
	"sync"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// MemoryMetricsRecorder accumulates counters in process. Useful for tests and
// for callers that poll counts instead of exporting them.
type MemoryMetricsRecorder struct {
	mu         sync.Mutex
	counters   map[string]int64
	histograms map[string][]float64
}

func NewMemoryMetricsRecorder() *MemoryMetricsRecorder {
	return &MemoryMetricsRecorder{
		counters:   map[string]int64{},
		histograms: map[string][]float64{},
	}
}

func (r *MemoryMetricsRecorder) IncCounter(_ context.Context, name string, value int64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
}

func (r *MemoryMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[name] = append(r.histograms[name], value)
}

func (r *MemoryMetricsRecorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var (
	_ MetricsRecorder = NopMetricsRecorder{}
	_ MetricsRecorder = (*MemoryMetricsRecorder)(nil)
)
