// Package prometheus exports twitterkit metrics through client_golang.
package prometheus

import (
	"context"
	"strings"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-twitterkit/core"
)

// LabelNames is the fixed label set of every exported series. Tags outside
// this set are dropped so session ids never become label values.
var LabelNames = []string{"operation", "status", "auth_type", "status_code", "reason"}

// Recorder implements core.MetricsRecorder. Counters and histograms are
// created and registered on first use.
type Recorder struct {
	registerer prom.Registerer
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*prom.CounterVec
	histograms map[string]*prom.HistogramVec
}

type RecorderOption func(*Recorder)

// WithBuckets overrides the histogram buckets, in milliseconds.
func WithBuckets(buckets []float64) RecorderOption {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

func NewRecorder(registerer prom.Registerer, opts ...RecorderOption) *Recorder {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}
	recorder := &Recorder{
		registerer: registerer,
		buckets:    []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		counters:   map[string]*prom.CounterVec{},
		histograms: map[string]*prom.HistogramVec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter := r.counter(MetricName(name))
	if counter == nil {
		return
	}
	counter.With(labels(tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram := r.histogram(MetricName(name))
	if histogram == nil {
		return
	}
	histogram.With(labels(tags)).Observe(value)
}

func (r *Recorder) counter(name string) *prom.CounterVec {
	if name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.counters[name]; ok {
		return existing
	}
	vec := prom.NewCounterVec(prom.CounterOpts{Name: name, Help: "twitterkit counter " + name}, LabelNames)
	if err := r.registerer.Register(vec); err != nil {
		already, ok := err.(prom.AlreadyRegisteredError)
		if !ok {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prom.CounterVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	r.counters[name] = vec
	return vec
}

func (r *Recorder) histogram(name string) *prom.HistogramVec {
	if name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.histograms[name]; ok {
		return existing
	}
	vec := prom.NewHistogramVec(prom.HistogramOpts{
		Name:    name,
		Help:    "twitterkit histogram " + name,
		Buckets: r.buckets,
	}, LabelNames)
	if err := r.registerer.Register(vec); err != nil {
		already, ok := err.(prom.AlreadyRegisteredError)
		if !ok {
			return nil
		}
		existing, ok := already.ExistingCollector.(*prom.HistogramVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	r.histograms[name] = vec
	return vec
}

// MetricName maps a dotted metric name to a valid Prometheus name.
// "twitterkit.verify_all.total" becomes "twitterkit_verify_all_total".
func MetricName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func labels(tags map[string]string) prom.Labels {
	out := make(prom.Labels, len(LabelNames))
	for _, name := range LabelNames {
		out[name] = strings.TrimSpace(tags[name])
	}
	return out
}

var _ core.MetricsRecorder = (*Recorder)(nil)
