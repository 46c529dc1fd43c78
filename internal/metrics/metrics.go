// Package metrics provides measurement collection for portprobe scans.
// PrometheusMetrics exports collectors over HTTP; Registry keeps the same
// measurements in memory so the CLI can print per-scan statistics.
package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType represents the type of metric.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Labels represents key-value pairs for metric labels.
type Labels map[string]string

// Metric represents a single metric with its metadata. For histograms Value
// is the last observation; Count, Sum and Max summarize all of them.
type Metric struct {
	Name      string
	Type      MetricType
	Value     float64
	Count     uint64
	Sum       float64
	Max       float64
	Labels    Labels
	Timestamp time.Time
}

// Mean returns Sum/Count, or 0 before the first observation.
func (m *Metric) Mean() float64 {
	if m.Count == 0 {
		return 0
	}
	return m.Sum / float64(m.Count)
}

// Metric names shared by Registry and PrometheusMetrics (without namespace).
const (
	MetricScanTotal     = "scan_total"
	MetricScanDuration  = "scan_duration_seconds"
	MetricScanErrors    = "scan_errors_total"
	MetricProbeTotal    = "probe_total"
	MetricProbeDuration = "probe_duration_seconds"
	MetricProbeActive   = "probe_active"
)

// Common label keys.
const (
	LabelState     = "state"
	LabelReason    = "reason"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
)

// Registry is an in-memory Recorder.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
	enabled bool
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]*Metric),
		enabled: true,
	}
}

// SetEnabled enables or disables metrics collection.
func (r *Registry) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// IsEnabled returns whether metrics collection is enabled.
func (r *Registry) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Counter increments a counter metric.
func (r *Registry) Counter(name string, labels Labels) {
	r.update(name, TypeCounter, labels, func(m *Metric) {
		m.Value++
	})
}

// Gauge sets a gauge metric value.
func (r *Registry) Gauge(name string, value float64, labels Labels) {
	r.update(name, TypeGauge, labels, func(m *Metric) {
		m.Value = value
		if value > m.Max {
			m.Max = value
		}
	})
}

// Histogram records a value in a histogram metric.
func (r *Registry) Histogram(name string, value float64, labels Labels) {
	r.update(name, TypeHistogram, labels, func(m *Metric) {
		m.Value = value
		m.Count++
		m.Sum += value
		if value > m.Max {
			m.Max = value
		}
	})
}

func (r *Registry) update(name string, typ MetricType, labels Labels, apply func(*Metric)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}

	key := makeKey(name, labels)
	metric, exists := r.metrics[key]
	if !exists {
		metric = &Metric{
			Name:   name,
			Type:   typ,
			Labels: copyLabels(labels),
		}
		r.metrics[key] = metric
	}
	apply(metric)
	metric.Timestamp = time.Now()
}

// Get returns a copy of one metric, or nil if it was never recorded.
func (r *Registry) Get(name string, labels Labels) *Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metric, exists := r.metrics[makeKey(name, labels)]
	if !exists {
		return nil
	}
	c := *metric
	c.Labels = copyLabels(metric.Labels)
	return &c
}

// GetMetrics returns a snapshot of all current metrics.
func (r *Registry) GetMetrics() map[string]*Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Metric, len(r.metrics))
	for key, metric := range r.metrics {
		c := *metric
		c.Labels = copyLabels(metric.Labels)
		result[key] = &c
	}
	return result
}

// Reset clears all metrics.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = make(map[string]*Metric)
}

// ObserveProbe implements Recorder.
func (r *Registry) ObserveProbe(state, reason string, duration time.Duration) {
	r.Counter(MetricProbeTotal, Labels{LabelState: state, LabelReason: reason})
	r.Histogram(MetricProbeDuration, duration.Seconds(), Labels{LabelState: state})
}

// SetActiveProbes implements Recorder.
func (r *Registry) SetActiveProbes(count int) {
	r.Gauge(MetricProbeActive, float64(count), nil)
}

// ObserveScan implements Recorder.
func (r *Registry) ObserveScan(status string, duration time.Duration) {
	r.Counter(MetricScanTotal, Labels{LabelStatus: status})
	r.Histogram(MetricScanDuration, duration.Seconds(), Labels{LabelStatus: status})
}

// IncrementScanErrors implements Recorder.
func (r *Registry) IncrementScanErrors(errorType string) {
	r.Counter(MetricScanErrors, Labels{LabelErrorType: errorType})
}

// makeKey creates a unique key for a metric from its name and sorted labels.
func makeKey(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString(":")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

// copyLabels creates a copy of labels map.
func copyLabels(labels Labels) Labels {
	if labels == nil {
		return nil
	}
	result := make(Labels, len(labels))
	for k, v := range labels {
		result[k] = v
	}
	return result
}

// Tee fans every measurement out to several recorders.
type Tee []Recorder

func (t Tee) ObserveProbe(state, reason string, duration time.Duration) {
	for _, r := range t {
		r.ObserveProbe(state, reason, duration)
	}
}

func (t Tee) SetActiveProbes(count int) {
	for _, r := range t {
		r.SetActiveProbes(count)
	}
}

func (t Tee) ObserveScan(status string, duration time.Duration) {
	for _, r := range t {
		r.ObserveScan(status, duration)
	}
}

func (t Tee) IncrementScanErrors(errorType string) {
	for _, r := range t {
		r.IncrementScanErrors(errorType)
	}
}
