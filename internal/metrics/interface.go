// Package metrics provides interfaces for metrics collection and monitoring.
package metrics

import "time"

// Recorder is the set of measurements the scan engine reports. It allows the
// engine to run with Prometheus collectors, a test double, or nothing at all.
type Recorder interface {
	// ObserveProbe records one finished probe with its state, reason and latency.
	ObserveProbe(state, reason string, duration time.Duration)

	// SetActiveProbes sets the number of probes currently in flight.
	SetActiveProbes(count int)

	// ObserveScan records one finished scan with its final status
	// ("complete", "partial" or "error") and duration.
	ObserveScan(status string, duration time.Duration)

	// IncrementScanErrors counts a scan-level failure by error type.
	IncrementScanErrors(errorType string)
}

// Nop is a Recorder that discards every measurement.
type Nop struct{}

func (Nop) ObserveProbe(string, string, time.Duration) {}
func (Nop) SetActiveProbes(int)                       {}
func (Nop) ObserveScan(string, time.Duration)         {}
func (Nop) IncrementScanErrors(string)                {}

// Ensure that every implementation satisfies Recorder.
var (
	_ Recorder = Nop{}
	_ Recorder = (*PrometheusMetrics)(nil)
	_ Recorder = (*Registry)(nil)
	_ Recorder = Tee(nil)
)
