package scanning

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
)

// DefaultConcurrency is the number of probes allowed in flight when no bound
// is configured. It stays well below common per-process descriptor limits.
const DefaultConcurrency = 100

// Scan statuses reported to metrics.
const (
	statusComplete = "complete"
	statusPartial  = "partial"
	statusError    = "error"
)

// Engine runs scans. An Engine holds no per-scan state and may run several
// scans concurrently.
type Engine struct {
	concurrency int
	prober      Prober
	resolver    Resolver
	logger      *logging.Logger
	metrics     metrics.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of probes in flight. Values <= 0 select
// DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithProber replaces the TCP connect prober.
func WithProber(p Prober) Option {
	return func(e *Engine) {
		e.prober = p
	}
}

// WithResolver replaces the system resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithLogger sets the logger used for scan and probe events.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the recorder for probe and scan measurements.
func WithMetrics(m metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine with the given options applied over defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	if e.prober == nil {
		e.prober = NewTCPProber(nil)
	}
	if e.resolver == nil {
		e.resolver = &SystemResolver{}
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	e.logger = e.logger.WithComponent("engine")
	return e
}

// Concurrency returns the configured probe bound.
func (e *Engine) Concurrency() int {
	return e.concurrency
}

// probeReport carries one finished probe to the aggregator.
type probeReport struct {
	outcome ProbeOutcome
	// aborted is set when the probe was cut short by scan cancellation; its
	// outcome says nothing about the port and is not recorded.
	aborted bool
}

// Scan probes every port of req.Range on req.Target.
//
// The request is validated first; an invalid request returns a
// *errors.ConfigError and touches nothing on the network. The target is then
// resolved once; failure returns a *errors.ScanError with CodeResolution and
// no probe is sent. Per-port failures are recorded in the result and never
// returned as errors.
//
// progress, if non-nil, is called from a single goroutine after each recorded
// outcome. When ctx is canceled the engine stops dispatching, waits for
// in-flight probes to release their sockets, and returns the outcomes
// recorded so far with Partial set.
func (e *Engine) Scan(ctx context.Context, req ScanRequest, progress ProgressFunc) (*ScanResult, error) {
	scanStart := time.Now()

	if err := req.Validate(); err != nil {
		e.metrics.IncrementScanErrors("validation")
		e.logger.Debug("Rejected scan request", "target", req.Target, "error", err)
		return nil, err
	}

	result := NewScanResult(uuid.NewString(), req)
	logger := e.logger.WithScanID(result.ID).WithTarget(req.Target)

	address, err := e.resolver.Resolve(ctx, req.Target)
	if err != nil {
		if ctx.Err() != nil {
			result.Partial = true
			result.Complete()
			e.metrics.ObserveScan(statusPartial, time.Since(scanStart))
			logger.Info("Scan canceled during resolution")
			return result, nil
		}
		e.metrics.IncrementScanErrors("resolution")
		e.metrics.ObserveScan(statusError, time.Since(scanStart))
		logger.WithError(err).Error("Target resolution failed")
		return nil, errors.ErrResolution(req.Target, err)
	}
	result.Address = address

	total := req.Range.Len()
	workers := e.workerCount(total)
	logger.Info("Starting scan",
		"address", address,
		"ports", req.Range.String(),
		"total", total,
		"concurrency", workers,
		"timeout", req.Timeout)

	limiter := NewProbeLimiter(workers, e.metrics)
	reports := make(chan probeReport, workers)
	go e.dispatch(ctx, req, address, limiter, reports)

	// The aggregator below is the only writer of slots, completed and the
	// progress sequence. Slot i holds the outcome for port Range.Start+i.
	slots := make([]*ProbeOutcome, total)
	completed := 0
	for report := range reports {
		if report.aborted {
			continue
		}
		outcome := report.outcome
		idx := outcome.Port - req.Range.Start
		if idx < 0 || idx >= total || slots[idx] != nil {
			logger.Warn("Discarding unexpected probe outcome", "port", outcome.Port)
			continue
		}
		slots[idx] = &outcome
		completed++

		logger.DebugProbe("Probe finished", outcome.Port,
			"status", outcome.Status.String(),
			"rtt", outcome.RTT)

		if progress != nil {
			progress(Progress{
				Completed: completed,
				Total:     total,
				Fraction:  float64(completed) / float64(total),
			})
		}
	}
	limiter.Close()

	result.Outcomes = make([]ProbeOutcome, 0, completed)
	for _, o := range slots {
		if o != nil {
			result.Outcomes = append(result.Outcomes, *o)
		}
	}
	result.Partial = completed < total
	result.Complete()

	status := statusComplete
	if result.Partial {
		status = statusPartial
	}
	e.metrics.ObserveScan(status, result.Duration)

	summary := result.Summary()
	logger.Info("Scan finished",
		"status", status,
		"completed", completed,
		"total", total,
		"open", summary.Open,
		"duration", result.Duration)

	return result, nil
}

// dispatch starts one probe per port, never more than the limiter allows at
// once, and closes reports after the last probe has reported.
func (e *Engine) dispatch(ctx context.Context, req ScanRequest, address string,
	limiter *ProbeLimiter, reports chan<- probeReport) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		close(reports)
	}()

	for port := req.Range.Start; port <= req.Range.End; port++ {
		if err := limiter.Acquire(ctx, port); err != nil {
			return
		}

		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			defer limiter.Release(port)

			outcome := e.prober.Probe(ctx, address, port, req.Timeout)
			e.metrics.ObserveProbe(outcome.Status.State.String(), outcome.Status.Reason.String(), outcome.RTT)

			reports <- probeReport{
				outcome: outcome,
				aborted: ctx.Err() != nil && !outcome.Status.Open(),
			}
		}(port)
	}
}

func (e *Engine) workerCount(total int) int {
	if total < e.concurrency {
		return total
	}
	return e.concurrency
}
