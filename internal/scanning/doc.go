// Package scanning implements the portprobe scan engine.
//
// A scan takes a ScanRequest (target, inclusive port range, per-probe
// timeout) and returns a ScanResult with one ProbeOutcome per port, sorted by
// port. Outcomes are either open, or failed with a Reason (refused, timed
// out, unreachable, unknown) and the OS error number behind it.
//
// # Components
//
//   - Prober / TCPProber: one bounded TCP connect per port. The socket is
//     closed on every path and a probe is never retried.
//   - Resolver: SystemResolver uses the OS resolver, DNSResolver queries a
//     given DNS server. The target is resolved once, before any probe.
//   - ProbeLimiter: the concurrency bound on in-flight probes.
//   - Engine: validation, resolution, bounded dispatch, and a single
//     aggregator goroutine that records outcomes and emits Progress.
//
// # Usage
//
//	engine := scanning.NewEngine(scanning.WithConcurrency(200))
//	req := scanning.NewScanRequest("192.0.2.10", 1, 1024, time.Second)
//	result, err := engine.Scan(ctx, req, func(p scanning.Progress) {
//		fmt.Printf("\r%3.0f%%", p.Fraction*100)
//	})
//	if err != nil {
//		// *errors.ConfigError or *errors.ScanError
//	}
//	for _, o := range result.Open() {
//		fmt.Println(o.Port)
//	}
//
// # Errors
//
// Only two kinds of error come back from Scan: configuration errors (invalid
// range, timeout or target; nothing was sent) and resolution errors (the
// target has no address; nothing was sent). Closed and filtered ports are
// data. Cancelling ctx is not an error either: Scan returns what it has,
// with ScanResult.Partial set.
//
// # Concurrency
//
// The engine writes nothing to stdout or stderr beyond its logger, keeps no
// state between scans, and is safe for concurrent use.
package scanning
