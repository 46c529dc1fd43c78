package scanning_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/anstrom/portprobe/internal/scanning"
)

// BenchmarkEngine_Dispatch measures engine overhead with a prober that
// returns immediately.
func BenchmarkEngine_Dispatch(b *testing.B) {
	prober := proberFunc(func(_ context.Context, _ string, port int, _ time.Duration) scanning.ProbeOutcome {
		return refusedOutcome(port)
	})
	engine := newTestEngine(scanning.WithProber(prober), scanning.WithConcurrency(200))
	req := scanning.NewScanRequest("127.0.0.1", 1, 1024, time.Second)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		result, err := engine.Scan(context.Background(), req, nil)
		if err != nil {
			b.Fatalf("Scan failed: %v", err)
		}
		if len(result.Outcomes) != req.Range.Len() {
			b.Fatalf("Expected %d outcomes, got %d", req.Range.Len(), len(result.Outcomes))
		}
	}
}

// BenchmarkEngine_Loopback scans a small loopback range with real dials.
func BenchmarkEngine_Loopback(b *testing.B) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		b.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	engine := newTestEngine()
	req := scanning.NewScanRequest("127.0.0.1", port, port+15, 200*time.Millisecond)
	if req.Range.End > scanning.MaxPort {
		b.Skip("listener port too close to the top of the range")
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		result, err := engine.Scan(context.Background(), req, nil)
		if err != nil {
			b.Fatalf("Scan failed: %v", err)
		}
		if result.Summary().Open < 1 {
			b.Fatalf("Expected port %d to be open", port)
		}
	}
}
