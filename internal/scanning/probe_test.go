package scanning

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/portprobe/internal/logging"
)

func dialError(errno syscall.Errno) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason Reason
		wantCode   int
	}{
		{"nil", nil, ReasonNone, 0},
		{"refused", dialError(syscall.ECONNREFUSED), ReasonRefused, int(syscall.ECONNREFUSED)},
		{"network unreachable", dialError(syscall.ENETUNREACH), ReasonUnreachable, int(syscall.ENETUNREACH)},
		{"host unreachable", dialError(syscall.EHOSTUNREACH), ReasonUnreachable, int(syscall.EHOSTUNREACH)},
		{"host down", dialError(syscall.EHOSTDOWN), ReasonUnreachable, int(syscall.EHOSTDOWN)},
		{"os timeout", dialError(syscall.ETIMEDOUT), ReasonTimedOut, int(syscall.ETIMEDOUT)},
		{"deadline", context.DeadlineExceeded, ReasonTimedOut, int(syscall.ETIMEDOUT)},
		{"wrapped deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), ReasonTimedOut, int(syscall.ETIMEDOUT)},
		{"net timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}, ReasonTimedOut, int(syscall.ETIMEDOUT)},
		{"other errno", dialError(syscall.EACCES), ReasonUnknown, int(syscall.EACCES)},
		{"plain error", fmt.Errorf("something odd"), ReasonUnknown, 0},
		{"canceled", context.Canceled, ReasonUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, code := Classify(tt.err)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestTCPProber_OpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan struct{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_ = conn.Close()
		accepted <- struct{}{}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	outcome := NewTCPProber(nil).Probe(context.Background(), "127.0.0.1", port, time.Second)

	assert.Equal(t, port, outcome.Port)
	assert.Equal(t, StateOpen, outcome.Status.State)
	assert.Equal(t, ReasonNone, outcome.Status.Reason)
	assert.Empty(t, outcome.Err)
	assert.Positive(t, outcome.RTT)

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("listener never saw the connection")
	}
}

func TestTCPProber_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	outcome := NewTCPProber(nil).Probe(context.Background(), "127.0.0.1", port, time.Second)

	assert.Equal(t, StateFailed, outcome.Status.State)
	assert.Equal(t, ReasonRefused, outcome.Status.Reason)
	assert.Equal(t, int(syscall.ECONNREFUSED), outcome.Status.Code)
	assert.NotEmpty(t, outcome.Err)
}

// blockingDialer never connects; it waits for the dial context to end.
type blockingDialer struct{}

func (blockingDialer) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTCPProber_TimeoutIsBounded(t *testing.T) {
	p := NewTCPProber(blockingDialer{})

	start := time.Now()
	outcome := p.Probe(context.Background(), "192.0.2.1", 8080, 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, StateFailed, outcome.Status.State)
	assert.Equal(t, ReasonTimedOut, outcome.Status.Reason)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTCPProber_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := NewTCPProber(blockingDialer{}).Probe(ctx, "192.0.2.1", 8080, time.Minute)

	assert.Equal(t, StateFailed, outcome.Status.State)
	assert.Equal(t, ReasonUnknown, outcome.Status.Reason)
}

// countingDialer hands out fake connections and tracks how many are still
// open. Every third port is refused.
type countingDialer struct {
	opened atomic.Int64
	closed atomic.Int64
}

func (d *countingDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	_, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	port, _ := strconv.Atoi(portStr)
	if port%3 == 0 {
		return nil, dialError(syscall.ECONNREFUSED)
	}
	d.opened.Add(1)
	return &countedConn{dialer: d}, nil
}

type countedConn struct {
	net.Conn
	dialer *countingDialer
	done   atomic.Bool
}

func (c *countedConn) Close() error {
	if c.done.CompareAndSwap(false, true) {
		c.dialer.closed.Add(1)
	}
	return nil
}

func TestTCPProber_ReleasesEverySocket(t *testing.T) {
	dialer := &countingDialer{}
	engine := NewEngine(
		WithConcurrency(200),
		WithProber(NewTCPProber(dialer)),
		WithLogger(logging.Discard()),
	)

	result, err := engine.Scan(context.Background(), NewScanRequest("10.0.0.1", 1, 10000, time.Second), nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 10000)

	summary := result.Summary()
	assert.Equal(t, 3333, summary.Refused)
	assert.Equal(t, 6667, summary.Open)
	assert.Equal(t, int64(6667), dialer.opened.Load())
	assert.Equal(t, dialer.opened.Load(), dialer.closed.Load(), "leaked connections")
}
