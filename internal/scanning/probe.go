package scanning

//go:generate mockgen -source=probe.go -destination=mocks/mock_prober.go -package=mocks

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// Prober performs one bounded connection attempt and classifies the result.
// Implementations must not retry and must release every socket they open.
type Prober interface {
	Probe(ctx context.Context, address string, port int, timeout time.Duration) ProbeOutcome
}

// Dialer is the connect primitive TCPProber uses. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TCPProber probes ports with a full TCP connect.
type TCPProber struct {
	dialer Dialer
}

// NewTCPProber returns a prober using d, or a net.Dialer with keep-alive
// disabled when d is nil.
func NewTCPProber(d Dialer) *TCPProber {
	if d == nil {
		d = &net.Dialer{KeepAlive: -1}
	}
	return &TCPProber{dialer: d}
}

// Probe connects to address:port, waiting at most timeout. The connection,
// if any, is closed before Probe returns.
func (p *TCPProber) Probe(ctx context.Context, address string, port int, timeout time.Duration) ProbeOutcome {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	rtt := time.Since(start)
	if conn != nil {
		_ = conn.Close()
	}

	if err == nil {
		return ProbeOutcome{
			Port:   port,
			Status: Status{State: StateOpen, Reason: ReasonNone},
			RTT:    rtt,
		}
	}

	reason, code := Classify(err)
	return ProbeOutcome{
		Port:   port,
		Status: Status{State: StateFailed, Reason: reason, Code: code},
		RTT:    rtt,
		Err:    err.Error(),
	}
}

// Classify maps a dial error to a Reason and the OS error number behind it.
func Classify(err error) (Reason, int) {
	if err == nil {
		return ReasonNone, 0
	}

	var errno syscall.Errno
	hasErrno := errors.As(err, &errno)

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ReasonRefused, int(syscall.ECONNREFUSED)
	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.EHOSTDOWN):
		return ReasonUnreachable, int(errno)
	case errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, context.DeadlineExceeded),
		isTimeout(err):
		return ReasonTimedOut, int(syscall.ETIMEDOUT)
	case hasErrno:
		return ReasonUnknown, int(errno)
	default:
		return ReasonUnknown, 0
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
