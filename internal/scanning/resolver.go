package scanning

//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultDNSPort    = "53"
	defaultDNSTimeout = 2 * time.Second
)

// ErrNoAddress is returned when a name resolves but has no usable address.
var ErrNoAddress = errors.New("no A or AAAA records")

// Resolver turns a scan target into the single address every probe dials.
type Resolver interface {
	Resolve(ctx context.Context, host string) (string, error)
}

// SystemResolver resolves through the operating system resolver.
type SystemResolver struct {
	// Resolver is used when set; net.DefaultResolver otherwise.
	Resolver *net.Resolver
}

// Resolve returns host unchanged if it is an IP literal, otherwise its first
// IPv4 address, falling back to the first IPv6 address.
func (r *SystemResolver) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	resolver := r.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return pickAddress(host, ips)
}

// DNSResolver queries one DNS server directly, asking for A records first and
// AAAA records second.
type DNSResolver struct {
	server string
	client *dns.Client
}

// NewDNSResolver creates a resolver for server ("host" or "host:port").
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, defaultDNSPort)
	}
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// Server returns the address queries are sent to.
func (r *DNSResolver) Server() string {
	return r.server
}

// Resolve returns host unchanged if it is an IP literal, otherwise the first
// A record, or the first AAAA record when there is no A record.
func (r *DNSResolver) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	fqdn := dns.Fqdn(host)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)
		msg.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
		if err != nil {
			return "", fmt.Errorf("query %s %s via %s: %w", dns.TypeToString[qtype], host, r.server, err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			return "", fmt.Errorf("query %s %s via %s: %s", dns.TypeToString[qtype], host, r.server,
				dns.RcodeToString[resp.Rcode])
		}

		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				return v.A.String(), nil
			case *dns.AAAA:
				return v.AAAA.String(), nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", host, ErrNoAddress)
}

// pickAddress prefers IPv4 over IPv6.
func pickAddress(host string, ips []net.IP) (string, error) {
	var firstV6 net.IP
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
		if firstV6 == nil {
			firstV6 = ip
		}
	}
	if firstV6 != nil {
		return firstV6.String(), nil
	}
	return "", fmt.Errorf("%s: %w", host, ErrNoAddress)
}
