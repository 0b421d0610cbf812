// Package resolve turns host names into IPv4 addresses and discovers the
// addresses this host is reachable at.
package resolve

import (
	"context"
	"log/slog"
	ipv4 "media-net/network/ip/v4"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

const (
	defaultTimeout = 5 * time.Second
	resolvConf     = "/etc/resolv.conf"

	// publicName resolves to the address of whoever asks, when asked to OpenDNS.
	publicName = "myip.opendns.com"
)

var openDNSServers = []string{"208.67.222.222:53", "208.67.220.220:53"}

var ErrNotFound = errors.New("no IPv4 address found")

// Resolver queries DNS servers for A records.
// The zero value uses the servers from /etc/resolv.conf.
type Resolver struct {
	// Servers are "host:port" pairs asked in order until one answers.
	Servers []string
	// PublicServers answer the public address query. Defaults to OpenDNS.
	PublicServers []string
	// Timeout bounds every single query. Zero means five seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// Resolve returns the address of host, which may also be a dotted-quad literal.
func (r *Resolver) Resolve(ctx context.Context, host string) (ipv4.Addr, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return ipv4.Addr{}, errors.New("empty host")
	}

	if addr, err := ipv4.ParseAddr(host); err == nil {
		return addr, nil
	}
	if strings.EqualFold(host, "localhost") {
		return ipv4.LocalHost, nil
	}

	servers, err := r.servers()
	if err != nil {
		return ipv4.Addr{}, err
	}
	return r.query(ctx, servers, host)
}

// PublicAddress returns the address this host has as seen from the internet.
func (r *Resolver) PublicAddress(ctx context.Context) (ipv4.Addr, error) {
	servers := r.PublicServers
	if len(servers) == 0 {
		servers = openDNSServers
	}
	return r.query(ctx, servers, publicName)
}

// LocalAddress returns the address of the interface outbound traffic leaves
// through. Connecting a UDP socket sends nothing on the wire.
func LocalAddress() (ipv4.Addr, error) {
	conn, err := net.Dial("udp4", "1.1.1.1:9")
	if err != nil {
		return ipv4.Addr{}, errors.Wrap(err, "failed to pick a route")
	}
	defer conn.Close()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ipv4.Addr{}, errors.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	addr, ok := ipv4.AddrFromIP(udpAddr.IP)
	if !ok {
		return ipv4.Addr{}, errors.Errorf("local address %v is not IPv4", udpAddr.IP)
	}
	return addr, nil
}

func (r *Resolver) servers() ([]string, error) {
	if len(r.Servers) > 0 {
		return r.Servers, nil
	}

	conf, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read resolver configuration")
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, server := range conf.Servers {
		servers = append(servers, net.JoinHostPort(server, conf.Port))
	}
	if len(servers) == 0 {
		return nil, errors.New("no name servers configured")
	}
	return servers, nil
}

func (r *Resolver) query(ctx context.Context, servers []string, host string) (ipv4.Addr, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := &dns.Client{Net: "udp", Timeout: timeout}

	request := new(dns.Msg)
	request.SetQuestion(dns.Fqdn(host), dns.TypeA)
	request.RecursionDesired = true

	var lastErr error = ErrNotFound
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return ipv4.Addr{}, errors.WithStack(err)
		}

		response, _, err := client.ExchangeContext(ctx, request, server)
		if err != nil {
			logger.Debug("query failed", "server", server, "host", host, "error", err)
			lastErr = errors.Wrapf(err, "failed to query %s", server)
			continue
		}

		if response.Rcode != dns.RcodeSuccess {
			rcode, ok := dns.RcodeToString[response.Rcode]
			if !ok {
				rcode = "unknown rcode"
			}
			logger.Debug("query rejected", "server", server, "host", host, "rcode", rcode)
			lastErr = errors.Wrapf(ErrNotFound, "%s answered %s", server, rcode)
			continue
		}

		for _, answer := range response.Answer {
			a, ok := answer.(*dns.A)
			if !ok {
				continue
			}
			if addr, ok := ipv4.AddrFromIP(a.A); ok {
				return addr, nil
			}
		}
		lastErr = errors.Wrapf(ErrNotFound, "%s has no A record for %s", server, host)
	}

	return ipv4.Addr{}, lastErr
}
