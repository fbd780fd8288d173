// Package server checks that a logger's data server can be reached from the
// network the logger joins.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"logger-netcfg/internal/types"
)

// DefaultPort is used when the server setting carries no port.
const DefaultPort = 80

// DefaultTimeout bounds each resolver query and the TCP dial.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of a reachability check.
type Result struct {
	Server  string
	Host    string
	Port    int
	Address types.IPv4
	Latency time.Duration
}

// SplitHostPort separates an optional :port from server.
func SplitHostPort(server string, defaultPort int) (string, int, error) {
	i := strings.LastIndex(server, ":")
	if i < 0 {
		return server, defaultPort, nil
	}
	port, err := strconv.Atoi(server[i+1:])
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("server %q has an invalid port", server)
	}
	return server[:i], port, nil
}

// Resolve returns the IPv4 address of host. Dotted-quads are returned as is.
// Names are looked up through resolvers in order, or through the system
// resolver when none are given.
func Resolve(ctx context.Context, host string, resolvers []types.IPv4, timeout time.Duration) (types.IPv4, error) {
	if ip, err := types.ParseIPv4(host); err == nil {
		return ip, nil
	}

	if len(resolvers) == 0 {
		return lookup(ctx, net.DefaultResolver, host)
	}

	var errs []error
	for _, dns := range resolvers {
		server := net.JoinHostPort(dns.String(), "53")
		resolver := &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: timeout}
				return d.DialContext(ctx, "udp", server)
			},
		}

		qctx, cancel := context.WithTimeout(ctx, timeout*2)
		ip, err := lookup(qctx, resolver, host)
		cancel()
		if err == nil {
			return ip, nil
		}
		errs = append(errs, fmt.Errorf("via %s: %w", dns, err))
		if ctx.Err() != nil {
			break
		}
	}
	return types.IPv4{}, fmt.Errorf("failed to resolve %s: %w", host, errors.Join(errs...))
}

func lookup(ctx context.Context, resolver *net.Resolver, host string) (types.IPv4, error) {
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return types.IPv4{}, err
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return types.IPv4{v4[0], v4[1], v4[2], v4[3]}, nil
		}
	}
	return types.IPv4{}, fmt.Errorf("no IPv4 address for %s", host)
}

// Probe opens and closes a TCP connection to address:port and reports how
// long the handshake took.
func Probe(ctx context.Context, address types.IPv4, port int, timeout time.Duration) (time.Duration, error) {
	target := net.JoinHostPort(address.String(), strconv.Itoa(port))
	dialer := net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	latency := time.Since(start)
	conn.Close()
	return latency, nil
}

// Check resolves server and probes it.
func Check(ctx context.Context, server string, defaultPort int, resolvers []types.IPv4, timeout time.Duration) (Result, error) {
	result := Result{Server: server}

	host, port, err := SplitHostPort(server, defaultPort)
	if err != nil {
		return result, err
	}
	result.Host = host
	result.Port = port

	address, err := Resolve(ctx, host, resolvers, timeout)
	if err != nil {
		return result, err
	}
	result.Address = address

	latency, err := Probe(ctx, address, port, timeout)
	if err != nil {
		return result, err
	}
	result.Latency = latency
	return result, nil
}
