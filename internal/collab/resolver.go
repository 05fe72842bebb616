// Package collab defines the external collaborators the scan
// orchestrator consumes — Resolver, Rulebase, and InterfaceProvider
// (spec §6) — and a default implementation of each.
package collab

import (
	"context"
	"net"
	"strings"
	"time"
)

// Resolver performs forward and reverse DNS lookups with a timeout
// (spec §6).
type Resolver interface {
	Lookup(ctx context.Context, hostname string, timeout time.Duration) (net.IP, bool)
	Reverse(ctx context.Context, ip net.IP, timeout time.Duration) (string, bool)
}

// DNSResolver is the default Resolver, backed by net.DefaultResolver and
// a TTL cache (grounded on the teacher's RDNSResolver).
type DNSResolver struct {
	forward *cache
	reverse *cache
}

// NewDNSResolver builds a DNSResolver with the given cache TTL.
func NewDNSResolver(cacheTTL time.Duration) *DNSResolver {
	return &DNSResolver{
		forward: newCache(1000, cacheTTL),
		reverse: newCache(1000, cacheTTL),
	}
}

// Lookup resolves hostname to its first A/AAAA address.
func (r *DNSResolver) Lookup(ctx context.Context, hostname string, timeout time.Duration) (net.IP, bool) {
	if cached, ok := r.forward.Get(hostname); ok {
		if cached == "" {
			return nil, false
		}
		return net.ParseIP(cached), true
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(lookupCtx, "ip", hostname)
	if err != nil || len(ips) == 0 {
		r.forward.Set(hostname, "")
		return nil, false
	}
	r.forward.Set(hostname, ips[0].String())
	return ips[0], true
}

// Reverse resolves ip to a hostname via PTR lookup.
func (r *DNSResolver) Reverse(ctx context.Context, ip net.IP, timeout time.Duration) (string, bool) {
	key := ip.String()
	if cached, ok := r.reverse.Get(key); ok {
		return cached, cached != ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(lookupCtx, key)
	if err != nil || len(names) == 0 {
		r.reverse.Set(key, "")
		return "", false
	}
	hostname := strings.TrimSuffix(names[0], ".")
	r.reverse.Set(key, hostname)
	return hostname, true
}
