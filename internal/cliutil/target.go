// Package cliutil implements the CLI's own input grammars: target
// resolution (IPv4/IPv6 literal, CIDR, hostname, or a newline-separated
// file) and port-spec parsing (spec §6), generalized from the pack's
// target-generator idiom (sun977-NeoScan/neoAgent's
// internal/core/pipeline/target.go) to the host/port types this spec's
// operations consume.
package cliutil

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poros-project/netreco/internal/collab"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/reconerr"
)

// ResolveTargets expands a list of CLI target arguments into concrete
// Endpoints: each argument may be an IPv4/IPv6 literal, a CIDR block, a
// hostname (resolved via resolver), or a path to a newline-separated
// target list (spec §6 "Target can be IPv4/IPv6 literal, CIDR, hostname,
// or a path to a newline-separated list").
func ResolveTargets(ctx context.Context, args []string, resolver collab.Resolver, resolveTimeout time.Duration, aliases map[string]string) ([]model.Endpoint, error) {
	var raw []string
	for _, arg := range args {
		if alias, ok := aliases[arg]; ok {
			arg = alias
		}
		if lines, ok := readTargetFile(arg); ok {
			for _, line := range lines {
				if aliased, ok := aliases[line]; ok {
					line = aliased
				}
				raw = append(raw, line)
			}
			continue
		}
		raw = append(raw, arg)
	}

	var endpoints []model.Endpoint
	seen := make(map[string]bool)
	for _, entry := range raw {
		ips, hostname, err := expandEntry(ctx, entry, resolver, resolveTimeout)
		if err != nil {
			return nil, err
		}
		for _, ip := range ips {
			key := ip.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			endpoints = append(endpoints, model.Endpoint{IP: ip, Hostname: hostname})
		}
	}
	if len(endpoints) == 0 {
		return nil, reconerr.Config("target.resolve", fmt.Errorf("no targets resolved from %v", args))
	}
	return endpoints, nil
}

// readTargetFile reports whether path names a regular file and, if so,
// returns its non-empty, non-comment lines.
func readTargetFile(path string) ([]string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, true
}

func expandEntry(ctx context.Context, entry string, resolver collab.Resolver, resolveTimeout time.Duration) ([]net.IP, string, error) {
	if ip, ipnet, err := net.ParseCIDR(entry); err == nil {
		return expandCIDR(ip, ipnet), "", nil
	}
	if ip := net.ParseIP(entry); ip != nil {
		return []net.IP{ip}, "", nil
	}
	if resolver == nil {
		return nil, "", reconerr.Config("target.resolve", fmt.Errorf("cannot resolve hostname %q: no resolver configured", entry))
	}
	ip, ok := resolver.Lookup(ctx, entry, resolveTimeout)
	if !ok {
		return nil, "", reconerr.Config("target.resolve", fmt.Errorf("could not resolve hostname %q", entry))
	}
	return []net.IP{ip}, entry, nil
}

// maxCIDRHosts caps CIDR expansion so a stray /8 doesn't allocate
// unbounded memory; larger blocks are truncated with the remainder
// silently dropped, mirroring "accept any" empty-set semantics elsewhere
// in this spec rather than erroring the whole run.
const maxCIDRHosts = 65536

func expandCIDR(first net.IP, ipnet *net.IPNet) []net.IP {
	var out []net.IP
	ip := cloneIP(ipnet.IP.Mask(ipnet.Mask))
	ones, bits := ipnet.Mask.Size()
	isV4 := ip.To4() != nil
	// Skip network/broadcast addresses for IPv4 blocks wider than /31.
	skipEdges := isV4 && bits-ones > 1
	for count := 0; ipnet.Contains(ip) && count < maxCIDRHosts; incIP(ip) {
		count++
		if skipEdges && (ip.Equal(ipnet.IP.Mask(ipnet.Mask)) || isBroadcast(ip, ipnet)) {
			continue
		}
		out = append(out, cloneIP(ip))
	}
	return out
}

func isBroadcast(ip net.IP, ipnet *net.IPNet) bool {
	bcast := cloneIP(ipnet.IP.Mask(ipnet.Mask))
	for i := range bcast {
		bcast[i] |= ^ipnet.Mask[i]
	}
	return ip.Equal(bcast)
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

// topPorts is the bundled "top-N" port list, ordered by prevalence, used
// by the `--ports top-N` grammar (spec §6).
var topPorts = []int{
	80, 443, 22, 21, 23, 25, 53, 110, 111, 135,
	139, 143, 445, 993, 995, 1723, 3306, 3389, 5900, 8080,
	8443, 179, 3000, 5432, 6379, 8000, 8888, 27017, 161, 162,
	389, 636, 514, 69, 123, 500, 1194, 1433, 2049, 6000,
}

// ParsePortSpec parses the §6 port spec grammar: `top-N` | `N[,N]*` |
// `A-B` (inclusive), returning Ports for the given transport.
func ParsePortSpec(spec string, transport model.Transport) ([]model.Port, error) {
	if spec == "" {
		return nil, nil
	}
	if n, ok := strings.CutPrefix(spec, "top-"); ok {
		count, err := strconv.Atoi(n)
		if err != nil || count <= 0 {
			return nil, reconerr.Config("portspec.parse", fmt.Errorf("invalid top-N port spec %q", spec))
		}
		if count > len(topPorts) {
			count = len(topPorts)
		}
		ports := make([]model.Port, 0, count)
		seen := make(map[int]bool)
		for _, p := range topPorts[:count] {
			if seen[p] {
				continue
			}
			seen[p] = true
			ports = append(ports, model.Port{Number: p, Transport: transport})
		}
		return ports, nil
	}

	var ports []model.Port
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(field, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || start < 1 || end > 65535 || start > end {
				return nil, reconerr.Config("portspec.parse", fmt.Errorf("invalid port range %q", field))
			}
			for p := start; p <= end; p++ {
				ports = append(ports, model.Port{Number: p, Transport: transport})
			}
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > 65535 {
			return nil, reconerr.Config("portspec.parse", fmt.Errorf("invalid port %q", field))
		}
		ports = append(ports, model.Port{Number: n, Transport: transport})
	}
	return ports, nil
}

// WithPorts returns a copy of endpoints with ports attached to each.
func WithPorts(endpoints []model.Endpoint, ports []model.Port) []model.Endpoint {
	out := make([]model.Endpoint, len(endpoints))
	for i, ep := range endpoints {
		ep.Ports = ports
		out[i] = ep
	}
	return out
}
