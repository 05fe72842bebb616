package cliutil

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poros-project/netreco/internal/model"
)

type stubResolver struct {
	answers map[string]net.IP
}

func (s stubResolver) Lookup(ctx context.Context, hostname string, timeout time.Duration) (net.IP, bool) {
	ip, ok := s.answers[hostname]
	return ip, ok
}

func (s stubResolver) Reverse(ctx context.Context, ip net.IP, timeout time.Duration) (string, bool) {
	return "", false
}

func TestResolveTargetsExpandsLiteralAndCIDR(t *testing.T) {
	eps, err := ResolveTargets(context.Background(), []string{"192.0.2.1", "192.0.2.0/30"}, nil, time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 192.0.2.1 appears once (deduped against the /30's .1 host), plus
	// the /30's two usable hosts (.1 and .2, edges .0/.3 excluded).
	seen := make(map[string]bool)
	for _, ep := range eps {
		seen[ep.IP.String()] = true
	}
	if !seen["192.0.2.1"] || !seen["192.0.2.2"] {
		t.Fatalf("expected .1 and .2 present, got %v", seen)
	}
	if seen["192.0.2.0"] || seen["192.0.2.3"] {
		t.Fatalf("network/broadcast addresses should be excluded, got %v", seen)
	}
}

func TestResolveTargetsUsesHostnameResolver(t *testing.T) {
	resolver := stubResolver{answers: map[string]net.IP{"example.test": net.ParseIP("203.0.113.5")}}
	eps, err := ResolveTargets(context.Background(), []string{"example.test"}, resolver, time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || !eps[0].IP.Equal(net.ParseIP("203.0.113.5")) || eps[0].Hostname != "example.test" {
		t.Fatalf("unexpected endpoints: %+v", eps)
	}
}

func TestResolveTargetsReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	if err := os.WriteFile(path, []byte("# comment\n192.0.2.10\n\n192.0.2.11\n"), 0644); err != nil {
		t.Fatal(err)
	}
	eps, err := ResolveTargets(context.Background(), []string{path}, nil, time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("want 2 endpoints from file, got %d", len(eps))
	}
}

func TestResolveTargetsAppliesAliases(t *testing.T) {
	aliases := map[string]string{"gw": "192.0.2.254"}
	eps, err := ResolveTargets(context.Background(), []string{"gw"}, nil, time.Second, aliases)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].IP.String() != "192.0.2.254" {
		t.Fatalf("alias not applied: %+v", eps)
	}
}

func TestParsePortSpecTopN(t *testing.T) {
	ports, err := ParsePortSpec("top-5", model.TransportTCP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 5 {
		t.Fatalf("want 5 ports, got %d", len(ports))
	}
	for _, p := range ports {
		if p.Transport != model.TransportTCP {
			t.Fatalf("want TCP transport, got %v", p.Transport)
		}
	}
}

func TestParsePortSpecList(t *testing.T) {
	ports, err := ParsePortSpec("22,80,443", model.TransportTCP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{22, 80, 443}
	if len(ports) != len(want) {
		t.Fatalf("want %d ports, got %d", len(want), len(ports))
	}
	for i, p := range ports {
		if p.Number != want[i] {
			t.Fatalf("port %d: want %d, got %d", i, want[i], p.Number)
		}
	}
}

func TestParsePortSpecRange(t *testing.T) {
	ports, err := ParsePortSpec("8000-8002", model.TransportUDP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 3 {
		t.Fatalf("want 3 ports, got %d", len(ports))
	}
	for i, want := range []int{8000, 8001, 8002} {
		if ports[i].Number != want {
			t.Fatalf("port %d: want %d, got %d", i, want, ports[i].Number)
		}
	}
}

func TestParsePortSpecRejectsInvalidRange(t *testing.T) {
	if _, err := ParsePortSpec("80-22", model.TransportTCP); err == nil {
		t.Fatal("expected an error for a descending range")
	}
	if _, err := ParsePortSpec("0", model.TransportTCP); err == nil {
		t.Fatal("expected an error for port 0")
	}
	if _, err := ParsePortSpec("70000", model.TransportTCP); err == nil {
		t.Fatal("expected an error for a port above 65535")
	}
}

func TestWithPortsAttachesToEveryEndpoint(t *testing.T) {
	eps := []model.Endpoint{{IP: net.ParseIP("192.0.2.1")}, {IP: net.ParseIP("192.0.2.2")}}
	ports := []model.Port{{Number: 80, Transport: model.TransportTCP}}
	out := WithPorts(eps, ports)
	for _, ep := range out {
		if len(ep.Ports) != 1 || ep.Ports[0].Number != 80 {
			t.Fatalf("expected port 80 attached, got %+v", ep.Ports)
		}
	}
}
