package orchestrator

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/model"
)

func buildIPv6ICMPFrame(t *testing.T, hopLimit uint8) []byte {
	t.Helper()
	ip6 := &layers.IPv6{
		Version: 6, HopLimit: hopLimit, NextHeader: layers.IPProtocolICMPv6,
		SrcIP: net.ParseIP("2001:db8::1"), DstIP: net.ParseIP("2001:db8::2"),
	}
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoReply, 0)}
	icmp.SetNetworkLayerForChecksum(ip6)
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip6, icmp); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func TestObservedTTLReadsIPv4TTL(t *testing.T) {
	frame := capture.Frame{Data: buildIPv4TCPFrame(t, true, 47)}
	if got := observedTTL(frame, true); got != 47 {
		t.Fatalf("want TTL 47, got %d", got)
	}
}

func TestObservedTTLReadsIPv6HopLimit(t *testing.T) {
	frame := capture.Frame{Data: buildIPv6ICMPFrame(t, 58)}
	if got := observedTTL(frame, false); got != 58 {
		t.Fatalf("want hop limit 58, got %d", got)
	}
}

func TestFinishScanCarriesTimeoutWarning(t *testing.T) {
	r := &Runner{}
	endpoints := map[string]*model.EndpointResult{
		"192.0.2.1": model.NewEndpointResult(net.ParseIP("192.0.2.1"), ""),
	}

	got := r.finishScan(model.ProbeSetting{Seed: 9}, endpoints, driveResult{timedOut: true})
	if len(got.Endpoints) != 1 {
		t.Fatalf("want 1 endpoint, got %d", len(got.Endpoints))
	}
	if got.Warning == "" {
		t.Fatal("want a warning set when the drive cycle timed out")
	}
	if got.Seed != 9 {
		t.Fatalf("want seed carried through, got %d", got.Seed)
	}
}

func TestFinishScanNoWarningWithoutTimeout(t *testing.T) {
	r := &Runner{}
	got := r.finishScan(model.ProbeSetting{}, map[string]*model.EndpointResult{}, driveResult{timedOut: false})
	if got.Warning != "" {
		t.Fatalf("want no warning, got %q", got.Warning)
	}
}
