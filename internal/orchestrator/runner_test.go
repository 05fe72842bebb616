package orchestrator

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/collab"
)

func TestOnLinkMatchesSameSubnetIPv4(t *testing.T) {
	info := collab.InterfaceInfo{IPs: []net.IP{net.ParseIP("192.0.2.10")}}
	if !onLink(info, net.ParseIP("192.0.2.200")) {
		t.Fatal("want 192.0.2.200 on-link for a /24 sharing 192.0.2.10")
	}
	if onLink(info, net.ParseIP("198.51.100.1")) {
		t.Fatal("want 198.51.100.1 off-link")
	}
}

func TestOnLinkMatchesSameSubnetIPv6(t *testing.T) {
	info := collab.InterfaceInfo{IPs: []net.IP{net.ParseIP("2001:db8::1")}}
	if !onLink(info, net.ParseIP("2001:db8::dead:beef")) {
		t.Fatal("want 2001:db8::dead:beef on-link for a /64 sharing 2001:db8::1")
	}
	if onLink(info, net.ParseIP("2001:db8:1::1")) {
		t.Fatal("want 2001:db8:1::1 off-link")
	}
}

func TestZeroMACIsAllZero(t *testing.T) {
	mac := zeroMAC()
	for _, b := range mac {
		if b != 0 {
			t.Fatalf("want all-zero MAC, got %v", mac)
		}
	}
}

func TestAppendWarningJoinsNonEmpty(t *testing.T) {
	if got := appendWarning("", "a"); got != "a" {
		t.Fatalf("want 'a', got %q", got)
	}
	if got := appendWarning("a", ""); got != "a" {
		t.Fatalf("want 'a', got %q", got)
	}
	if got := appendWarning("a", "b"); got != "a; b" {
		t.Fatalf("want 'a; b', got %q", got)
	}
}

func TestEphemeralSrcPortIsDeterministicForSeedAndInRange(t *testing.T) {
	p1 := ephemeralSrcPort(7)
	p2 := ephemeralSrcPort(7)
	if p1 != p2 {
		t.Fatalf("want same seed to yield same port, got %d and %d", p1, p2)
	}
	if p1 < 49152 || p1 > 65535 {
		t.Fatalf("want port in the ephemeral range, got %d", p1)
	}
}

func TestDrainFramesCollectsUntilClose(t *testing.T) {
	ch := make(chan capture.Frame, 2)
	ch <- capture.Frame{Data: []byte{1}}
	ch <- capture.Frame{Data: []byte{2}}
	close(ch)

	got := drainFrames(ch)
	if len(got) != 2 {
		t.Fatalf("want 2 frames, got %d", len(got))
	}
}

func buildIPv4TCPFrame(t *testing.T, withEthernet bool, ttl uint8) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version: 4, IHL: 5, TTL: ttl, Protocol: layers.IPProtocolTCP,
		SrcIP: net.ParseIP("192.0.2.1").To4(), DstIP: net.ParseIP("192.0.2.10").To4(),
	}
	tcp := &layers.TCP{SrcPort: 80, DstPort: 49200, SYN: true, ACK: true, Window: 65535}
	tcp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	if !withEthernet {
		if err := gopacket.SerializeLayers(buf, opts, ip, tcp); err != nil {
			t.Fatalf("serialize: %v", err)
		}
		return buf.Bytes()
	}

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		EthernetType: layers.EthernetTypeIPv4,
	}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func TestGuessFromFrameExtractsFeatureFromTCPSegment(t *testing.T) {
	r := &Runner{}
	frame := buildIPv4TCPFrame(t, true, 54)

	feat, ok := r.guessFromFrame(frame, true)
	if !ok {
		t.Fatal("want a TCP segment to be found")
	}
	if feat.WindowSize != 65535 {
		t.Fatalf("want window size 65535, got %d", feat.WindowSize)
	}
	if feat.TTLObserved != 54 {
		t.Fatalf("want observed TTL 54, got %d", feat.TTLObserved)
	}
}

func TestGuessFromFrameNoEthernetUsesRawIPFirstLayer(t *testing.T) {
	r := &Runner{}
	frame := buildIPv4TCPFrame(t, false, 64)

	feat, ok := r.guessFromFrame(frame, false)
	if !ok {
		t.Fatal("want a TCP segment to be found without an Ethernet header")
	}
	if feat.TTLObserved != 64 {
		t.Fatalf("want observed TTL 64, got %d", feat.TTLObserved)
	}
}

func TestGuessFromFrameFalseWithoutTCP(t *testing.T) {
	r := &Runner{}
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolICMPv4,
		SrcIP: net.ParseIP("192.0.2.1").To4(), DstIP: net.ParseIP("192.0.2.10").To4()}
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0)}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, icmp); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	if _, ok := r.guessFromFrame(buf.Bytes(), false); ok {
		t.Fatal("want ok=false for a frame without a TCP segment")
	}
}
