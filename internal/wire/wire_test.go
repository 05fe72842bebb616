package wire

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func testCtx() PacketBuildContext {
	return PacketBuildContext{
		SrcMAC:     net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SrcIP:      net.ParseIP("192.0.2.10"),
		NextHopMAC: net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		DstIP:      net.ParseIP("192.0.2.20"),
		SrcPort:    54321,
		DstPort:    80,
	}
}

func TestBuildARPRequestRoundTrip(t *testing.T) {
	ctx := testCtx()
	sender := net.ParseIP("192.0.2.10")
	target := net.ParseIP("192.0.2.20")

	frame, err := BuildARPRequest(ctx, sender, target)
	if err != nil {
		t.Fatalf("BuildARPRequest: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame")
	}

	mac, ip, ok := ParseARPReply(frame, true)
	if ok {
		t.Fatalf("expected a request to not parse as a reply, got mac=%v ip=%v", mac, ip)
	}

	arpLayer := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default).Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		t.Fatal("frame does not decode as ARP")
	}
	if got := net.IP(arpLayer.(*layers.ARP).DstProtAddress); !got.Equal(target) {
		t.Fatalf("want target-proto-addr %v, got %v", target, got)
	}
}

func TestSelectSrcIPPrefersGlobalForGlobalIPv6Dest(t *testing.T) {
	dst := net.ParseIP("2001:db8::1")
	ll := net.ParseIP("fe80::1")
	global := net.ParseIP("2001:db8::aaaa")

	got := SelectSrcIP(PacketBuildContext{}, dst, []net.IP{ll, global})
	if !got.Equal(global) {
		t.Fatalf("want global %v, got %v", global, got)
	}
}

func TestSelectSrcIPPrefersLinkLocalForLinkLocalDest(t *testing.T) {
	dst := net.ParseIP("fe80::2")
	ll := net.ParseIP("fe80::1")
	global := net.ParseIP("2001:db8::aaaa")

	got := SelectSrcIP(PacketBuildContext{}, dst, []net.IP{global, ll})
	if !got.Equal(ll) {
		t.Fatalf("want link-local %v, got %v", ll, got)
	}
}

func TestSelectSrcIPHonorsExplicitSrcIP(t *testing.T) {
	explicit := net.ParseIP("192.0.2.99")
	ctx := PacketBuildContext{SrcIP: explicit}
	got := SelectSrcIP(ctx, net.ParseIP("192.0.2.1"), []net.IP{net.ParseIP("192.0.2.1")})
	if !got.Equal(explicit) {
		t.Fatalf("want explicit %v, got %v", explicit, got)
	}
}

func TestBuildTCPSYNv4(t *testing.T) {
	ctx := testCtx()
	frame, err := BuildTCPSYN(ctx)
	if err != nil {
		t.Fatalf("BuildTCPSYN: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame")
	}
}

func TestBuildTCPSYNv6(t *testing.T) {
	ctx := testCtx()
	ctx.SrcIP = net.ParseIP("2001:db8::10")
	ctx.DstIP = net.ParseIP("2001:db8::20")
	frame, err := BuildTCPSYN(ctx)
	if err != nil {
		t.Fatalf("BuildTCPSYN v6: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame")
	}
}

func TestPayloadTimestampRoundTrip(t *testing.T) {
	sentAt := time.Now()
	p := PayloadWithTimestamp(sentAt, 32)
	if len(p) != 32 {
		t.Fatalf("want len 32, got %d", len(p))
	}
	got, ok := ExtractTimestamp(p)
	if !ok {
		t.Fatal("ExtractTimestamp: !ok")
	}
	if got.UnixNano() != sentAt.UnixNano() {
		t.Fatalf("want %v, got %v", sentAt, got)
	}
}

func TestExtractTimestampTooShort(t *testing.T) {
	if _, ok := ExtractTimestamp([]byte{1, 2, 3}); ok {
		t.Fatal("expected ok=false for short payload")
	}
}

func TestSolicitedNodeMulticastAddressing(t *testing.T) {
	target := net.ParseIP("2001:db8::1:2:aabb:ccdd")
	mac := SolicitedNodeMulticastMAC(target)
	if mac[0] != 0x33 || mac[1] != 0x33 || mac[2] != 0xff {
		t.Fatalf("unexpected multicast MAC prefix: %v", mac)
	}
	ip := SolicitedNodeMulticastMAC(target)
	if ip[3] != target.To16()[13] || ip[4] != target.To16()[14] || ip[5] != target.To16()[15] {
		t.Fatalf("multicast MAC does not match target low 24 bits: %v vs %v", ip, target)
	}
}

func TestBuildICMPEchoV4(t *testing.T) {
	ctx := testCtx()
	frame, err := BuildICMPEcho(ctx, 0x1234, 1, time.Now())
	if err != nil {
		t.Fatalf("BuildICMPEcho: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame")
	}
}

func TestClassifyICMPUnreachableOrExceededV4(t *testing.T) {
	quotedIP := &layers.IPv4{
		Version:  4,
		TTL:      1,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP("192.0.2.10"),
		DstIP:    net.ParseIP("198.51.100.1"),
	}
	quotedUDP := &layers.UDP{SrcPort: 54321, DstPort: layers.UDPPort(BaseTraceUDPPort + 3)}
	quotedUDP.SetNetworkLayerForChecksum(quotedIP)
	quotedBuf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(quotedBuf, serializeOpts, quotedIP, quotedUDP, gopacket.Payload([]byte("probe"))); err != nil {
		t.Fatalf("serialize quoted datagram: %v", err)
	}
	quoted := append([]byte(nil), quotedBuf.Bytes()...)

	outerIP := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.ParseIP("203.0.113.1"),
		DstIP:    net.ParseIP("192.0.2.10"),
	}
	outerICMP := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeTimeExceeded, 0),
	}
	outerBuf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(outerBuf, serializeOpts, outerIP, outerICMP, gopacket.Payload(quoted)); err != nil {
		t.Fatalf("serialize outer ICMP packet: %v", err)
	}
	frame := append([]byte(nil), outerBuf.Bytes()...)

	got, ok := ClassifyICMPUnreachableOrExceeded(frame, false)
	if !ok {
		t.Fatal("expected ok=true for a Time Exceeded frame quoting a UDP probe")
	}
	if !got.TimeExceeded {
		t.Fatal("expected TimeExceeded=true")
	}
	if !got.FromIP.Equal(net.ParseIP("203.0.113.1")) {
		t.Fatalf("unexpected FromIP: %v", got.FromIP)
	}
	if !got.InnerDstIP.Equal(net.ParseIP("198.51.100.1")) {
		t.Fatalf("unexpected InnerDstIP: %v (outer dst would be 192.0.2.10)", got.InnerDstIP)
	}
	if got.InnerDstPort != BaseTraceUDPPort+3 {
		t.Fatalf("unexpected InnerDstPort: %d", got.InnerDstPort)
	}
	if got.InnerSrcPort != 54321 {
		t.Fatalf("unexpected InnerSrcPort: %d", got.InnerSrcPort)
	}
}

func TestClassifyICMPUnreachableOrExceededRejectsOtherTypes(t *testing.T) {
	outerIP := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.ParseIP("203.0.113.1"),
		DstIP:    net.ParseIP("192.0.2.10"),
	}
	outerICMP := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, outerIP, outerICMP); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	frame := append([]byte(nil), buf.Bytes()...)

	if _, ok := ClassifyICMPUnreachableOrExceeded(frame, false); ok {
		t.Fatal("expected ok=false for an echo reply")
	}
}

func TestBuildUDPProbeSetsTTLFromContext(t *testing.T) {
	ctx := testCtx()
	ctx.TTL = 5
	frame, err := BuildUDPProbe(ctx, time.Now())
	if err != nil {
		t.Fatalf("BuildUDPProbe: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame")
	}
}
