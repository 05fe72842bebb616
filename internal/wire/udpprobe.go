package wire

import (
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// BaseTraceUDPPort is the base destination port for UDP traceroute
// probes: each probe adds its sequence number to it the way classic
// traceroute(8) does, so the first probe (seq 1) goes to 33436 and
// replies can be matched by destination port alone (spec §4.1). The UDP
// host scan uses the base port itself.
const BaseTraceUDPPort = 33435

// udpProbePayloadLen is the fixed small payload size carried by a UDP
// trace/host probe (spec §4.1).
const udpProbePayloadLen = 32

// BuildUDPProbe builds a UDP datagram for a traceroute or host-scan probe.
// TTL/hop-limit is taken from ctx.TTL, or 64 when ctx.TTL is outside
// 1-255 (the orchestrator sets it
// to the current sequence number for traceroute, spec §4.1); the payload
// embeds the send timestamp for RTT computation.
func BuildUDPProbe(ctx PacketBuildContext, sentAt time.Time) ([]byte, error) {
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(ctx.SrcPort),
		DstPort: layers.UDPPort(ctx.DstPort),
	}
	payload := gopacket.Payload(PayloadWithTimestamp(sentAt, udpProbePayloadLen))

	ls := make([]gopacket.SerializableLayer, 0, 4)
	if ctx.DstIP.To4() != nil {
		ip4 := &layers.IPv4{
			Version:  4,
			TTL:      ctx.ttlOrDefault(),
			Protocol: layers.IPProtocolUDP,
			SrcIP:    ctx.SrcIP,
			DstIP:    ctx.DstIP,
		}
		udp.SetNetworkLayerForChecksum(ip4)
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv4); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip4, udp, payload)
	} else {
		ip6 := &layers.IPv6{
			Version:    6,
			HopLimit:   ctx.ttlOrDefault(),
			NextHeader: layers.IPProtocolUDP,
			SrcIP:      ctx.SrcIP,
			DstIP:      ctx.DstIP,
		}
		udp.SetNetworkLayerForChecksum(ip6)
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv6); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip6, udp, payload)
	}
	return serialize(ls)
}

// ICMPUnreachable is the correlator-facing summary of an ICMP/ICMPv6
// Destination Unreachable or Time Exceeded message quoting an inner UDP
// probe (spec §4.4).
type ICMPUnreachable struct {
	FromIP      net.IP
	TimeExceeded bool
	InnerDstIP  net.IP
	InnerDstPort int
	InnerSrcPort int
}

// ClassifyICMPUnreachableOrExceeded decodes a captured frame looking for
// an ICMP/ICMPv6 error quoting an inner UDP datagram, and extracts the
// inner tuple used to match it back to the UDP probe that triggered it.
func ClassifyICMPUnreachableOrExceeded(frame []byte, hasEthernet bool) (ICMPUnreachable, bool) {
	firstLayer := rawIPFirstLayer(frame, hasEthernet)
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)

	var fromIP net.IP
	var timeExceeded bool
	var quoted []byte
	var quotedFirstLayer gopacket.LayerType

	if v4 := pkt.Layer(layers.LayerTypeICMPv4); v4 != nil {
		icmp := v4.(*layers.ICMPv4)
		t := icmp.TypeCode.Type()
		if t != layers.ICMPv4TypeDestinationUnreachable && t != layers.ICMPv4TypeTimeExceeded {
			return ICMPUnreachable{}, false
		}
		timeExceeded = t == layers.ICMPv4TypeTimeExceeded
		if ip := pkt.Layer(layers.LayerTypeIPv4); ip != nil {
			fromIP = ip.(*layers.IPv4).SrcIP
		}
		quoted = icmp.Payload
		quotedFirstLayer = layers.LayerTypeIPv4
	} else if v6 := pkt.Layer(layers.LayerTypeICMPv6); v6 != nil {
		icmp := v6.(*layers.ICMPv6)
		t := icmp.TypeCode.Type()
		if t != layers.ICMPv6TypeDestinationUnreachable && t != layers.ICMPv6TypeTimeExceeded {
			return ICMPUnreachable{}, false
		}
		timeExceeded = t == layers.ICMPv6TypeTimeExceeded
		if ip := pkt.Layer(layers.LayerTypeIPv6); ip != nil {
			fromIP = ip.(*layers.IPv6).SrcIP
		}
		// The ICMPv6 layer's payload still holds the 4-byte unused/MTU
		// field; the quoted datagram starts after it.
		quoted = icmp.Payload
		if len(quoted) >= 4 {
			quoted = quoted[4:]
		}
		quotedFirstLayer = layers.LayerTypeIPv6
	} else {
		return ICMPUnreachable{}, false
	}

	// The quoted datagram is carried as the ICMP layer's raw payload, not
	// decoded by gopacket (NextLayerType reports LayerTypePayload for ICMP
	// errors) — re-parse it as its own IP+UDP packet.
	inner := gopacket.NewPacket(quoted, quotedFirstLayer, gopacket.NoCopy)

	var innerDstIP net.IP
	if ip := inner.Layer(layers.LayerTypeIPv4); ip != nil {
		innerDstIP = ip.(*layers.IPv4).DstIP
	} else if ip := inner.Layer(layers.LayerTypeIPv6); ip != nil {
		innerDstIP = ip.(*layers.IPv6).DstIP
	}

	udpLayer := inner.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return ICMPUnreachable{}, false
	}
	udp := udpLayer.(*layers.UDP)

	return ICMPUnreachable{
		FromIP:       fromIP,
		TimeExceeded: timeExceeded,
		InnerDstIP:   innerDstIP,
		InnerDstPort: int(udp.DstPort),
		InnerSrcPort: int(udp.SrcPort),
	}, true
}
