package wire

import (
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// icmpEchoPayloadLen is the fixed payload size of an echo probe, large
// enough to carry the embedded send timestamp (spec §4.1).
const icmpEchoPayloadLen = 32

// BuildICMPEcho builds an ICMP (v4) or ICMPv6 echo request. identifier is
// chosen once per run; seq increases monotonically from 1 (spec §4.1).
func BuildICMPEcho(ctx PacketBuildContext, identifier, seq int, sentAt time.Time) ([]byte, error) {
	payload := gopacket.Payload(PayloadWithTimestamp(sentAt, icmpEchoPayloadLen))
	ls := make([]gopacket.SerializableLayer, 0, 4)

	if ctx.DstIP.To4() != nil {
		icmp := &layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
			Id:       uint16(identifier),
			Seq:      uint16(seq),
		}
		ip4 := &layers.IPv4{
			Version:  4,
			TTL:      ctx.ttlOrDefault(),
			Protocol: layers.IPProtocolICMPv4,
			SrcIP:    ctx.SrcIP,
			DstIP:    ctx.DstIP,
		}
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv4); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip4, icmp, payload)
	} else {
		icmp := &layers.ICMPv6{
			TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0),
		}
		ip6 := &layers.IPv6{
			Version:    6,
			HopLimit:   ctx.ttlOrDefault(),
			NextHeader: layers.IPProtocolICMPv6,
			SrcIP:      ctx.SrcIP,
			DstIP:      ctx.DstIP,
		}
		icmp.SetNetworkLayerForChecksum(ip6)
		echo := &layers.ICMPv6Echo{
			Identifier: uint16(identifier),
			SeqNumber:  uint16(seq),
		}
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv6); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip6, icmp, echo, payload)
	}
	return serialize(ls)
}

// ICMPEchoReply is the correlator-facing summary of a captured echo reply
// or a Time Exceeded/Destination Unreachable error (spec §4.4).
type ICMPEchoReply struct {
	FromIP       net.IP
	Identifier   int
	Seq          int
	TimeExceeded bool
	Unreachable  bool
	SentAt       time.Time
	HasTimestamp bool
}

// ClassifyICMPEcho decodes a captured frame looking for an echo reply
// (or a routing error) matching an outstanding ICMP echo probe.
func ClassifyICMPEcho(frame []byte, hasEthernet bool) (ICMPEchoReply, bool) {
	firstLayer := rawIPFirstLayer(frame, hasEthernet)
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)

	if v4 := pkt.Layer(layers.LayerTypeICMPv4); v4 != nil {
		icmp := v4.(*layers.ICMPv4)
		var fromIP net.IP
		if ip := pkt.Layer(layers.LayerTypeIPv4); ip != nil {
			fromIP = ip.(*layers.IPv4).SrcIP
		}
		switch icmp.TypeCode.Type() {
		case layers.ICMPv4TypeEchoReply:
			sentAt, ok := ExtractTimestamp(icmp.Payload)
			return ICMPEchoReply{
				FromIP: fromIP, Identifier: int(icmp.Id), Seq: int(icmp.Seq),
				SentAt: sentAt, HasTimestamp: ok,
			}, true
		case layers.ICMPv4TypeTimeExceeded:
			return ICMPEchoReply{FromIP: fromIP, TimeExceeded: true}, true
		case layers.ICMPv4TypeDestinationUnreachable:
			return ICMPEchoReply{FromIP: fromIP, Unreachable: true}, true
		}
		return ICMPEchoReply{}, false
	}

	if v6 := pkt.Layer(layers.LayerTypeICMPv6); v6 != nil {
		icmp := v6.(*layers.ICMPv6)
		var fromIP net.IP
		if ip := pkt.Layer(layers.LayerTypeIPv6); ip != nil {
			fromIP = ip.(*layers.IPv6).SrcIP
		}
		switch icmp.TypeCode.Type() {
		case layers.ICMPv6TypeEchoReply:
			var id, seq int
			echoPayload := icmp.Payload
			if echo := pkt.Layer(layers.LayerTypeICMPv6Echo); echo != nil {
				e := echo.(*layers.ICMPv6Echo)
				id, seq = int(e.Identifier), int(e.SeqNumber)
				echoPayload = e.Payload
			}
			sentAt, ok := ExtractTimestamp(echoPayload)
			return ICMPEchoReply{
				FromIP: fromIP, Identifier: id, Seq: seq,
				SentAt: sentAt, HasTimestamp: ok,
			}, true
		case layers.ICMPv6TypeTimeExceeded:
			return ICMPEchoReply{FromIP: fromIP, TimeExceeded: true}, true
		case layers.ICMPv6TypeDestinationUnreachable:
			return ICMPEchoReply{FromIP: fromIP, Unreachable: true}, true
		}
		return ICMPEchoReply{}, false
	}

	return ICMPEchoReply{}, false
}
