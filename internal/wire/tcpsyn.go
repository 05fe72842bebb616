package wire

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// defaultWindow is the fixed TCP window size advertised on every SYN
// (spec §4.1: "fixed default window").
const defaultWindow = 65535

// BuildTCPSYN builds a TCP SYN segment toward ctx.DstIP:ctx.DstPort. The
// only TCP option set is MSS; TTL/hop-limit default to 64 when
// ctx.TTL is unset. Works for both IPv4 and IPv6 destinations.
func BuildTCPSYN(ctx PacketBuildContext) ([]byte, error) {
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(ctx.SrcPort),
		DstPort: layers.TCPPort(ctx.DstPort),
		SYN:     true,
		Window:  defaultWindow,
		Options: []layers.TCPOption{
			{
				OptionType:   layers.TCPOptionKindMSS,
				OptionLength: 4,
				OptionData:   []byte{0x05, 0xb4}, // 1460
			},
		},
	}

	ls := make([]gopacket.SerializableLayer, 0, 3)
	if ctx.DstIP.To4() != nil {
		ip4 := &layers.IPv4{
			Version:  4,
			TTL:      ctx.ttlOrDefault(),
			Protocol: layers.IPProtocolTCP,
			SrcIP:    ctx.SrcIP,
			DstIP:    ctx.DstIP,
		}
		tcp.SetNetworkLayerForChecksum(ip4)
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv4); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip4, tcp)
	} else {
		ip6 := &layers.IPv6{
			Version:    6,
			HopLimit:   ctx.ttlOrDefault(),
			NextHeader: layers.IPProtocolTCP,
			SrcIP:      ctx.SrcIP,
			DstIP:      ctx.DstIP,
		}
		tcp.SetNetworkLayerForChecksum(ip6)
		if eth := ethernetLayer(ctx, ctx.NextHopMAC, layers.EthernetTypeIPv6); eth != nil {
			ls = append(ls, eth)
		}
		ls = append(ls, ip6, tcp)
	}
	return serialize(ls)
}

// TCPClassification is the correlator-facing summary of a captured TCP
// segment answering a SYN probe (spec §4.4).
type TCPClassification struct {
	SYNACK bool
	RST    bool
	SrcIP  net.IP
	SrcPort int
	DstPort int
}

// ClassifyTCP decodes a captured frame and extracts the flags/ports the
// correlator needs to match it to an outstanding SYN probe.
func ClassifyTCP(frame []byte, hasEthernet bool) (TCPClassification, bool) {
	firstLayer := rawIPFirstLayer(frame, hasEthernet)
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)
	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return TCPClassification{}, false
	}
	tcp := tcpLayer.(*layers.TCP)

	var srcIP net.IP
	if v4 := pkt.Layer(layers.LayerTypeIPv4); v4 != nil {
		srcIP = v4.(*layers.IPv4).SrcIP
	} else if v6 := pkt.Layer(layers.LayerTypeIPv6); v6 != nil {
		srcIP = v6.(*layers.IPv6).SrcIP
	}

	return TCPClassification{
		SYNACK:  tcp.SYN && tcp.ACK,
		RST:     tcp.RST,
		SrcIP:   srcIP,
		SrcPort: int(tcp.SrcPort),
		DstPort: int(tcp.DstPort),
	}, true
}
