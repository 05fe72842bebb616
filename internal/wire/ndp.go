package wire

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// SolicitedNodeMulticastIP returns the IPv6 solicited-node multicast
// address ff02::1:ffXX:XXXX for target, derived from its low 24 bits
// (RFC 4861 §4.3, spec §4.1).
func SolicitedNodeMulticastIP(target net.IP) net.IP {
	t := target.To16()
	ip := net.ParseIP("ff02::1:ff00:0000")
	copy(ip[13:], t[13:])
	return ip
}

// SolicitedNodeMulticastMAC returns the Ethernet multicast address
// 33:33:ff:XX:YY:ZZ matching SolicitedNodeMulticastIP's low 24 bits
// (spec §4.1).
func SolicitedNodeMulticastMAC(target net.IP) net.HardwareAddr {
	t := target.To16()
	return net.HardwareAddr{0x33, 0x33, 0xff, t[13], t[14], t[15]}
}

// BuildNDPSolicitation builds an ICMPv6 Neighbor Solicitation for
// targetIP, sent to the solicited-node multicast group with a
// source-link-layer-address option and hop limit 255 (RFC 4861, spec §4.1).
func BuildNDPSolicitation(ctx PacketBuildContext, srcIP, targetIP net.IP) ([]byte, error) {
	dstIP := SolicitedNodeMulticastIP(targetIP)
	dstMAC := SolicitedNodeMulticastMAC(targetIP)

	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolICMPv6,
		HopLimit:   255,
		SrcIP:      srcIP,
		DstIP:      dstIP,
	}
	icmp6 := &layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborSolicitation, 0),
	}
	icmp6.SetNetworkLayerForChecksum(ip6)

	ns := &layers.ICMPv6NeighborSolicitation{
		TargetAddress: targetIP.To16(),
		Options: layers.ICMPv6Options{
			{
				Type: layers.ICMPv6OptSourceAddress,
				Data: []byte(ctx.SrcMAC),
			},
		},
	}

	ls := make([]gopacket.SerializableLayer, 0, 4)
	if eth := ethernetLayer(ctx, dstMAC, layers.EthernetTypeIPv6); eth != nil {
		ls = append(ls, eth)
	}
	ls = append(ls, ip6, icmp6, ns)
	return serialize(ls)
}

// ParseNDPAdvertisement decodes a Neighbor Advertisement and returns the
// advertised link-layer address, if present, plus the advertised target.
func ParseNDPAdvertisement(frame []byte, hasEthernet bool) (mac net.HardwareAddr, target net.IP, ok bool) {
	var firstLayer gopacket.LayerType = layers.LayerTypeIPv6
	if hasEthernet {
		firstLayer = layers.LayerTypeEthernet
	}
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)
	icmpLayer := pkt.Layer(layers.LayerTypeICMPv6NeighborAdvertisement)
	if icmpLayer == nil {
		return nil, nil, false
	}
	na := icmpLayer.(*layers.ICMPv6NeighborAdvertisement)
	target = net.IP(na.TargetAddress[:])
	for _, opt := range na.Options {
		if opt.Type == layers.ICMPv6OptTargetAddress {
			return net.HardwareAddr(opt.Data), target, true
		}
	}
	return nil, target, true
}
