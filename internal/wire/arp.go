package wire

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// BroadcastMAC is the Ethernet broadcast address used as the destination
// of an ARP request (spec §4.1).
var BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BuildARPRequest builds a broadcast ARP request asking who has targetIP.
// Ethernet destination is broadcast, opcode is Request, sender hardware
// and protocol addresses are the probing interface's, target hardware
// address is zero (spec §4.1).
func BuildARPRequest(ctx PacketBuildContext, senderIP, targetIP net.IP) ([]byte, error) {
	senderIP4 := senderIP.To4()
	targetIP4 := targetIP.To4()

	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(ctx.SrcMAC),
		SourceProtAddress: []byte(senderIP4),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(targetIP4),
	}

	ls := make([]gopacket.SerializableLayer, 0, 2)
	if eth := ethernetLayer(ctx, BroadcastMAC, layers.EthernetTypeARP); eth != nil {
		ls = append(ls, eth)
	}
	ls = append(ls, arp)
	return serialize(ls)
}

// ParseARPReply decodes an ARP reply frame (optionally without an Ethernet
// header, for the round-trip tests in spec §8) and returns the responder's
// hardware and protocol addresses.
func ParseARPReply(frame []byte, hasEthernet bool) (senderMAC net.HardwareAddr, senderIP net.IP, ok bool) {
	var firstLayer gopacket.LayerType = layers.LayerTypeARP
	if hasEthernet {
		firstLayer = layers.LayerTypeEthernet
	}
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)
	arpLayer := pkt.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return nil, nil, false
	}
	arp := arpLayer.(*layers.ARP)
	if arp.Operation != layers.ARPReply {
		return nil, nil, false
	}
	return net.HardwareAddr(arp.SourceHwAddress), net.IP(arp.SourceProtAddress), true
}
