// Package wire contains pure, allocation-light encoders that build
// link-layer frames for the probe kinds in spec §4.1: ARP request, NDP
// neighbor solicitation, TCP SYN (v4/v6), UDP trace probe, and
// ICMP/ICMPv6 echo. Builders are pure functions of a PacketBuildContext
// plus probe-specific arguments; they never touch the network.
package wire

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// PacketBuildContext carries everything a builder needs to serialize one
// frame (spec §4.1).
type PacketBuildContext struct {
	SrcMAC     net.HardwareAddr
	SrcIP      net.IP // may be nil/unspecified; builder picks one (see SelectSrcIP)
	NextHopMAC net.HardwareAddr
	DstIP      net.IP
	TTL        int // IPv4 TTL or IPv6 hop limit; 0 means "use default" (64)
	SrcPort    int
	DstPort    int
	Payload    []byte

	// Raw indicates the interface is a point-to-point tunnel or a
	// loopback that delivers IP packets without an Ethernet header.
	// Builders omit the Ethernet layer in that case (spec §4.1, §9).
	Raw bool
}

const defaultTTL = 64

func (c PacketBuildContext) ttlOrDefault() uint8 {
	if c.TTL <= 0 || c.TTL > 255 {
		return defaultTTL
	}
	return uint8(c.TTL)
}

// SelectSrcIP returns ctx.SrcIP if set, otherwise the first usable IP of
// candidates matching the address family of dst, preferring global scope
// for globally-scoped IPv6 destinations and link-local otherwise (spec §4.1
// edge cases).
func SelectSrcIP(ctx PacketBuildContext, dst net.IP, candidates []net.IP) net.IP {
	if ctx.SrcIP != nil && !ctx.SrcIP.IsUnspecified() {
		return ctx.SrcIP
	}
	wantV4 := dst.To4() != nil
	var linkLocal, global net.IP
	for _, ip := range candidates {
		isV4 := ip.To4() != nil
		if isV4 != wantV4 {
			continue
		}
		if !isV4 && ip.IsLinkLocalUnicast() && linkLocal == nil {
			linkLocal = ip
		}
		if global == nil && (isV4 || !ip.IsLinkLocalUnicast()) {
			global = ip
		}
	}
	if !wantV4 && dst.IsLinkLocalUnicast() && linkLocal != nil {
		return linkLocal
	}
	if global != nil {
		return global
	}
	return linkLocal
}

// serializeOpts is shared by every builder: checksums are always computed,
// never delegated to offload (spec §4.1).
var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// ethernetLayer returns the Ethernet header for the frame, or nil when the
// context targets a tunnel/loopback interface that has no link layer.
func ethernetLayer(ctx PacketBuildContext, dstMAC net.HardwareAddr, ethType layers.EthernetType) *layers.Ethernet {
	if ctx.Raw {
		return nil
	}
	return &layers.Ethernet{
		SrcMAC:       ctx.SrcMAC,
		DstMAC:       dstMAC,
		EthernetType: ethType,
	}
}

// rawIPFirstLayer picks the gopacket decode start point for a captured
// frame: Ethernet when the interface has a link layer, otherwise IPv4 or
// IPv6 by inspecting the version nibble of the first byte (tunnel and
// loopback interfaces deliver bare IP packets, spec §4.1/§9).
func rawIPFirstLayer(frame []byte, hasEthernet bool) gopacket.LayerType {
	if hasEthernet {
		return layers.LayerTypeEthernet
	}
	if len(frame) > 0 && frame[0]>>4 == 6 {
		return layers.LayerTypeIPv6
	}
	return layers.LayerTypeIPv4
}

// serialize assembles layers in order and returns the wire bytes. Callers
// build the slice themselves (appending the Ethernet layer only when
// present) since a typed-nil *layers.Ethernet stored in the interface
// slice would not compare equal to nil.
func serialize(layerList []gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, layerList...); err != nil {
		return nil, err
	}
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}
