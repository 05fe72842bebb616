package orchestrator

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/poros-project/netreco/internal/fingerprint"
)

// guessFromFrame decodes a captured TCP SYN/ACK (or RST) frame into an OS
// fingerprint feature set (spec §4.7 step 1); the caller runs the
// rulebase cascade on it. ok is false when the frame carries no TCP
// segment.
func (r *Runner) guessFromFrame(frame []byte, hasEthernet bool) (fingerprint.Feature, bool) {
	first := layers.LayerTypeEthernet
	if !hasEthernet {
		first = rawIPFirstLayerType(frame)
	}
	pkt := gopacket.NewPacket(frame, first, gopacket.NoCopy)

	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return fingerprint.Feature{}, false
	}
	tcp := tcpLayer.(*layers.TCP)

	var df bool
	var ttl int
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		h := ip4.(*layers.IPv4)
		df = h.Flags&layers.IPv4DontFragment != 0
		ttl = int(h.TTL)
	} else if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		h := ip6.(*layers.IPv6)
		ttl = int(h.HopLimit)
	}

	return fingerprint.ExtractFeature(tcp, df, ttl), true
}

func rawIPFirstLayerType(frame []byte) gopacket.LayerType {
	if len(frame) > 0 && frame[0]>>4 == 6 {
		return layers.LayerTypeIPv6
	}
	return layers.LayerTypeIPv4
}
