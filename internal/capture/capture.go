// Package capture runs the cooperative capture loop that reads link-layer
// frames from a bound interface and hands matching ones to the
// correlator (spec §4.2).
package capture

import (
	"context"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/reconerr"
)

// Frame is one captured link-layer frame handed to the correlator.
type Frame struct {
	Data        []byte
	Timestamp   time.Time
	HasEthernet bool
}

// Loop owns the pcap handle for one bound interface and feeds captured
// frames matching its filter to a channel until Stop is called or
// ctx is cancelled.
type Loop struct {
	handle      *pcap.Handle
	filter      model.CaptureFilter
	frames      chan Frame
	hasEthernet bool
	log         *logrus.Entry

	ready chan struct{}
	stop  chan struct{}
}

// New opens a live capture on ifName applying filter as a BPF program.
// The returned Loop has not started reading yet; call Run.
func New(ifName string, filter model.CaptureFilter, log *logrus.Entry) (*Loop, error) {
	inactive, err := pcap.NewInactiveHandle(ifName)
	if err != nil {
		return nil, reconerr.Bind("capture.open", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(65535); err != nil {
		return nil, reconerr.Bind("capture.snaplen", err)
	}
	if err := inactive.SetPromisc(filter.Promiscuous); err != nil {
		return nil, reconerr.Bind("capture.promisc", err)
	}
	readTimeout := filter.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 100 * time.Millisecond
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return nil, reconerr.Bind("capture.timeout", err)
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, reconerr.Bind("capture.immediate", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, reconerr.Bind("capture.activate", err)
	}

	bpf := BuildBPFExpression(filter)
	if bpf != "" {
		if err := handle.SetBPFFilter(bpf); err != nil {
			handle.Close()
			return nil, reconerr.Bind("capture.bpf", err)
		}
	}

	return &Loop{
		handle:      handle,
		filter:      filter,
		frames:      make(chan Frame, 256),
		hasEthernet: !(filter.Tunnel || filter.Loopback),
		log:         log,
		ready:       make(chan struct{}),
		stop:        make(chan struct{}),
	}, nil
}

// Frames returns the channel the captured frames are delivered on.
// It is closed when Run returns.
func (l *Loop) Frames() <-chan Frame { return l.frames }

// Ready returns a channel closed once the handle is actively reading,
// gating the sibling send task's first transmission (spec §5).
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Stop requests the loop drain once more and terminate.
func (l *Loop) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}

// Close releases the pcap handle. Safe to call after Run returns.
func (l *Loop) Close() { l.handle.Close() }

// Run reads frames until ctx is cancelled, Stop is called, or the
// underlying channel collapses. It always closes Frames() before
// returning. A decode error on one frame is logged and skipped; a
// channel-level read error terminates the loop (spec §4.2).
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.frames)

	src := gopacket.NewPacketSource(l.handle, l.decodeLayer())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	packets := src.Packets()

	closeReady(l.ready)

	stopping := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop:
			if stopping {
				return nil
			}
			stopping = true
			continue
		case pkt, ok := <-packets:
			if !ok {
				if stopping {
					return nil
				}
				return reconerr.Fatal("capture.read", reconerr.ErrChannelCollapsed)
			}
			if pkt == nil {
				continue
			}
			if pkt.ErrorLayer() != nil {
				l.log.WithField("reason", pkt.ErrorLayer().Error()).Debug("capture: decode error, skipping frame")
				continue
			}
			if !MatchesFilter(pkt, l.filter) {
				continue
			}
			data := make([]byte, len(pkt.Data()))
			copy(data, pkt.Data())
			frame := Frame{Data: data, Timestamp: pkt.Metadata().Timestamp, HasEthernet: l.hasEthernet}
			select {
			case l.frames <- frame:
			case <-ctx.Done():
				return nil
			}
			if stopping {
				return nil
			}
		}
	}
}

func (l *Loop) decodeLayer() gopacket.Decoder {
	if l.hasEthernet {
		return layers.LayerTypeEthernet
	}
	return layers.LayerTypeIPv4
}

func closeReady(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// MatchesFilter applies the capture filter predicates in order: ether
// type, IP protocol, source/destination IP, source/destination port
// (spec §4.2).
func MatchesFilter(pkt gopacket.Packet, filter model.CaptureFilter) bool {
	if len(filter.EtherTypes) > 0 {
		eth := pkt.Layer(layers.LayerTypeEthernet)
		if eth == nil {
			return false
		}
		et := uint16(eth.(*layers.Ethernet).EthernetType)
		if !containsU16(filter.EtherTypes, et) {
			return false
		}
	}
	if len(filter.IPProtocols) > 0 {
		proto, ok := ipProtocol(pkt)
		if !ok || !containsInt(filter.IPProtocols, proto) {
			return false
		}
	}
	srcIP, dstIP, ok := ipAddrs(pkt)
	if len(filter.SrcIPs) > 0 {
		if !ok || !containsIP(filter.SrcIPs, srcIP) {
			return false
		}
	}
	if len(filter.DstIPs) > 0 {
		if !ok || !containsIP(filter.DstIPs, dstIP) {
			return false
		}
	}
	if len(filter.SrcPorts) > 0 || len(filter.DstPorts) > 0 {
		srcPort, dstPort, ok := ports(pkt)
		if len(filter.SrcPorts) > 0 && (!ok || !containsInt(filter.SrcPorts, srcPort)) {
			return false
		}
		if len(filter.DstPorts) > 0 && (!ok || !containsInt(filter.DstPorts, dstPort)) {
			return false
		}
	}
	return true
}

func ipProtocol(pkt gopacket.Packet) (int, bool) {
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		return int(ip4.(*layers.IPv4).Protocol), true
	}
	if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		return int(ip6.(*layers.IPv6).NextHeader), true
	}
	if pkt.Layer(layers.LayerTypeARP) != nil {
		return -1, true
	}
	return 0, false
}

func ipAddrs(pkt gopacket.Packet) (src, dst net.IP, ok bool) {
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		h := ip4.(*layers.IPv4)
		return h.SrcIP, h.DstIP, true
	}
	if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		h := ip6.(*layers.IPv6)
		return h.SrcIP, h.DstIP, true
	}
	if arp := pkt.Layer(layers.LayerTypeARP); arp != nil {
		h := arp.(*layers.ARP)
		return net.IP(h.SourceProtAddress), net.IP(h.DstProtAddress), true
	}
	return nil, nil, false
}

func ports(pkt gopacket.Packet) (src, dst int, ok bool) {
	if tcp := pkt.Layer(layers.LayerTypeTCP); tcp != nil {
		h := tcp.(*layers.TCP)
		return int(h.SrcPort), int(h.DstPort), true
	}
	if udp := pkt.Layer(layers.LayerTypeUDP); udp != nil {
		h := udp.(*layers.UDP)
		return int(h.SrcPort), int(h.DstPort), true
	}
	return 0, 0, false
}

func containsU16(set []uint16, v uint16) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

func containsIP(set []net.IP, v net.IP) bool {
	for _, x := range set {
		if x.Equal(v) {
			return true
		}
	}
	return false
}
