package neighbor

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
)

func buildARPReplyFrame(t *testing.T) ([]byte, error) {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPReply,
		SourceHwAddress:   []byte(eth.SrcMAC),
		SourceProtAddress: net.ParseIP("192.0.2.1").To4(),
		DstHwAddress:      []byte(eth.DstMAC),
		DstProtAddress:    net.ParseIP("192.0.2.10").To4(),
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestClassifyDispatchesByProtocol(t *testing.T) {
	corr := correlate.New()
	corr.Register(correlate.Key{ARPTarget: "192.0.2.1"}, time.Now())

	frame, err := buildARPReplyFrame(t)
	if err != nil {
		t.Fatalf("buildARPReplyFrame: %v", err)
	}

	outcome, ok := classify(corr, model.NeighborARP, capture.Frame{Data: frame, HasEthernet: true, Timestamp: time.Now()})
	if !ok {
		t.Fatal("expected ARP reply to correlate")
	}
	if !outcome.FromIP.Equal(net.ParseIP("192.0.2.1")) {
		t.Fatalf("unexpected FromIP: %v", outcome.FromIP)
	}
}
