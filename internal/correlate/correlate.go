// Package correlate matches captured frames to the outstanding probes
// that triggered them and computes RTTs (spec §4.4).
package correlate

import (
	"net"
	"time"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/wire"
)

// Key identifies an outstanding probe so a later response can be matched
// back to it. Fields not used by a given probe kind are left zero.
type Key struct {
	SrcIP       string
	SrcPort     int
	DstIP       string
	DstPort     int
	Seq         int
	Identifier  int
	ARPTarget   string
	NDPTarget   string
}

// Outcome is the classification the correlator assigns to a captured
// frame once matched to its Key.
type Outcome struct {
	Key          Key
	State        model.PortState
	RTT          time.Duration
	FromIP       net.IP
	FromMAC      net.HardwareAddr
	TimeExceeded bool
	Unreachable  bool
}

// Correlator tracks outstanding probes by Key and classifies responses
// as they arrive from the capture loop.
type Correlator struct {
	outstanding map[Key]time.Time // key -> send time
}

// New returns an empty Correlator.
func New() *Correlator {
	return &Correlator{outstanding: make(map[Key]time.Time)}
}

// Register records that a probe matching key was sent at sentAt, so a
// later matching response can have its RTT computed.
func (c *Correlator) Register(key Key, sentAt time.Time) {
	c.outstanding[key] = sentAt
}

// rtt computes a zero-floor-saturated RTT: a response observed before
// (clock skew) or simultaneous with its send is reported as zero rather
// than negative (spec §4.4).
func rtt(sentAt, recvAt time.Time) time.Duration {
	d := recvAt.Sub(sentAt)
	if d < 0 {
		return 0
	}
	return d
}

// CorrelateTCP classifies a captured frame as a TCP SYN/ACK or RST
// response to an outstanding SYN probe.
func (c *Correlator) CorrelateTCP(frame capture.Frame) (Outcome, bool) {
	cls, ok := wire.ClassifyTCP(frame.Data, frame.HasEthernet)
	if !ok {
		return Outcome{}, false
	}
	lookupKey := Key{DstIP: cls.SrcIP.String(), DstPort: cls.SrcPort, SrcPort: cls.DstPort}
	sentAt, found := c.take(lookupKey)
	if !found {
		return Outcome{}, false
	}

	state := model.StateFiltered
	switch {
	case cls.SYNACK:
		state = model.StateOpen
	case cls.RST:
		state = model.StateClosed
	}
	return Outcome{
		Key:    lookupKey,
		State:  state,
		RTT:    rtt(sentAt, frame.Timestamp),
		FromIP: cls.SrcIP,
	}, true
}

// CorrelateICMPEcho classifies a captured frame as an ICMP/ICMPv6 echo
// reply to an outstanding echo probe. Time Exceeded and Destination
// Unreachable frames are decoded without the quoted echo's identifier
// and sequence (both zero), so they match only a probe registered under
// a zero identifier and sequence.
func (c *Correlator) CorrelateICMPEcho(frame capture.Frame) (Outcome, bool) {
	reply, ok := wire.ClassifyICMPEcho(frame.Data, frame.HasEthernet)
	if !ok {
		return Outcome{}, false
	}
	lookupKey := Key{Identifier: reply.Identifier, Seq: reply.Seq}
	sentAt, found := c.take(lookupKey)
	if !found && reply.HasTimestamp {
		sentAt = reply.SentAt
		found = true
	}
	if !found {
		return Outcome{}, false
	}
	return Outcome{
		Key:          lookupKey,
		RTT:          rtt(sentAt, frame.Timestamp),
		FromIP:       reply.FromIP,
		TimeExceeded: reply.TimeExceeded,
		Unreachable:  reply.Unreachable,
	}, true
}

// CorrelateUDPError classifies a captured ICMP error quoting an inner
// UDP trace/host probe.
func (c *Correlator) CorrelateUDPError(frame capture.Frame) (Outcome, bool) {
	unreach, ok := wire.ClassifyICMPUnreachableOrExceeded(frame.Data, frame.HasEthernet)
	if !ok {
		return Outcome{}, false
	}
	lookupKey := Key{DstIP: unreach.InnerDstIP.String(), DstPort: unreach.InnerDstPort, SrcPort: unreach.InnerSrcPort}
	sentAt, found := c.take(lookupKey)
	if !found {
		return Outcome{}, false
	}
	return Outcome{
		Key:          lookupKey,
		RTT:          rtt(sentAt, frame.Timestamp),
		FromIP:       unreach.FromIP,
		TimeExceeded: unreach.TimeExceeded,
		Unreachable:  !unreach.TimeExceeded,
	}, true
}

// CorrelateARP classifies a captured ARP reply against an outstanding
// neighbor-resolution request.
func (c *Correlator) CorrelateARP(frame capture.Frame) (Outcome, bool) {
	mac, ip, ok := wire.ParseARPReply(frame.Data, frame.HasEthernet)
	if !ok {
		return Outcome{}, false
	}
	lookupKey := Key{ARPTarget: ip.String()}
	sentAt, found := c.take(lookupKey)
	if !found {
		return Outcome{}, false
	}
	return Outcome{
		Key:     lookupKey,
		RTT:     rtt(sentAt, frame.Timestamp),
		FromIP:  ip,
		FromMAC: mac,
	}, true
}

// CorrelateNDP classifies a captured Neighbor Advertisement against an
// outstanding neighbor-resolution request.
func (c *Correlator) CorrelateNDP(frame capture.Frame) (Outcome, bool) {
	mac, target, ok := wire.ParseNDPAdvertisement(frame.Data, frame.HasEthernet)
	if !ok {
		return Outcome{}, false
	}
	lookupKey := Key{NDPTarget: target.String()}
	sentAt, found := c.take(lookupKey)
	if !found {
		return Outcome{}, false
	}
	return Outcome{
		Key:     lookupKey,
		RTT:     rtt(sentAt, frame.Timestamp),
		FromIP:  target,
		FromMAC: mac,
	}, true
}

func (c *Correlator) take(key Key) (time.Time, bool) {
	sentAt, ok := c.outstanding[key]
	if ok {
		delete(c.outstanding, key)
	}
	return sentAt, ok
}
