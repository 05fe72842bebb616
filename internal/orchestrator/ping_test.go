package orchestrator

import (
	"testing"
	"time"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
)

func TestFilterForProtocolSelectsIPProtocols(t *testing.T) {
	cases := map[model.Protocol][]int{
		model.ProtoTCP:  {6},
		model.ProtoUDP:  {1, 17, 58},
		model.ProtoICMP: {1, 58},
	}
	for proto, want := range cases {
		got := filterForProtocol(proto).IPProtocols
		if len(got) != len(want) {
			t.Fatalf("%v: want %v, got %v", proto, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%v: want %v, got %v", proto, want, got)
			}
		}
	}
}

func TestMatchPingDispatchesByProtocol(t *testing.T) {
	corr := correlate.New()
	frame := capture.Frame{Data: buildIPv4TCPFrame(t, true, 64), HasEthernet: true, Timestamp: time.Now()}

	corr.Register(correlate.Key{DstIP: "192.0.2.1", DstPort: 80, SrcPort: 49200}, time.Now())
	outcome, ok := matchPing(corr, model.ProtoTCP, frame)
	if !ok {
		t.Fatal("want the TCP reply to correlate against its outstanding SYN")
	}
	if outcome.State != model.StateOpen {
		t.Fatalf("want Open for a SYN/ACK reply, got %v", outcome.State)
	}

	if _, ok := matchPing(corr, model.ProtoUDP, frame); ok {
		t.Fatal("want a TCP frame to not correlate as a UDP error reply")
	}
}
