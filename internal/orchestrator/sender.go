package orchestrator

import (
	"github.com/google/gopacket/pcap"

	"github.com/poros-project/netreco/internal/reconerr"
)

// RawSender owns the write-side pcap handle for one bound interface,
// exclusive to the send task (spec §5: "the raw sender is owned
// exclusively by the Send task").
type RawSender struct {
	handle *pcap.Handle
}

// NewRawSender opens a dedicated write handle on ifName.
func NewRawSender(ifName string) (*RawSender, error) {
	handle, err := pcap.OpenLive(ifName, 65535, false, pcap.BlockForever)
	if err != nil {
		return nil, reconerr.Bind("sender.open", err)
	}
	return &RawSender{handle: handle}, nil
}

// Send implements sendloop.Sender and neighbor.Sender.
func (s *RawSender) Send(frame []byte) error {
	return s.handle.WritePacketData(frame)
}

// Close releases the write handle.
func (s *RawSender) Close() { s.handle.Close() }
