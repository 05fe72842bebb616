package wire

import (
	"encoding/binary"
	"time"
)

// timestampPayloadLen is the number of bytes used to embed a send
// timestamp in a probe payload (spec §4.1: "payload includes timestamp
// for RTT" for ICMP echo and UDP trace probes).
const timestampPayloadLen = 8

// PayloadWithTimestamp returns a payload of at least size bytes whose
// first 8 bytes encode sentAt as a monotonic-agnostic UnixNano value.
// The correlator reads this back to compute RTT without depending on
// capture-loop delivery order (spec §4.4).
func PayloadWithTimestamp(sentAt time.Time, size int) []byte {
	if size < timestampPayloadLen {
		size = timestampPayloadLen
	}
	p := make([]byte, size)
	binary.BigEndian.PutUint64(p, uint64(sentAt.UnixNano()))
	for i := timestampPayloadLen; i < size; i++ {
		p[i] = byte(i)
	}
	return p
}

// ExtractTimestamp recovers the send time embedded by PayloadWithTimestamp.
// ok is false if payload is too short to carry one.
func ExtractTimestamp(payload []byte) (sentAt time.Time, ok bool) {
	if len(payload) < timestampPayloadLen {
		return time.Time{}, false
	}
	nanos := binary.BigEndian.Uint64(payload[:timestampPayloadLen])
	return time.Unix(0, int64(nanos)), true
}
