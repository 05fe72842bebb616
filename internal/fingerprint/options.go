package fingerprint

import (
	"strings"

	"github.com/google/gopacket/layers"
)

// OptionPattern renders a TCP option list as the stable string the
// rulebase indexes on, e.g. "mss-nop-ws-nop-nop-ts-sack" (spec §4.7).
func OptionPattern(opts []layers.TCPOption) string {
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		if name, ok := optionName(o.OptionType); ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, "-")
}

func optionName(t layers.TCPOptionKind) (string, bool) {
	switch t {
	case layers.TCPOptionKindMSS:
		return "mss", true
	case layers.TCPOptionKindNop:
		return "nop", true
	case layers.TCPOptionKindWindowScale:
		return "ws", true
	case layers.TCPOptionKindTimestamps:
		return "ts", true
	case layers.TCPOptionKindSACKPermitted:
		return "sack", true
	default:
		return "", false
	}
}

// ExtractFeature reads the TCP window/options/ECN plus the IP DF bit and
// observed TTL/hop-limit from a decoded reply (spec §4.7 step 1).
func ExtractFeature(tcp *layers.TCP, df bool, ttl int) Feature {
	return Feature{
		WindowSize:    int(tcp.Window),
		OptionPattern: OptionPattern(tcp.Options),
		DF:            df,
		ECNEcho:       tcp.ECE,
		TTLObserved:   ttl,
	}
}
