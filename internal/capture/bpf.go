package capture

import (
	"fmt"
	"net"
	"strings"

	"github.com/poros-project/netreco/internal/model"
)

// BuildBPFExpression renders a model.CaptureFilter as a BPF program
// accepted by pcap.Handle.SetBPFFilter. Only the ether type (ip/ip6/arp)
// and source/destination host predicates are rendered; port and
// IP-protocol predicates, and ether types beyond ip/ip6/arp, are left to
// MatchesFilter at the application layer; BuildBPFExpression
// only narrows what reaches the capture loop at all (spec §4.2).
func BuildBPFExpression(filter model.CaptureFilter) string {
	var clauses []string

	proto := protoClause(filter)
	if proto != "" {
		clauses = append(clauses, proto)
	}

	if host := hostClause("src host", filter.SrcIPs); host != "" {
		clauses = append(clauses, host)
	}
	if host := hostClause("dst host", filter.DstIPs); host != "" {
		clauses = append(clauses, host)
	}

	return strings.Join(clauses, " and ")
}

func protoClause(filter model.CaptureFilter) string {
	var alts []string
	for _, et := range filter.EtherTypes {
		switch et {
		case 0x0806:
			alts = append(alts, "arp")
		case 0x0800:
			alts = append(alts, "ip")
		case 0x86DD:
			alts = append(alts, "ip6")
		}
	}
	if len(alts) == 0 {
		return ""
	}
	return "(" + strings.Join(alts, " or ") + ")"
}

func hostClause(keyword string, ips []net.IP) string {
	if len(ips) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ips))
	for _, ip := range ips {
		parts = append(parts, fmt.Sprintf("%s %s", keyword, ip.String()))
	}
	return "(" + strings.Join(parts, " or ") + ")"
}
