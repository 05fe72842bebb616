package output

import (
	"bytes"
	"fmt"

	"github.com/fatih/color"

	"github.com/poros-project/netreco/internal/model"
)

// textFormatter renders the classic traceroute/nmap-style tree output,
// adapted from the teacher's TextFormatter.
type textFormatter struct {
	cfg    Config
	colors *ColorScheme
}

func newColors(cfg Config) *ColorScheme {
	if !cfg.Colors {
		return nil
	}
	return DefaultColorScheme()
}

func (f textFormatter) ContentType() string { return "text/plain" }

func (f textFormatter) FormatScan(r *model.ScanResult) ([]byte, error) {
	colors := newColors(f.cfg)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Scan completed at %s\n", r.ScanTime.Format("2006-01-02 15:04:05"))
	for _, ep := range r.Endpoints {
		name := ep.IP.String()
		if ep.Hostname != "" && !f.cfg.NoHostname {
			name = fmt.Sprintf("%s (%s)", ep.Hostname, ep.IP)
		}
		fmt.Fprintf(&buf, "\n%s\n", name)
		if ep.MACAddr != nil {
			fmt.Fprintf(&buf, "  mac: %s", ep.MACAddr)
			if ep.Vendor != "" {
				fmt.Fprintf(&buf, " (%s)", ep.Vendor)
			}
			buf.WriteString("\n")
		}
		if ep.OSGuess != nil {
			fmt.Fprintf(&buf, "  os: %s (confidence %.1f)\n", ep.OSGuess.Family, float64(ep.OSGuess.Confidence))
		}
		for port, pr := range ep.Ports {
			state := pr.State.String()
			if colors != nil {
				state = colorForState(colors, pr.State).Sprint(state)
			}
			fmt.Fprintf(&buf, "  %d/%s\t%s", port.Number, port.Transport, state)
			if pr.Service != "" {
				fmt.Fprintf(&buf, "\t%s", pr.Service)
			}
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

func (f textFormatter) FormatTrace(r *model.TraceResult) ([]byte, error) {
	colors := newColors(f.cfg)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "traceroute (%s), %d nodes\n", r.Protocol, len(r.Nodes))
	for _, n := range r.Nodes {
		line := fmt.Sprintf("%2d  ", n.Seq)
		if n.ProbeStatus.Kind == model.StatusTimeout {
			line += "*"
		} else {
			ipPart := n.IPAddr.String()
			if n.Hostname != "" && !f.cfg.NoHostname {
				ipPart = fmt.Sprintf("%s (%s)", n.Hostname, n.IPAddr)
			}
			line += fmt.Sprintf("%s  %v", ipPart, n.RTT)
		}
		if colors != nil {
			switch n.NodeType {
			case model.NodeGateway:
				line = colors.Gateway.Sprint(line)
			case model.NodeDestination:
				line = colors.Dest.Sprint(line)
			default:
				line = colors.Hop.Sprint(line)
			}
		}
		fmt.Fprintln(&buf, line)
	}
	return buf.Bytes(), nil
}

func (f textFormatter) FormatPing(r *model.PingResult) ([]byte, error) {
	colors := newColors(f.cfg)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PING %s (%s)\n", r.Target, r.Protocol)
	for _, p := range r.Probes {
		switch p.ProbeStatus.Kind {
		case model.StatusTimeout:
			line := fmt.Sprintf("seq=%d timeout", p.Seq)
			if colors != nil {
				line = colors.Timeout.Sprint(line)
			}
			fmt.Fprintln(&buf, line)
		default:
			fmt.Fprintf(&buf, "seq=%d time=%v\n", p.Seq, p.RTT)
		}
	}
	fmt.Fprintf(&buf, "\n%d sent, %d received\n", r.SentCount, r.ReceivedCount)
	return buf.Bytes(), nil
}

func (f textFormatter) FormatNeighbor(r *model.NeighborDiscoveryResult) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s is at %s", r.IP, r.MAC)
	if r.Vendor != "" {
		fmt.Fprintf(&buf, " (%s)", r.Vendor)
	}
	fmt.Fprintf(&buf, " on %s, %v\n", r.Interface, r.RTT)
	return buf.Bytes(), nil
}

func colorForState(c *ColorScheme, s model.PortState) *color.Color {
	switch s {
	case model.StateOpen:
		return c.Open
	case model.StateClosed:
		return c.Closed
	default:
		return c.Filtered
	}
}
