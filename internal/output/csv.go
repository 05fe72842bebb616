package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/poros-project/netreco/internal/model"
)

type csvFormatter struct{}

func (csvFormatter) ContentType() string { return "text/csv" }

func (csvFormatter) FormatScan(r *model.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ip", "hostname", "port", "transport", "state", "service", "rtt_ms"})
	for _, ep := range r.Endpoints {
		for port, pr := range ep.Ports {
			w.Write([]string{
				ep.IP.String(), ep.Hostname,
				fmt.Sprintf("%d", port.Number), port.Transport.String(),
				pr.State.String(), pr.Service, fmt.Sprintf("%d", pr.RTT.Milliseconds()),
			})
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (csvFormatter) FormatTrace(r *model.TraceResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"seq", "node_type", "ip", "hostname", "rtt_ms", "status"})
	for _, n := range r.Nodes {
		w.Write([]string{
			fmt.Sprintf("%d", n.Seq), n.NodeType.String(), n.IPAddr.String(), n.Hostname,
			fmt.Sprintf("%d", n.RTT.Milliseconds()), n.ProbeStatus.Kind.String(),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (csvFormatter) FormatPing(r *model.PingResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"seq", "rtt_ms", "status"})
	for _, p := range r.Probes {
		w.Write([]string{fmt.Sprintf("%d", p.Seq), fmt.Sprintf("%d", p.RTT.Milliseconds()), p.ProbeStatus.Kind.String()})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (csvFormatter) FormatNeighbor(r *model.NeighborDiscoveryResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ip", "mac", "vendor", "rtt_ms", "protocol"})
	w.Write([]string{r.IP.String(), r.MAC.String(), r.Vendor, fmt.Sprintf("%d", r.RTT.Milliseconds()), r.Protocol.String()})
	w.Flush()
	return buf.Bytes(), w.Error()
}
