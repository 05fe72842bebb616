package output

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/poros-project/netreco/internal/model"
)

// tableFormatter renders results as a bordered table, adapted from the
// teacher's TableFormatter.
type tableFormatter struct {
	cfg    Config
	colors *ColorScheme
}

func (f tableFormatter) ContentType() string { return "text/plain" }

func configureTable(table *tablewriter.Table) {
	table.SetBorder(true)
	table.SetRowLine(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("│")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetTablePadding(" ")
}

func (f tableFormatter) FormatScan(r *model.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	for _, ep := range r.Endpoints {
		fmt.Fprintf(&buf, "%s (%s)\n", ep.IP, ep.Hostname)
		table := tablewriter.NewWriter(&buf)
		configureTable(table)
		table.SetHeader([]string{"Port", "Transport", "State", "Service", "RTT"})
		for port, pr := range ep.Ports {
			table.Append([]string{
				fmt.Sprintf("%d", port.Number),
				port.Transport.String(),
				pr.State.String(),
				pr.Service,
				pr.RTT.String(),
			})
		}
		table.Render()
	}
	return buf.Bytes(), nil
}

func (f tableFormatter) FormatTrace(r *model.TraceResult) ([]byte, error) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	configureTable(table)
	table.SetHeader([]string{"Seq", "Node", "IP", "Hostname", "RTT", "Status"})
	for _, n := range r.Nodes {
		table.Append([]string{
			fmt.Sprintf("%d", n.Seq),
			n.NodeType.String(),
			n.IPAddr.String(),
			n.Hostname,
			n.RTT.String(),
			n.ProbeStatus.Kind.String(),
		})
	}
	table.Render()
	return buf.Bytes(), nil
}

func (f tableFormatter) FormatPing(r *model.PingResult) ([]byte, error) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	configureTable(table)
	table.SetHeader([]string{"Seq", "RTT", "Status"})
	for _, p := range r.Probes {
		table.Append([]string{
			fmt.Sprintf("%d", p.Seq),
			p.RTT.String(),
			p.ProbeStatus.Kind.String(),
		})
	}
	table.Render()
	fmt.Fprintf(&buf, "\n%d sent, %d received\n", r.SentCount, r.ReceivedCount)
	return buf.Bytes(), nil
}

func (f tableFormatter) FormatNeighbor(r *model.NeighborDiscoveryResult) ([]byte, error) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	configureTable(table)
	table.SetHeader([]string{"IP", "MAC", "Vendor", "RTT", "Protocol"})
	table.Append([]string{r.IP.String(), r.MAC.String(), r.Vendor, r.RTT.String(), r.Protocol.String()})
	table.Render()
	return buf.Bytes(), nil
}
