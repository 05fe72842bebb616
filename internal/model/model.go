// Package model defines the shared result and configuration types used
// across the scan orchestrator, correlator, fingerprinter, and neighbor
// resolver.
package model

import (
	"encoding/json"
	"net"
	"strconv"
	"time"
)

// Transport identifies the transport-layer protocol a Port belongs to.
type Transport int

const (
	TransportTCP Transport = iota
	TransportUDP
)

func (t Transport) String() string {
	switch t {
	case TransportUDP:
		return "udp"
	default:
		return "tcp"
	}
}

// MarshalJSON renders Transport as its string form for §6 JSON output.
func (t Transport) MarshalJSON() ([]byte, error) {
	return quoteJSON(t.String()), nil
}

// Port identifies a single transport-layer port on an Endpoint.
// (number, transport) forms a key unique within an endpoint.
type Port struct {
	Number    int       `json:"number"`
	Transport Transport `json:"transport"`
	Service   string    `json:"service,omitempty"`
}

// MarshalText renders Port as "number/transport" (e.g. "22/tcp") so a
// Port can key the JSON ports map of an EndpointResult.
func (p Port) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(p.Number) + "/" + p.Transport.String()), nil
}

// MarshalJSON renders a Port value as an object with its tagged fields;
// MarshalText only governs its form as a map key.
func (p Port) MarshalJSON() ([]byte, error) {
	type portFields Port
	return json.Marshal(portFields(p))
}

// PortState is the observed state of a probed port. State transitions
// are monotonic toward "more evidence": once Open, a PortState cannot
// regress to Filtered.
type PortState int

const (
	StateUnknown PortState = iota
	StateOpen
	StateClosed
	StateFiltered
	StateOpenFiltered
)

func (s PortState) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	case StateFiltered:
		return "Filtered"
	case StateOpenFiltered:
		return "OpenFiltered"
	default:
		return "Unknown"
	}
}

func (s PortState) MarshalJSON() ([]byte, error) {
	return quoteJSON(s.String()), nil
}

// Absorb merges an incoming state observation with the current one,
// honoring the "Open wins" / "Closed cannot become Filtered" invariants
// from spec §4.4 and §8.
func (s PortState) Absorb(next PortState) PortState {
	if s == StateOpen {
		return StateOpen
	}
	if next == StateOpen {
		return StateOpen
	}
	if s == StateClosed && next == StateFiltered {
		return StateClosed
	}
	if s == StateUnknown {
		return next
	}
	return s
}

// PortResult is the outcome of probing a single Port.
type PortResult struct {
	Port    Port      `json:"port"`
	State   PortState `json:"state"`
	Service string    `json:"service,omitempty"`
	RTT     time.Duration `json:"rtt_ms"`
}

// Endpoint is a scan target: an IP plus the ports of interest.
type Endpoint struct {
	IP       net.IP
	Hostname string
	Ports    []Port
	Tags     []string
}

// EndpointResult aggregates everything learned about one Endpoint during
// a run. Ports is keyed by Port so (number, transport) stays unique.
type EndpointResult struct {
	IP       net.IP                `json:"ip"`
	Hostname string                `json:"hostname,omitempty"`
	Ports    map[Port]*PortResult  `json:"ports"`
	MACAddr  net.HardwareAddr      `json:"mac_addr,omitempty"`
	Vendor   string                `json:"vendor,omitempty"`
	OSGuess  *OSGuess              `json:"os_guess,omitempty"`
	CPEs     []string              `json:"cpes,omitempty"`
	Up       bool                  `json:"up"`
	Warnings []string              `json:"warnings,omitempty"`
}

// NewEndpointResult creates an EndpointResult with an initialized port table.
func NewEndpointResult(ip net.IP, hostname string) *EndpointResult {
	return &EndpointResult{
		IP:       ip,
		Hostname: hostname,
		Ports:    make(map[Port]*PortResult),
	}
}

// SetPort records (or monotonically updates) the result for one port.
func (e *EndpointResult) SetPort(p Port, state PortState, rtt time.Duration) {
	if existing, ok := e.Ports[p]; ok {
		existing.State = existing.State.Absorb(state)
		if existing.RTT == 0 {
			existing.RTT = rtt
		}
		return
	}
	e.Ports[p] = &PortResult{Port: p, State: state, RTT: rtt}
}

// NodeType classifies a hop/probe target in trace and ping results.
type NodeType int

const (
	NodeHop NodeType = iota
	NodeGateway
	NodeDestination
)

func (n NodeType) String() string {
	switch n {
	case NodeGateway:
		return "Gateway"
	case NodeDestination:
		return "Destination"
	default:
		return "Hop"
	}
}

func (n NodeType) MarshalJSON() ([]byte, error) { return quoteJSON(n.String()), nil }

// ProbeStatusKind is the terminal outcome of a single probe.
type ProbeStatusKind int

const (
	StatusDone ProbeStatusKind = iota
	StatusTimeout
	StatusInterrupted
	StatusError
)

func (k ProbeStatusKind) String() string {
	switch k {
	case StatusTimeout:
		return "Timeout"
	case StatusInterrupted:
		return "Interrupted"
	case StatusError:
		return "Error"
	default:
		return "Done"
	}
}

func (k ProbeStatusKind) MarshalJSON() ([]byte, error) { return quoteJSON(k.String()), nil }

// ProbeStatus carries the terminal outcome and an optional message.
type ProbeStatus struct {
	Kind    ProbeStatusKind `json:"kind"`
	Message string          `json:"message,omitempty"`
}

// Protocol identifies the probe protocol used for a ping/trace/host operation.
type Protocol int

const (
	ProtoICMP Protocol = iota
	ProtoTCP
	ProtoUDP
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return "icmp"
	}
}

func (p Protocol) MarshalJSON() ([]byte, error) { return quoteJSON(p.String()), nil }

// ProbeResult is one seq entry of a trace or ping run.
type ProbeResult struct {
	Seq          int              `json:"seq"`
	MACAddr      net.HardwareAddr `json:"mac_addr,omitempty"`
	IPAddr       net.IP           `json:"ip_addr,omitempty"`
	Hostname     string           `json:"hostname,omitempty"`
	Port         int              `json:"port,omitempty"`
	PortStatus   PortState        `json:"port_status,omitempty"`
	TTL          int              `json:"ttl,omitempty"`
	Hop          int              `json:"hop,omitempty"`
	RTT          time.Duration    `json:"rtt_ms"`
	NodeType     NodeType         `json:"node_type"`
	Protocol     Protocol         `json:"protocol"`
	ProbeStatus  ProbeStatus      `json:"probe_status"`
	SentBytes    int              `json:"sent_bytes"`
	ReceivedBytes int             `json:"received_bytes"`
}

// OSFamilyConfidence is the tier at which an OS guess was produced.
type OSFamilyConfidence float64

const (
	ConfidenceExact      OSFamilyConfidence = 0.9
	ConfidenceApproximate OSFamilyConfidence = 0.6
	ConfidenceTTLOnly    OSFamilyConfidence = 0.3
)

// OSGuess is the output of the OS fingerprinter.
type OSGuess struct {
	Family           string             `json:"family"`
	Confidence       OSFamilyConfidence `json:"confidence"`
	TTLObserved      int                `json:"ttl_observed"`
	InitialTTLClass  int                `json:"initial_ttl_class"`
	CPEs             []string           `json:"cpes,omitempty"`
}

// ScanResult is the root result of a port/host scan run.
type ScanResult struct {
	Endpoints    []*EndpointResult `json:"endpoints"`
	Fingerprints [][]byte          `json:"-"`
	ScanTime     time.Time         `json:"scan_time"`
	Seed         int64             `json:"seed,omitempty"`
	Warning      string            `json:"warning,omitempty"`
}

// TraceResult is the root result of a traceroute run. Nodes are ordered
// by seq; iteration stops at the first Destination or at hop_limit.
type TraceResult struct {
	Nodes       []ProbeResult `json:"nodes"`
	ProbeStatus ProbeStatus   `json:"probe_status"`
	ElapsedTime time.Duration `json:"elapsed_time_ms"`
	Protocol    Protocol      `json:"protocol"`
	Seed        int64         `json:"seed,omitempty"`
}

// PingResult is the root result of a ping run.
type PingResult struct {
	Target      string        `json:"target"`
	Probes      []ProbeResult `json:"probes"`
	Protocol    Protocol      `json:"protocol"`
	SentCount   int           `json:"sent_count"`
	ReceivedCount int         `json:"received_count"`
}

// NeighborProtocol distinguishes the link-layer resolution protocol used.
type NeighborProtocol int

const (
	NeighborARP NeighborProtocol = iota
	NeighborNDP
)

func (n NeighborProtocol) String() string {
	if n == NeighborNDP {
		return "Ndp"
	}
	return "Arp"
}

func (n NeighborProtocol) MarshalJSON() ([]byte, error) { return quoteJSON(n.String()), nil }

// NeighborDiscoveryResult is the outcome of a single ARP/NDP resolution.
type NeighborDiscoveryResult struct {
	MAC       net.HardwareAddr `json:"mac"`
	Vendor    string           `json:"vendor,omitempty"`
	IP        net.IP           `json:"ip"`
	Hostname  string           `json:"hostname,omitempty"`
	RTT       time.Duration    `json:"rtt_ms"`
	Protocol  NeighborProtocol `json:"protocol"`
	Interface string           `json:"interface"`
}

func quoteJSON(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	b = append(b, s...)
	b = append(b, '"')
	return b
}
