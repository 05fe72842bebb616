package model

import (
	"net"
	"time"
)

// CaptureFilter describes which captured frames the capture loop keeps.
// An empty set for any field means "accept any" for that predicate.
type CaptureFilter struct {
	IfIndex        int
	SrcIPs         []net.IP
	DstIPs         []net.IP
	SrcPorts       []int
	DstPorts       []int
	EtherTypes     []uint16
	IPProtocols    []int
	CaptureTimeout time.Duration
	ReadTimeout    time.Duration
	Promiscuous    bool
	Tunnel         bool
	Loopback       bool
}

// ProbeSetting configures a port-scan or host-scan run.
type ProbeSetting struct {
	IfIndex         int
	Targets         []Endpoint
	PortConcurrency int
	ConnectTimeout  time.Duration
	WaitTime        time.Duration
	SendRate        time.Duration
	TaskTimeout     time.Duration
	Randomize       bool
	Seed            int64
}

// TraceSetting configures a traceroute run. HopLimit caps the sequence space.
type TraceSetting struct {
	IfIndex        int
	Dst            net.IP
	DstPort        int
	HopLimit       int
	Protocol       Protocol
	SendRate       time.Duration
	ReceiveTimeout time.Duration
	ProbeTimeout   time.Duration
}

// PingSetting configures a ping run. One response window per probe.
type PingSetting struct {
	IfIndex      int
	Dst          net.IP
	Protocol     Protocol
	Port         int
	Count        int
	Interval     time.Duration
	ProbeTimeout time.Duration
}
