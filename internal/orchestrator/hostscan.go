package orchestrator

import (
	"context"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/fingerprint"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/sendloop"
	"github.com/poros-project/netreco/internal/wire"
)

// defaultHostScanTCPPort is the probe port used for HostScan{Tcp} when a
// target carries no explicit port list.
const defaultHostScanTCPPort = 80

// RunHostScan implements HostScan{Icmp|Tcp|Udp}: a liveness sweep over
// setting.Targets using one of the three probe kinds (spec §4.5, §2 item
// 5). The ICMP and UDP sweeps fill no per-port result tables; the TCP
// sweep runs RunPortScanSyn and keeps its per-port results.
func (r *Runner) RunHostScan(ctx context.Context, ifaceName string, setting model.ProbeSetting, protocol model.Protocol) (*model.ScanResult, error) {
	switch protocol {
	case model.ProtoTCP:
		return r.hostScanTCP(ctx, ifaceName, setting)
	case model.ProtoUDP:
		return r.hostScanUDP(ctx, ifaceName, setting)
	default:
		return r.hostScanICMP(ctx, ifaceName, setting)
	}
}

func (r *Runner) hostScanICMP(ctx context.Context, ifaceName string, setting model.ProbeSetting) (*model.ScanResult, error) {
	filter := model.CaptureFilter{IPProtocols: []int{1, 58}, ReadTimeout: 100 * time.Millisecond}
	sess, err := r.open(ifaceName, filter)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	corr := correlate.New()
	identifier := ephemeralSrcPort(setting.Seed)
	endpoints := make(map[string]*model.EndpointResult, len(setting.Targets))
	var planned []plannedProbe

	for i, tgt := range setting.Targets {
		ep := model.NewEndpointResult(tgt.IP, tgt.Hostname)
		endpoints[tgt.IP.String()] = ep

		buildCtx := sess.bound.buildContext(tgt.IP, sess.bound.Info.MAC, 0)
		seq := i + 1
		frame, err := wire.BuildICMPEcho(buildCtx, identifier, seq, time.Now())
		if err != nil {
			continue
		}
		key := correlate.Key{Identifier: identifier, Seq: seq}
		planned = append(planned, plannedProbe{key: key, frame: frame})
	}

	probes := toSendProbes(planned, corr)
	dr, err := r.drive(ctx, sess, probes, sendloop.Config{SendRate: setting.SendRate, Randomize: setting.Randomize, Seed: setting.Seed}, setting.WaitTime, setting.TaskTimeout)
	if err != nil {
		return nil, err
	}

	for _, f := range dr.frames {
		outcome, ok := corr.CorrelateICMPEcho(f)
		if !ok || outcome.TimeExceeded || outcome.Unreachable {
			continue
		}
		ep, ok := endpoints[outcome.FromIP.String()]
		if !ok {
			continue
		}
		ep.Up = true
		guess := fingerprint.Guess(r.Rulebase, fingerprint.Feature{TTLObserved: observedTTL(f, !sess.bound.Raw)})
		ep.OSGuess = &guess
		_ = outcome.RTT
	}

	return r.finishScan(setting, endpoints, dr), nil
}

func (r *Runner) hostScanTCP(ctx context.Context, ifaceName string, setting model.ProbeSetting) (*model.ScanResult, error) {
	scoped := setting
	scoped.Targets = make([]model.Endpoint, len(setting.Targets))
	for i, tgt := range setting.Targets {
		scoped.Targets[i] = tgt
		if len(scoped.Targets[i].Ports) == 0 {
			scoped.Targets[i].Ports = []model.Port{{Number: defaultHostScanTCPPort, Transport: model.TransportTCP}}
		}
	}
	full, err := r.RunPortScanSyn(ctx, ifaceName, scoped)
	if err != nil {
		return nil, err
	}
	for _, ep := range full.Endpoints {
		for _, pr := range ep.Ports {
			if pr.State == model.StateOpen || pr.State == model.StateClosed {
				ep.Up = true
			}
		}
	}
	return full, nil
}

func (r *Runner) hostScanUDP(ctx context.Context, ifaceName string, setting model.ProbeSetting) (*model.ScanResult, error) {
	filter := model.CaptureFilter{IPProtocols: []int{1, 17, 58}, ReadTimeout: 100 * time.Millisecond}
	sess, err := r.open(ifaceName, filter)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	corr := correlate.New()
	srcPort := ephemeralSrcPort(setting.Seed)
	endpoints := make(map[string]*model.EndpointResult, len(setting.Targets))
	var planned []plannedProbe

	for _, tgt := range setting.Targets {
		ep := model.NewEndpointResult(tgt.IP, tgt.Hostname)
		endpoints[tgt.IP.String()] = ep

		dstPort := wire.BaseTraceUDPPort
		if len(tgt.Ports) > 0 {
			dstPort = tgt.Ports[0].Number
		}
		buildCtx := sess.bound.buildContext(tgt.IP, sess.bound.Info.MAC, 64)
		buildCtx.SrcPort = srcPort
		buildCtx.DstPort = dstPort
		frame, err := wire.BuildUDPProbe(buildCtx, time.Now())
		if err != nil {
			continue
		}
		key := correlate.Key{DstIP: tgt.IP.String(), DstPort: dstPort, SrcPort: srcPort}
		planned = append(planned, plannedProbe{key: key, frame: frame})
	}

	probes := toSendProbes(planned, corr)
	dr, err := r.drive(ctx, sess, probes, sendloop.Config{SendRate: setting.SendRate, Randomize: setting.Randomize, Seed: setting.Seed}, setting.WaitTime, setting.TaskTimeout)
	if err != nil {
		return nil, err
	}

	for _, f := range dr.frames {
		outcome, ok := corr.CorrelateUDPError(f)
		if !ok {
			continue
		}
		ep, ok := endpoints[outcome.FromIP.String()]
		if !ok {
			continue
		}
		ep.Up = true
	}

	return r.finishScan(setting, endpoints, dr), nil
}

func (r *Runner) finishScan(setting model.ProbeSetting, endpoints map[string]*model.EndpointResult, dr driveResult) *model.ScanResult {
	result := &model.ScanResult{ScanTime: time.Now(), Seed: setting.Seed}
	for _, ep := range endpoints {
		result.Endpoints = append(result.Endpoints, ep)
	}
	if dr.timedOut {
		result.Warning = "task_timeout exceeded before all probes were drained"
	}
	return result
}

// observedTTL extracts the IP TTL/hop-limit a captured reply arrived with,
// feeding the host-scan ICMP echo path's OS family guess (spec §4.4:
// "inspect inner TTL for host-scan OS family guess").
func observedTTL(f capture.Frame, hasEthernet bool) int {
	first := layers.LayerTypeEthernet
	if !hasEthernet {
		first = rawIPFirstLayerType(f.Data)
	}
	pkt := gopacket.NewPacket(f.Data, first, gopacket.NoCopy)
	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		return int(ip4.(*layers.IPv4).TTL)
	}
	if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		return int(ip6.(*layers.IPv6).HopLimit)
	}
	return 0
}
