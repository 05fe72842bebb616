package orchestrator

import (
	"context"
	"time"

	"github.com/poros-project/netreco/internal/connectscan"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/fingerprint"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/sendloop"
	"github.com/poros-project/netreco/internal/wire"
)

// RunPortScanSyn implements the PortScan{Syn} mode: craft and send TCP SYN
// probes for every (target, port) pair, capture replies, correlate, and
// fingerprint endpoints with at least one observed open port (spec §4.5,
// §4.7).
func (r *Runner) RunPortScanSyn(ctx context.Context, ifaceName string, setting model.ProbeSetting) (*model.ScanResult, error) {
	filter := model.CaptureFilter{IPProtocols: []int{6}, ReadTimeout: 100 * time.Millisecond}
	sess, err := r.open(ifaceName, filter)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	corr := correlate.New()
	srcPort := ephemeralSrcPort(setting.Seed)

	endpoints := make(map[string]*model.EndpointResult, len(setting.Targets))
	var planned []plannedProbe
	var runWarning string

	for _, tgt := range setting.Targets {
		ep := model.NewEndpointResult(tgt.IP, tgt.Hostname)
		endpoints[tgt.IP.String()] = ep

		var nextHopMAC = sess.bound.Info.MAC
		if !onLink(sess.bound.Info, tgt.IP) {
			mac, warn := r.resolveNextHopMAC(ctx, sess, tgt.IP, ifaceName, setting.ConnectTimeout)
			nextHopMAC = mac
			if warn != "" {
				ep.Warnings = append(ep.Warnings, warn)
				runWarning = appendWarning(runWarning, warn)
			}
		}

		buildCtx := sess.bound.buildContext(tgt.IP, nextHopMAC, 0)
		buildCtx.SrcPort = srcPort

		for _, port := range tgt.Ports {
			buildCtx.DstPort = port.Number
			frame, err := wire.BuildTCPSYN(buildCtx)
			if err != nil {
				continue
			}
			key := correlate.Key{DstIP: tgt.IP.String(), DstPort: port.Number, SrcPort: srcPort}
			planned = append(planned, plannedProbe{key: key, frame: frame})
		}
	}

	probes := toSendProbes(planned, corr)
	dr, err := r.drive(ctx, sess, probes, sendloop.Config{SendRate: setting.SendRate, Randomize: setting.Randomize, Seed: setting.Seed}, setting.WaitTime, setting.TaskTimeout)
	if err != nil {
		return nil, err
	}

	var fingerprints [][]byte
	openFrameByEndpoint := make(map[string][]byte)
	for _, f := range dr.frames {
		outcome, ok := corr.CorrelateTCP(f)
		if !ok {
			continue
		}
		ep, ok := endpoints[outcome.FromIP.String()]
		if !ok {
			continue
		}
		ep.SetPort(model.Port{Number: outcome.Key.DstPort, Transport: model.TransportTCP}, outcome.State, outcome.RTT)
		if s, ok := r.Rulebase.Service(outcome.Key.DstPort); ok {
			ep.Ports[model.Port{Number: outcome.Key.DstPort, Transport: model.TransportTCP}].Service = s
		}
		if outcome.State == model.StateOpen {
			ep.Up = true
			fingerprints = append(fingerprints, f.Data)
			if _, seen := openFrameByEndpoint[outcome.FromIP.String()]; !seen {
				openFrameByEndpoint[outcome.FromIP.String()] = f.Data
			}
		}
	}

	result := &model.ScanResult{ScanTime: time.Now(), Seed: setting.Seed, Fingerprints: fingerprints, Warning: runWarning}
	hasEthernet := !sess.bound.Raw
	for ip, ep := range endpoints {
		if frame, ok := openFrameByEndpoint[ip]; ok {
			r.fingerprintEndpoint(ep, frame, hasEthernet)
		}
		result.Endpoints = append(result.Endpoints, ep)
	}
	if dr.timedOut {
		result.Warning = appendWarning(result.Warning, "task_timeout exceeded before all probes were drained")
	}
	return result, nil
}

// fingerprintEndpoint runs the OS-fingerprint cascade against the frame
// that produced ep's first observed open TCP port, per spec §4.5's gating
// rule: "Fingerprint runs only ... against endpoints that have at least
// one open TCP port response captured".
func (r *Runner) fingerprintEndpoint(ep *model.EndpointResult, frame []byte, hasEthernet bool) {
	feature, ok := r.guessFromFrame(frame, hasEthernet)
	if !ok {
		return
	}
	guess := fingerprint.Guess(r.Rulebase, feature)
	ep.OSGuess = &guess
	ep.CPEs = guess.CPEs
}

// RunPortScanConnect implements the PortScan{Connect} mode: no raw frames
// are crafted or captured — every (target, port) pair is probed with an OS
// TCP connect() bounded by connect_timeout (spec §4.6).
func (r *Runner) RunPortScanConnect(ctx context.Context, setting model.ProbeSetting) (*model.ScanResult, error) {
	endpoints := make(map[string]*model.EndpointResult, len(setting.Targets))
	var targets []connectscan.Target
	for _, tgt := range setting.Targets {
		endpoints[tgt.IP.String()] = model.NewEndpointResult(tgt.IP, tgt.Hostname)
		for _, port := range tgt.Ports {
			targets = append(targets, connectscan.Target{Host: tgt.IP.String(), Port: port})
		}
	}

	runCtx := ctx
	if setting.TaskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, setting.TaskTimeout)
		defer cancel()
	}

	out := connectscan.Run(runCtx, r.Dialer, targets, setting.PortConcurrency, setting.ConnectTimeout)
	for outcome := range out {
		ep, ok := endpoints[outcome.Target.Host]
		if !ok {
			continue
		}
		ep.SetPort(outcome.Target.Port, outcome.State, outcome.RTT)
		if outcome.State == model.StateOpen {
			ep.Up = true
			if s, ok := r.Rulebase.Service(outcome.Target.Port.Number); ok {
				ep.Ports[outcome.Target.Port].Service = s
			}
		}
	}

	result := &model.ScanResult{ScanTime: time.Now(), Seed: setting.Seed}
	for _, ep := range endpoints {
		result.Endpoints = append(result.Endpoints, ep)
	}
	if runCtx.Err() != nil {
		result.Warning = appendWarning(result.Warning, "task_timeout exceeded before all sockets completed")
	}
	return result, nil
}
