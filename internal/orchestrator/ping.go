package orchestrator

import (
	"context"
	"time"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/reconerr"
	"github.com/poros-project/netreco/internal/wire"
)

// RunPing implements Ping{Icmp|Tcp|Udp}: one probe per seq, one response
// window per probe (spec §3 PingSetting, §4.5).
func (r *Runner) RunPing(ctx context.Context, ifaceName string, setting model.PingSetting) (*model.PingResult, error) {
	sess, err := r.open(ifaceName, filterForProtocol(setting.Protocol))
	if err != nil {
		return nil, err
	}
	defer sess.close()

	loopDone := make(chan error, 1)
	go func() { loopDone <- sess.loop.Run(ctx) }()
	select {
	case <-sess.loop.Ready():
	case <-ctx.Done():
		<-loopDone
		return nil, reconerr.Timeout("ping.start", ctx.Err())
	}

	corr := correlate.New()
	result := &model.PingResult{Target: setting.Dst.String(), Protocol: setting.Protocol}
	identifier := ephemeralSrcPort(time.Now().UnixNano())
	srcPort := ephemeralSrcPort(time.Now().UnixNano() + 1)

	count := setting.Count
	if count <= 0 {
		count = 4
	}

loop:
	for seq := 1; seq <= count; seq++ {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		buildCtx := sess.bound.buildContext(setting.Dst, sess.bound.Info.MAC, 0)
		sentAt := time.Now()
		var frame []byte
		var key correlate.Key

		switch setting.Protocol {
		case model.ProtoTCP:
			buildCtx.SrcPort, buildCtx.DstPort = srcPort, setting.Port
			frame, err = wire.BuildTCPSYN(buildCtx)
			key = correlate.Key{DstIP: setting.Dst.String(), DstPort: setting.Port, SrcPort: srcPort}
		case model.ProtoUDP:
			buildCtx.SrcPort, buildCtx.DstPort = srcPort, setting.Port
			frame, err = wire.BuildUDPProbe(buildCtx, sentAt)
			key = correlate.Key{DstIP: setting.Dst.String(), DstPort: setting.Port, SrcPort: srcPort}
		default:
			frame, err = wire.BuildICMPEcho(buildCtx, identifier, seq, sentAt)
			key = correlate.Key{Identifier: identifier, Seq: seq}
		}
		if err != nil {
			continue
		}

		corr.Register(key, sentAt)
		result.SentCount++
		if sendErr := sess.sender.Send(frame); sendErr != nil {
			result.Probes = append(result.Probes, model.ProbeResult{
				Seq: seq, Protocol: setting.Protocol,
				ProbeStatus: model.ProbeStatus{Kind: model.StatusError, Message: sendErr.Error()},
			})
			continue
		}

		pr := r.awaitPingReply(ctx, sess, corr, setting.Protocol, seq, setting.ProbeTimeout)
		result.Probes = append(result.Probes, pr)
		if pr.ProbeStatus.Kind == model.StatusDone {
			result.ReceivedCount++
		}

		if seq < count {
			select {
			case <-time.After(setting.Interval):
			case <-ctx.Done():
				break loop
			}
		}
	}

	sess.loop.Stop()
	<-loopDone
	return result, nil
}

func (r *Runner) awaitPingReply(ctx context.Context, sess *boundSession, corr *correlate.Correlator, protocol model.Protocol, seq int, timeout time.Duration) model.ProbeResult {
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.After(timeout)
	for {
		select {
		case f, ok := <-sess.loop.Frames():
			if !ok {
				return model.ProbeResult{Seq: seq, Protocol: protocol, ProbeStatus: model.ProbeStatus{Kind: model.StatusError, Message: "capture closed"}}
			}
			outcome, matched := matchPing(corr, protocol, f)
			if !matched {
				continue
			}
			return model.ProbeResult{
				Seq: seq, IPAddr: outcome.FromIP, MACAddr: outcome.FromMAC, RTT: outcome.RTT,
				Protocol: protocol, ProbeStatus: model.ProbeStatus{Kind: model.StatusDone},
			}
		case <-deadline:
			return model.ProbeResult{Seq: seq, Protocol: protocol, ProbeStatus: model.ProbeStatus{Kind: model.StatusTimeout}}
		case <-ctx.Done():
			return model.ProbeResult{Seq: seq, Protocol: protocol, ProbeStatus: model.ProbeStatus{Kind: model.StatusInterrupted}}
		}
	}
}

func matchPing(corr *correlate.Correlator, protocol model.Protocol, f capture.Frame) (correlate.Outcome, bool) {
	switch protocol {
	case model.ProtoTCP:
		return corr.CorrelateTCP(f)
	case model.ProtoUDP:
		return corr.CorrelateUDPError(f)
	default:
		return corr.CorrelateICMPEcho(f)
	}
}

func filterForProtocol(p model.Protocol) model.CaptureFilter {
	switch p {
	case model.ProtoTCP:
		return model.CaptureFilter{IPProtocols: []int{6}, ReadTimeout: 100 * time.Millisecond}
	case model.ProtoUDP:
		return model.CaptureFilter{IPProtocols: []int{1, 17, 58}, ReadTimeout: 100 * time.Millisecond}
	default:
		return model.CaptureFilter{IPProtocols: []int{1, 58}, ReadTimeout: 100 * time.Millisecond}
	}
}
