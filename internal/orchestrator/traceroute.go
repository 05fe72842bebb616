package orchestrator

import (
	"context"
	"net"
	"time"

	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/reconerr"
	"github.com/poros-project/netreco/internal/wire"
)

const defaultHopLimit = 30

// RunTraceroute implements Traceroute{Udp}: one UDP probe per hop with
// TTL=seq, stopping at the first Destination reply or hop_limit (spec
// §4.4, §4.5).
func (r *Runner) RunTraceroute(ctx context.Context, ifaceName string, setting model.TraceSetting) (*model.TraceResult, error) {
	filter := model.CaptureFilter{IPProtocols: []int{1, 58}, ReadTimeout: 100 * time.Millisecond}
	sess, err := r.open(ifaceName, filter)
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
		return nil, reconerr.Timeout("trace.start", ctx.Err())
	}

	corr := correlate.New()
	result := &model.TraceResult{Protocol: model.ProtoUDP}
	start := time.Now()

	hopLimit := setting.HopLimit
	if hopLimit <= 0 {
		hopLimit = defaultHopLimit
	}
	dstPortBase := setting.DstPort
	if dstPortBase <= 0 {
		dstPortBase = wire.BaseTraceUDPPort
	}
	srcPort := ephemeralSrcPort(time.Now().UnixNano())

	status := model.ProbeStatus{Kind: model.StatusDone}
	for seq := 1; seq <= hopLimit; seq++ {
		select {
		case <-ctx.Done():
			status = model.ProbeStatus{Kind: model.StatusInterrupted}
		default:
		}
		if status.Kind == model.StatusInterrupted {
			break
		}

		dstPort := dstPortBase + seq
		buildCtx := sess.bound.buildContext(setting.Dst, sess.bound.Info.MAC, seq)
		buildCtx.SrcPort, buildCtx.DstPort = srcPort, dstPort
		sentAt := time.Now()
		frame, buildErr := wire.BuildUDPProbe(buildCtx, sentAt)
		if buildErr != nil {
			continue
		}

		key := correlate.Key{DstIP: setting.Dst.String(), DstPort: dstPort, SrcPort: srcPort}
		corr.Register(key, sentAt)
		if sendErr := sess.sender.Send(frame); sendErr != nil {
			result.Nodes = append(result.Nodes, model.ProbeResult{
				Seq: seq, Hop: seq, TTL: seq, Protocol: model.ProtoUDP,
				ProbeStatus: model.ProbeStatus{Kind: model.StatusError, Message: sendErr.Error()},
			})
			continue
		}

		node, stop := r.awaitTraceHop(ctx, sess, corr, seq, setting.Dst, setting.ProbeTimeout)
		result.Nodes = append(result.Nodes, node)
		if stop {
			break
		}

		if seq < hopLimit {
			select {
			case <-time.After(setting.SendRate):
			case <-ctx.Done():
				status = model.ProbeStatus{Kind: model.StatusInterrupted}
			}
		}
		if status.Kind == model.StatusInterrupted {
			break
		}
	}

	sess.loop.Stop()
	<-loopDone
	result.ProbeStatus = status
	result.ElapsedTime = time.Since(start)
	return result, nil
}

func (r *Runner) awaitTraceHop(ctx context.Context, sess *boundSession, corr *correlate.Correlator, seq int, dst net.IP, timeout time.Duration) (model.ProbeResult, bool) {
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.After(timeout)
	for {
		select {
		case f, ok := <-sess.loop.Frames():
			if !ok {
				return model.ProbeResult{Seq: seq, Hop: seq, TTL: seq, Protocol: model.ProtoUDP, ProbeStatus: model.ProbeStatus{Kind: model.StatusError, Message: "capture closed"}}, true
			}
			outcome, matched := corr.CorrelateUDPError(f)
			if !matched {
				continue
			}
			nodeType := model.NodeHop
			stop := false
			switch {
			case outcome.Unreachable && outcome.FromIP.Equal(dst):
				nodeType = model.NodeDestination
				stop = true
			case outcome.TimeExceeded && seq == 1:
				nodeType = model.NodeGateway
			}
			return model.ProbeResult{
				Seq: seq, Hop: seq, TTL: seq, IPAddr: outcome.FromIP, RTT: outcome.RTT,
				NodeType: nodeType, Protocol: model.ProtoUDP, ProbeStatus: model.ProbeStatus{Kind: model.StatusDone},
			}, stop
		case <-deadline:
			return model.ProbeResult{Seq: seq, Hop: seq, TTL: seq, Protocol: model.ProtoUDP, ProbeStatus: model.ProbeStatus{Kind: model.StatusTimeout}}, false
		case <-ctx.Done():
			return model.ProbeResult{Seq: seq, Hop: seq, TTL: seq, Protocol: model.ProtoUDP, ProbeStatus: model.ProbeStatus{Kind: model.StatusInterrupted}}, true
		}
	}
}
