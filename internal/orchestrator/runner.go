// Package orchestrator implements the scan orchestrator state machine
// (spec §4.5): bind an interface, resolve the next-hop MAC when needed,
// run capture and send as sibling tasks, drain, correlate, and — only
// for endpoints with an open TCP port — fingerprint.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/collab"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/neighbor"
	"github.com/poros-project/netreco/internal/reconerr"
	"github.com/poros-project/netreco/internal/sendloop"
)

// Runner wires the external collaborators (spec §6) into the orchestrator
// operations. It holds no per-run state; every Run* method is safe to call
// concurrently for independent runs.
type Runner struct {
	Interfaces collab.InterfaceProvider
	Resolver   collab.Resolver
	Rulebase   *collab.Rulebase
	Dialer     connectDialer
	Log        *logrus.Logger
}

// connectDialer is the subset of connectscan.Dialer the runner depends on,
// declared locally so this file doesn't need to import connectscan just
// for the field type.
type connectDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewRunner builds a Runner with the default system collaborators.
func NewRunner(log *logrus.Logger) *Runner {
	return &Runner{
		Interfaces: collab.SystemInterfaceProvider{},
		Resolver:   collab.NewDNSResolver(5 * time.Minute),
		Rulebase:   collab.NewRulebase(),
		Dialer:     &stdDialer{},
		Log:        log,
	}
}

type stdDialer struct{ net.Dialer }

func (d *stdDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.Dialer.DialContext(ctx, network, address)
}

// boundSession is one run's exclusive hold on an interface: a dedicated
// write handle for the send task and a capture loop for the receive task
// (spec §5: each side is owned exclusively by its task).
type boundSession struct {
	bound  BoundInterface
	sender *RawSender
	loop   *capture.Loop
	log    *logrus.Entry
}

func (r *Runner) open(ifaceName string, filter model.CaptureFilter) (*boundSession, error) {
	bound, err := bindInterface(r.Interfaces, ifaceName)
	if err != nil {
		return nil, err
	}
	sender, err := NewRawSender(bound.Info.Name)
	if err != nil {
		return nil, err
	}
	log := r.logEntry().WithField("interface", bound.Info.Name)
	loop, err := capture.New(bound.Info.Name, filter, log)
	if err != nil {
		sender.Close()
		return nil, err
	}
	return &boundSession{bound: bound, sender: sender, loop: loop, log: log}, nil
}

func (s *boundSession) close() {
	s.sender.Close()
	s.loop.Close()
}

func (r *Runner) logEntry() *logrus.Entry {
	if r.Log == nil {
		return logrus.NewEntry(logrus.New())
	}
	return logrus.NewEntry(r.Log)
}

// plannedProbe pairs a built frame with the correlator key it should be
// registered under once it actually leaves the wire.
type plannedProbe struct {
	key   correlate.Key
	frame []byte
}

// toSendProbes adapts planned probes into sendloop.Probe, registering each
// one's correlator key from the loop's own send-time callback (spec §4.4:
// "tracked in a small map keyed by ... with the last send instant").
func toSendProbes(planned []plannedProbe, corr *correlate.Correlator) []sendloop.Probe {
	probes := make([]sendloop.Probe, len(planned))
	for i := range planned {
		key := planned[i].key
		probes[i] = sendloop.Probe{
			Frame: planned[i].frame,
			OnSent: func(sentAt time.Time) {
				corr.Register(key, sentAt)
			},
		}
	}
	return probes
}

// driveResult is the outcome of running capture and send as sibling tasks
// through one full DrainWait cycle (spec §4.5/§5).
type driveResult struct {
	frames   []capture.Frame
	stats    sendloop.Stats
	timedOut bool
}

// drive implements StartCapture → SendProbes → DrainWait(wait_time) →
// StopCapture → CollectFrames. task_timeout, when positive, is a hard
// ceiling on the whole cycle (spec §4.5 Timeouts).
func (r *Runner) drive(ctx context.Context, sess *boundSession, probes []sendloop.Probe, sendCfg sendloop.Config, waitTime, taskTimeout time.Duration) (driveResult, error) {
	runCtx := ctx
	if taskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, taskTimeout)
		defer cancel()
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- sess.loop.Run(runCtx) }()

	stats, sendErr := sendloop.Run(runCtx, sess.sender, probes, sendCfg, sess.loop.Ready(), sess.log)
	if sendErr != nil && !reconerr.Is(sendErr, reconerr.KindSend) {
		return driveResult{}, sendErr
	}

	timedOut := false
	select {
	case <-runCtx.Done():
		timedOut = errors.Is(runCtx.Err(), context.DeadlineExceeded)
	case <-time.After(waitTime):
	}

	sess.loop.Stop()
	frames := drainFrames(sess.loop.Frames())

	if err := <-loopDone; err != nil && !timedOut {
		return driveResult{frames: frames, stats: stats}, err
	}

	return driveResult{frames: frames, stats: stats, timedOut: timedOut}, nil
}

func drainFrames(ch <-chan capture.Frame) []capture.Frame {
	var out []capture.Frame
	for f := range ch {
		out = append(out, f)
	}
	return out
}

// resolveNextHopMAC resolves dst's link-layer address via ARP/NDP. On
// failure it returns a zeroed MAC and a warning message rather than an
// error, per spec §4.5: "raw modes fall back to sending with a zeroed
// destination MAC ... and set a warning flag".
func (r *Runner) resolveNextHopMAC(ctx context.Context, sess *boundSession, target net.IP, ifaceName string, timeout time.Duration) (net.HardwareAddr, string) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	buildCtx := sess.bound.buildContext(target, nil, 0)

	resolveLoop, err := capture.New(sess.bound.Info.Name, neighborFilter(sess.bound.Info, target), sess.log)
	if err != nil {
		return zeroMAC(), fmt.Sprintf("next-hop MAC resolution unavailable for %s: %v", target, err)
	}
	defer resolveLoop.Close()

	result, err := neighbor.Resolve(ctx, sess.sender, resolveLoop, buildCtx, target, ifaceName, timeout, r.Rulebase, sess.log)
	if err != nil {
		return zeroMAC(), fmt.Sprintf("next-hop MAC resolution failed for %s: %v", target, err)
	}
	return result.MAC, ""
}

func zeroMAC() net.HardwareAddr { return net.HardwareAddr{0, 0, 0, 0, 0, 0} }

func neighborFilter(info collab.InterfaceInfo, target net.IP) model.CaptureFilter {
	if target.To4() != nil {
		return model.CaptureFilter{IfIndex: info.Index, EtherTypes: []uint16{0x0806}, ReadTimeout: 100 * time.Millisecond}
	}
	return model.CaptureFilter{IfIndex: info.Index, IPProtocols: []int{58}, ReadTimeout: 100 * time.Millisecond}
}

// onLink reports whether target shares a subnet with any of iface's
// addresses — a cheap heuristic for "off-link" in spec §4.5's
// ResolveNextHopMac trigger, since the core has no routing table collaborator.
func onLink(info collab.InterfaceInfo, target net.IP) bool {
	for _, ip := range info.IPs {
		ipnet := &net.IPNet{IP: ip, Mask: defaultMaskFor(ip)}
		if ipnet.Contains(target) {
			return true
		}
	}
	return false
}

func defaultMaskFor(ip net.IP) net.IPMask {
	if v4 := ip.To4(); v4 != nil {
		return net.CIDRMask(24, 32)
	}
	return net.CIDRMask(64, 128)
}

func ephemeralSrcPort(seed int64) int {
	r := rand.New(rand.NewSource(seed))
	return 49152 + r.Intn(16383)
}

func appendWarning(existing, next string) string {
	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	return existing + "; " + next
}

var _ connectDialer = (*stdDialer)(nil)
