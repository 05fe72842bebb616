// Package neighbor implements the single-shot ARP/NDP resolver: send one
// request, capture with a matching filter, and return the first valid
// reply or a timeout (spec §4.8).
package neighbor

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/correlate"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/reconerr"
	"github.com/poros-project/netreco/internal/wire"
)

// Sender transmits one raw frame on the bound interface.
type Sender interface {
	Send(frame []byte) error
}

// VendorLookup resolves a MAC's OUI to a vendor name; absent if the
// collaborator is unavailable (spec §4.8: "if the collaborator is available").
type VendorLookup interface {
	Vendor(mac net.HardwareAddr) (string, bool)
}

// Resolve sends one ARP (IPv4) or NDP (IPv6) request for target and
// waits up to receiveTimeout for the first matching reply.
func Resolve(ctx context.Context, sender Sender, loop *capture.Loop, ctxBuild wire.PacketBuildContext, target net.IP, ifaceName string, receiveTimeout time.Duration, vendors VendorLookup, log *logrus.Entry) (model.NeighborDiscoveryResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, receiveTimeout)
	defer cancel()

	corr := correlate.New()
	protocol := model.NeighborARP
	var frame []byte
	var err error
	var key correlate.Key

	if target.To4() != nil {
		frame, err = wire.BuildARPRequest(ctxBuild, ctxBuild.SrcIP, target)
		key = correlate.Key{ARPTarget: target.String()}
	} else {
		protocol = model.NeighborNDP
		frame, err = wire.BuildNDPSolicitation(ctxBuild, ctxBuild.SrcIP, target)
		key = correlate.Key{NDPTarget: target.String()}
	}
	if err != nil {
		return model.NeighborDiscoveryResult{}, reconerr.Config("neighbor.build", err)
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(runCtx) }()

	select {
	case <-loop.Ready():
	case <-runCtx.Done():
		return model.NeighborDiscoveryResult{}, reconerr.Timeout("neighbor.resolve", runCtx.Err())
	}

	sentAt := time.Now()
	corr.Register(key, sentAt)
	if err := sender.Send(frame); err != nil {
		return model.NeighborDiscoveryResult{}, reconerr.Send("neighbor.send", err)
	}

	for {
		select {
		case f, ok := <-loop.Frames():
			if !ok {
				if loopErr := <-loopDone; loopErr != nil {
					return model.NeighborDiscoveryResult{}, loopErr
				}
				return model.NeighborDiscoveryResult{}, reconerr.Timeout("neighbor.resolve", reconerr.ErrNoResults)
			}
			outcome, ok := classify(corr, protocol, f)
			if !ok {
				continue
			}
			loop.Stop()
			<-loopDone

			result := model.NeighborDiscoveryResult{
				MAC:       outcome.FromMAC,
				IP:        outcome.FromIP,
				RTT:       outcome.RTT,
				Protocol:  protocol,
				Interface: ifaceName,
			}
			if vendors != nil {
				if v, ok := vendors.Vendor(outcome.FromMAC); ok {
					result.Vendor = v
				}
			}
			return result, nil

		case <-runCtx.Done():
			loop.Stop()
			<-loopDone
			return model.NeighborDiscoveryResult{}, reconerr.Timeout("neighbor.resolve", runCtx.Err())
		}
	}
}

func classify(corr *correlate.Correlator, protocol model.NeighborProtocol, f capture.Frame) (correlate.Outcome, bool) {
	if protocol == model.NeighborARP {
		return corr.CorrelateARP(f)
	}
	return corr.CorrelateNDP(f)
}
