package orchestrator

import (
	"context"
	"net"
	"time"

	"github.com/poros-project/netreco/internal/capture"
	"github.com/poros-project/netreco/internal/model"
	"github.com/poros-project/netreco/internal/neighbor"
)

// RunNeighbor implements the single-shot ARP/NDP resolver operation named
// in spec §2 item 8 and exposed as the CLI `nei` subcommand (spec §6).
func (r *Runner) RunNeighbor(ctx context.Context, ifaceName string, target net.IP, timeout time.Duration) (*model.NeighborDiscoveryResult, error) {
	bound, err := bindInterface(r.Interfaces, ifaceName)
	if err != nil {
		return nil, err
	}
	sender, err := NewRawSender(bound.Info.Name)
	if err != nil {
		return nil, err
	}
	defer sender.Close()

	log := r.logEntry().WithField("interface", bound.Info.Name)
	loop, err := capture.New(bound.Info.Name, neighborFilter(bound.Info, target), log)
	if err != nil {
		return nil, err
	}
	defer loop.Close()

	buildCtx := bound.buildContext(target, nil, 0)
	result, err := neighbor.Resolve(ctx, sender, loop, buildCtx, target, bound.Info.Name, timeout, r.Rulebase, log)
	if err != nil {
		return nil, err
	}
	result.Interface = bound.Info.Name
	return &result, nil
}
