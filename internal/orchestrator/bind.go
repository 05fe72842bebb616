package orchestrator

import (
	"net"

	"github.com/poros-project/netreco/internal/collab"
	"github.com/poros-project/netreco/internal/wire"
)

// BoundInterface is the resolved interface a run is scoped to (spec
// §4.5: Init → BindInterface).
type BoundInterface struct {
	Info collab.InterfaceInfo
	Raw  bool // tunnel or loopback: no Ethernet header on the wire
}

// bindInterface resolves ifaceName (or the default route interface when
// empty) via the InterfaceProvider collaborator.
func bindInterface(provider collab.InterfaceProvider, ifaceName string) (BoundInterface, error) {
	var info collab.InterfaceInfo
	var err error
	if ifaceName == "" {
		info, err = provider.GetDefault()
	} else {
		info, err = provider.GetByName(ifaceName)
	}
	if err != nil {
		return BoundInterface{}, err
	}
	return BoundInterface{Info: info, Raw: info.IsLoop}, nil
}

// buildContext seeds a wire.PacketBuildContext for frames leaving this
// interface toward dst.
func (b BoundInterface) buildContext(dst net.IP, nextHopMAC net.HardwareAddr, ttl int) wire.PacketBuildContext {
	srcIP := wire.SelectSrcIP(wire.PacketBuildContext{}, dst, b.Info.IPs)
	return wire.PacketBuildContext{
		SrcMAC:     b.Info.MAC,
		SrcIP:      srcIP,
		NextHopMAC: nextHopMAC,
		DstIP:      dst,
		TTL:        ttl,
		Raw:        b.Raw,
	}
}
