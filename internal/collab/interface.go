package collab

import (
	"net"

	"github.com/poros-project/netreco/internal/reconerr"
)

// InterfaceInfo describes a bindable network interface.
type InterfaceInfo struct {
	Name    string
	Index   int
	MAC     net.HardwareAddr
	IPs     []net.IP
	IsLoop  bool
	IsUp    bool
}

// InterfaceProvider enumerates and resolves network interfaces (spec §6).
type InterfaceProvider interface {
	Enumerate() ([]InterfaceInfo, error)
	GetByName(name string) (InterfaceInfo, error)
	GetByIndex(index int) (InterfaceInfo, error)
	GetDefault() (InterfaceInfo, error)
}

// SystemInterfaceProvider is the default InterfaceProvider, backed by
// the net package.
type SystemInterfaceProvider struct{}

func (SystemInterfaceProvider) Enumerate() ([]InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, reconerr.Bind("interface.enumerate", err)
	}
	out := make([]InterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		out = append(out, toInfo(iface))
	}
	return out, nil
}

func (p SystemInterfaceProvider) GetByName(name string) (InterfaceInfo, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return InterfaceInfo{}, reconerr.Config("interface.by_name", reconerr.ErrInterfaceNotFound)
	}
	return toInfo(*iface), nil
}

func (p SystemInterfaceProvider) GetByIndex(index int) (InterfaceInfo, error) {
	iface, err := net.InterfaceByIndex(index)
	if err != nil {
		return InterfaceInfo{}, reconerr.Config("interface.by_index", reconerr.ErrInterfaceNotFound)
	}
	return toInfo(*iface), nil
}

// GetDefault returns the first up, non-loopback interface with at least
// one IP address, matching the common "default route interface" heuristic.
func (p SystemInterfaceProvider) GetDefault() (InterfaceInfo, error) {
	ifaces, err := p.Enumerate()
	if err != nil {
		return InterfaceInfo{}, err
	}
	for _, info := range ifaces {
		if info.IsUp && !info.IsLoop && len(info.IPs) > 0 {
			return info, nil
		}
	}
	return InterfaceInfo{}, reconerr.Config("interface.default", reconerr.ErrInterfaceNotFound)
}

func toInfo(iface net.Interface) InterfaceInfo {
	info := InterfaceInfo{
		Name:   iface.Name,
		Index:  iface.Index,
		MAC:    iface.HardwareAddr,
		IsLoop: iface.Flags&net.FlagLoopback != 0,
		IsUp:   iface.Flags&net.FlagUp != 0,
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return info
	}
	for _, a := range addrs {
		switch v := a.(type) {
		case *net.IPNet:
			info.IPs = append(info.IPs, v.IP)
		case *net.IPAddr:
			info.IPs = append(info.IPs, v.IP)
		}
	}
	return info
}
