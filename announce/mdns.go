package announce

import (
	"fmt"
	"net"

	"github.com/enbility/zeroconf/v2"

	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
)

const (
	mdnsService = "_godslr._tcp"
	mdnsDomain  = "local."
)

// StartMDNS registers the server as an mDNS service so frontends can
// resolve it by name instead of an address. The returned function
// shuts the advertisement down.
func StartMDNS(self *types.AnnounceMessage) (func(), error) {
	txt := []string{
		"alias=" + self.Alias,
		"version=" + self.Version,
		"model=" + self.DeviceModel,
		"fingerprint=" + self.Fingerprint,
		"protocol=" + self.Protocol,
	}

	var ifaces []net.Interface
	if referNetworkInterface != "" {
		iface, err := net.InterfaceByName(referNetworkInterface)
		if err != nil {
			return nil, fmt.Errorf("failed to get network interface %s: %v", referNetworkInterface, err)
		}
		ifaces = []net.Interface{*iface}
	}

	server, err := zeroconf.Register(self.Alias, mdnsService, mdnsDomain, self.Port, txt, ifaces)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	tool.DefaultLogger.Infof("mDNS service registered: %s.%s.%s", self.Alias, mdnsService, mdnsDomain)
	return server.Shutdown, nil
}
