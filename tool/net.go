package tool

import "net"

// RejectUnsupportNetworkInterface reports whether an interface is
// unusable for the UDP presence beacon: down, loopback, point-to-point
// tunnels, multicast-incapable or carrying no IPv4 address.
func RejectUnsupportNetworkInterface(iface *net.Interface) bool {
	switch {
	case iface.Flags&net.FlagUp == 0,
		iface.Flags&net.FlagLoopback != 0,
		iface.Flags&net.FlagPointToPoint != 0,
		iface.Flags&net.FlagMulticast == 0:
		return true
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return true
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
			return false
		}
	}
	return true
}

// GetLocalIPv4Set lists the host's non-loopback IPv4 addresses. The QR
// and status endpoints use it to tell guests where the booth lives.
func GetLocalIPv4Set() map[string]struct{} {
	out := make(map[string]struct{})
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return out
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil && !v4.IsLoopback() {
			out[v4.String()] = struct{}{}
		}
	}
	return out
}
