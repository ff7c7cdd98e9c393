// Package announce makes the camera server discoverable on the local
// network. It speaks three dialects: a UDP multicast beacon, an mDNS
// service registration, and an optional MQTT presence topic.
package announce

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
)

const (
	defaultMulticastAddress = "224.0.0.214"
	defaultMulticastPort    = 54311
	beaconInterval          = 5 * time.Second
)

var (
	multicastAddress      = defaultMulticastAddress
	multicastPort         = defaultMulticastPort
	referNetworkInterface string // the specified network interface name
	listenAllInterfaces   bool   // whether to listen on all network interfaces
)

// SetMulticastAddress overrides the default multicast group if non-empty.
func SetMulticastAddress(address string) {
	if address == "" {
		return
	}
	multicastAddress = address
}

// SetMulticastPort overrides the default multicast port if positive.
func SetMulticastPort(port int) {
	if port <= 0 {
		return
	}
	multicastPort = port
}

// SetReferNetworkInterface sets the network interface to use for multicast.
// If interfaceName is empty, it will use the system default interface.
// If interfaceName is "*", it will listen on all available interfaces.
func SetReferNetworkInterface(interfaceName string) {
	if interfaceName == "*" {
		listenAllInterfaces = true
		referNetworkInterface = ""
	} else {
		listenAllInterfaces = false
		referNetworkInterface = interfaceName
	}
}

// getNetworkInterfaces returns a list of network interfaces to listen on.
// If listenAllInterfaces is true, returns all valid interfaces.
// If referNetworkInterface is set, returns only that interface.
// Otherwise, returns nil (use system default).
func getNetworkInterfaces() ([]*net.Interface, error) {
	if listenAllInterfaces {
		interfaces, err := net.Interfaces()
		if err != nil {
			return nil, fmt.Errorf("failed to get network interfaces: %v", err)
		}

		var validInterfaces []*net.Interface
		for i := range interfaces {
			iface := &interfaces[i]
			// remove tun connections.
			if tool.RejectUnsupportNetworkInterface(iface) {
				continue
			}
			validInterfaces = append(validInterfaces, iface)
		}

		if len(validInterfaces) == 0 {
			return nil, fmt.Errorf("no valid network interfaces found")
		}

		return validInterfaces, nil
	} else if referNetworkInterface != "" {
		iface, err := net.InterfaceByName(referNetworkInterface)
		if err != nil {
			return nil, fmt.Errorf("failed to get network interface %s: %v", referNetworkInterface, err)
		}
		return []*net.Interface{iface}, nil
	}

	// use the system default interface
	return []*net.Interface{nil}, nil
}

func groupAddr() (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", multicastAddress, multicastPort))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %v", err)
	}
	return addr, nil
}

// listenOnInterface answers discovery asks arriving on one interface.
func listenOnInterface(iface *net.Interface, addr *net.UDPAddr, self *types.AnnounceMessage) {
	interfaceName := "default"
	if iface != nil {
		interfaceName = iface.Name
	}

	c, err := net.ListenMulticastUDP("udp4", iface, addr)
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to listen on multicast UDP address for interface %s: %v", interfaceName, err)
		return
	}
	defer c.Close()
	c.SetReadBuffer(256 * 1024)
	buf := make([]byte, 1024*64)
	tool.DefaultLogger.Infof("Listening on multicast UDP address: %s (interface: %s)", addr.String(), interfaceName)

	for {
		n, remote, err := c.ReadFrom(buf)
		if err != nil {
			tool.DefaultLogger.Errorf("Error reading from UDP on interface %s: %v", interfaceName, err)
			return
		}
		var incoming types.AnnounceMessage
		if parseErr := sonic.Unmarshal(buf[:n], &incoming); parseErr != nil {
			tool.DefaultLogger.Errorf("Failed to parse UDP message: %v", parseErr)
			continue
		}
		// Ignore non-announce or from self broadcasts.
		if !shouldRespond(self, &incoming) {
			continue
		}
		tool.DefaultLogger.Debugf("Discovery ask from %s (%s) on interface %s", incoming.Alias, remote.String(), interfaceName)

		// Answer the asker directly. announce=false so the reply does
		// not trigger another round.
		response := *self
		response.Announce = false
		payload, marshalErr := sonic.Marshal(&response)
		if marshalErr != nil {
			tool.DefaultLogger.Errorf("Failed to marshal announce reply: %v", marshalErr)
			continue
		}
		if _, writeErr := c.WriteTo(payload, remote); writeErr != nil {
			tool.DefaultLogger.Warnf("Failed to answer discovery ask from %s: %v", remote.String(), writeErr)
		}
	}
}

// ListenMulticastUsingUDP listens for multicast UDP asks so booth
// frontends can find the server without knowing its address. Only
// responds when the remote message has announce=true and is not the
// same device.
func ListenMulticastUsingUDP(self *types.AnnounceMessage) {
	addr, err := groupAddr()
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	interfaces, err := getNetworkInterfaces()
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to get network interfaces: %v", err)
	}

	if len(interfaces) == 1 {
		listenOnInterface(interfaces[0], addr, self)
	} else {
		tool.DefaultLogger.Infof("Listening on %d network interfaces", len(interfaces))
		for _, iface := range interfaces {
			go listenOnInterface(iface, addr, self)
		}
		// block the main goroutine
		select {}
	}
}

// SendMulticastUsingUDP announces the server to the multicast group in
// a loop, redialing when the local address goes away (Wi-Fi roam,
// cable pull).
func SendMulticastUsingUDP(message *types.AnnounceMessage) error {
	addr, err := groupAddr()
	if err != nil {
		return err
	}
	var c *net.UDPConn
	dialConn := func() error {
		conn, dialErr := net.DialUDP("udp4", nil, addr)
		if dialErr != nil {
			return dialErr
		}
		if c != nil {
			_ = c.Close()
		}
		c = conn
		return nil
	}
	if err := dialConn(); err != nil {
		return fmt.Errorf("failed to dial UDP address: %v", err)
	}
	for {
		if c == nil {
			if err := dialConn(); err != nil {
				tool.DefaultLogger.Errorf("failed to dial UDP address: %v", err)
				time.Sleep(beaconInterval)
				continue
			}
		}
		payload, err := sonic.Marshal(message)
		if err != nil {
			tool.DefaultLogger.Errorf("failed to marshal message: %v", err)
			time.Sleep(beaconInterval)
			continue
		}
		_, err = c.Write(payload)
		if err != nil {
			if IsAddrNotAvailableError(err) {
				tool.DefaultLogger.Warnf("IP address not available, please check your network environment and try again: %v", err)
				_ = c.Close()
				c = nil
			} else {
				tool.DefaultLogger.Errorf("failed to write message: %v", err)
			}
		}
		time.Sleep(beaconInterval)
	}
}

// SendMulticastOnce sends a single multicast message to the group.
func SendMulticastOnce(message *types.AnnounceMessage) error {
	if message == nil {
		return fmt.Errorf("missing message")
	}
	addr, err := groupAddr()
	if err != nil {
		return err
	}
	c, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		if IsAddrNotAvailableError(err) {
			return fmt.Errorf("IP address not available, please check your network environment and try again: %w", err)
		}
		return fmt.Errorf("failed to dial UDP address: %v", err)
	}
	defer c.Close()
	payload, err := sonic.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}
	if _, err := c.Write(payload); err != nil {
		if IsAddrNotAvailableError(err) {
			return fmt.Errorf("IP address not available, please check your network environment and try again: %w", err)
		}
		return fmt.Errorf("failed to write message: %v", err)
	}
	return nil
}

// IsAddrNotAvailableError detects address-not-available errors across platforms.
func IsAddrNotAvailableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRNOTAVAIL) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't assign requested address") ||
		strings.Contains(msg, "cannot assign requested address") ||
		strings.Contains(msg, "address not available")
}

// shouldRespond determines if the server should answer the incoming message.
func shouldRespond(self *types.AnnounceMessage, incoming *types.AnnounceMessage) bool {
	if incoming == nil || !incoming.Announce {
		return false
	}
	if self != nil && self.Fingerprint != "" && incoming.Fingerprint == self.Fingerprint {
		return false
	}
	return true
}
