package portcheck

import (
	"fmt"
	"net"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// Scanner checks whether specific ports can still be bound on the host.
//
// It asks the OS directly through net.Listen / net.ListenPacket rather
// than parsing /proc/net/* or shelling out to lsof, which may require
// elevated permissions. The struct is stateless; it exists as a
// receiver so options like a custom bind address can be added without
// breaking the API.
type Scanner struct{}

// NewScanner creates a new Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable reports whether the port can be bound for the given
// protocol ("tcp" or "udp"). The probe binds on all interfaces because
// compose publishes on 0.0.0.0 by default, and closes the listener
// immediately.
func (s *Scanner) IsPortAvailable(port int, protocol string) bool {
	addr := fmt.Sprintf(":%d", port)

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = listener.Close() }()
		return true

	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		return true

	default:
		// Unknown protocol: treat as unavailable to fail safe.
		return false
	}
}

// Check probes every binding and returns the subset whose host port is
// already in use.
func (s *Scanner) Check(bindings []model.PortBinding) []model.PortBinding {
	var conflicts []model.PortBinding
	for _, b := range bindings {
		protocol := b.Protocol
		if protocol == "" {
			protocol = "tcp"
		}
		if !s.IsPortAvailable(b.HostPort, protocol) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
