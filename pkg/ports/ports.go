// Package ports derives the service port set from a single base port.
// The derivation is pure: the same base always yields the same
// assignment, which is what makes re-provisioning safe against
// published firewall rules.
package ports

import (
	"fmt"

	"wg-engarde/pkg/model"
)

// Offsets from the base port, in logical-service order.
const (
	offsetTunnel  = 0
	offsetRelay   = 1
	offsetAdminUI = 2
)

// Allocator validates and derives port assignments.
type Allocator struct {
	Min      int // lowest acceptable port, inclusive
	Max      int // highest acceptable port, inclusive
	Reserved int // management-access port, never assigned
}

// Assign derives tunnel/relay/admin-ui ports from base. Any derived
// port outside [Min,Max] or colliding with the reserved port rejects
// the whole base; ports are never shifted around a conflict.
func (a Allocator) Assign(base int) (model.PortAssignment, error) {
	assignment := model.PortAssignment{
		Tunnel:     base + offsetTunnel,
		Relay:      base + offsetRelay,
		AdminUI:    base + offsetAdminUI,
		Management: a.Reserved,
	}
	for _, p := range assignment.All() {
		if p < a.Min || p > a.Max {
			return model.PortAssignment{}, fmt.Errorf("%w: port %d outside %d-%d (base %d)",
				model.ErrInvalidInput, p, a.Min, a.Max, base)
		}
		if p == a.Reserved {
			return model.PortAssignment{}, fmt.Errorf("%w: port %d collides with reserved management port (base %d)",
				model.ErrInvalidInput, p, base)
		}
	}
	return assignment, nil
}
