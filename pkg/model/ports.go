package model

// PortAssignment maps the logical services to concrete ports, all
// derived from one base port. Assignments are validated before any
// artifact is written; an assignment in hand is known-good.
type PortAssignment struct {
	Tunnel  int `json:"tunnel"`  // WireGuard listen port (base)
	Relay   int `json:"relay"`   // engarde listen port (base+1)
	AdminUI int `json:"adminUi"` // engarde web manager (base+2)

	// Management is the reserved remote-access port the allocator must
	// never hand out (typically the SSH port).
	Management int `json:"management"`
}

// All returns the derived ports in offset order.
func (p PortAssignment) All() []int {
	return []int{p.Tunnel, p.Relay, p.AdminUI}
}
