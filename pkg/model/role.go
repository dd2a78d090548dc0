package model

import "fmt"

// Role selects which side of the tunnel pair a node plays. It fixes the
// artifact templates, the relay config top-level key and the port roles.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// ParseRole normalizes operator input into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "server", "s", "1":
		return RoleServer, nil
	case "client", "c", "2":
		return RoleClient, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// RelayUnit returns the systemd unit name for the relay process of a role.
func (r Role) RelayUnit() string {
	return "engarde-" + string(r)
}

// Peer returns the opposite role.
func (r Role) Peer() Role {
	if r == RoleServer {
		return RoleClient
	}
	return RoleServer
}
