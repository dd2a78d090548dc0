package model

// PolicyState is the optional forwarding policy embedded in the server
// artifacts: when enabled, inbound traffic on the server is forwarded
// to the client's tunnel address. It is an additive clause toggled by
// full re-render, never by textual patching.
type PolicyState struct {
	ForwardingEnabled bool   `json:"forwardingEnabled" yaml:"forwardingEnabled"`
	ClientTunnelIP    string `json:"clientTunnelIp" yaml:"clientTunnelIp"`
}
