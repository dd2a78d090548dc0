package model

// Network carries the tunnel addressing chosen at provisioning time.
type Network struct {
	ServerIP string `json:"serverIp" yaml:"serverIp"` // tunnel address of the server, e.g. 10.99.0.1
	ClientIP string `json:"clientIp" yaml:"clientIp"` // tunnel address of the client, e.g. 10.99.0.2
	CIDRBits int    `json:"cidrBits" yaml:"cidrBits"` // tunnel subnet mask length
	MTU      int    `json:"mtu" yaml:"mtu"`
}

// WebManager is the relay's administrative UI binding.
type WebManager struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Inputs is the complete set of operator-chosen provisioning inputs.
// It is persisted once under the config dir and re-read by the
// management console, so every re-render starts from the same typed
// state instead of parsing live files.
type Inputs struct {
	Role       Role           `json:"role" yaml:"role"`
	Engine     string         `json:"engine" yaml:"engine"`     // relay build: "go" or "rust"
	Endpoint   string         `json:"endpoint" yaml:"endpoint"` // server public host (client role)
	BasePort   int            `json:"basePort" yaml:"basePort"`
	Ports      PortAssignment `json:"ports" yaml:"ports"`
	Network    Network        `json:"network" yaml:"network"`
	WebManager WebManager     `json:"webManager" yaml:"webManager"`
	Policy     PolicyState    `json:"policy" yaml:"policy"`

	// Relay tuning, matching the relay's own config schema.
	ClientTimeoutSec int `json:"clientTimeoutSec" yaml:"clientTimeoutSec"`
	WriteTimeoutMS   int `json:"writeTimeoutMs" yaml:"writeTimeoutMs"`
}
