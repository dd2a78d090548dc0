package artifact

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"wg-engarde/pkg/model"
)

// relayConfig mirrors the schema the relay binary parses. Field order
// is fixed by the struct, keeping renders byte-stable.
type relayConfig struct {
	Description          string    `yaml:"description"`
	ListenAddr           string    `yaml:"listenAddr"`
	DstAddr              string    `yaml:"dstAddr"`
	WriteTimeout         int       `yaml:"writeTimeout,omitempty"`
	ClientTimeout        int       `yaml:"clientTimeout,omitempty"`
	ExcludedInterfaces   []string  `yaml:"excludedInterfaces,omitempty"`
	AggregationAlgorithm int       `yaml:"aggregationAlgorithm,omitempty"`
	WebManager           *relayWeb `yaml:"webManager,omitempty"`
	PostUpExtra          string    `yaml:"postUpExtra,omitempty"`
}

type relayWeb struct {
	ListenAddr string `yaml:"listenAddr"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
}

// renderRelay produces the engarde YAML for a role. The server relay
// accepts client paths and hands datagrams to the local tunnel port;
// the client relay listens locally for the tunnel and duplicates
// outward to the server.
func renderRelay(in model.Inputs, iface string) ([]byte, error) {
	cfg := relayConfig{
		Description:  "wg-engarde " + string(in.Role),
		WriteTimeout: in.WriteTimeoutMS,
		WebManager: &relayWeb{
			Username: in.WebManager.Username,
			Password: in.WebManager.Password,
		},
	}
	switch in.Role {
	case model.RoleServer:
		cfg.ListenAddr = fmt.Sprintf("0.0.0.0:%d", in.Ports.Relay)
		cfg.DstAddr = fmt.Sprintf("127.0.0.1:%d", in.Ports.Tunnel)
		cfg.ClientTimeout = in.ClientTimeoutSec
		cfg.WebManager.ListenAddr = fmt.Sprintf("0.0.0.0:%d", in.Ports.AdminUI)
		if in.Policy.ForwardingEnabled {
			cfg.PostUpExtra = forwardScript(in, "-A")
		}
	default:
		cfg.ListenAddr = fmt.Sprintf("127.0.0.1:%d", in.Ports.Relay)
		cfg.DstAddr = fmt.Sprintf("%s:%d", in.Endpoint, in.Ports.Relay)
		cfg.ExcludedInterfaces = []string{iface}
		cfg.AggregationAlgorithm = 1 // mirror-all
		cfg.WebManager.ListenAddr = fmt.Sprintf("127.0.0.1:%d", in.Ports.AdminUI)
	}

	doc := map[string]relayConfig{string(in.Role): cfg}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal relay config: %w", err)
	}
	return out, nil
}
