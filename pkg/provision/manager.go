package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"wg-engarde/pkg/model"
	"wg-engarde/pkg/policy"
	"wg-engarde/pkg/state"
)

// Manager backs the management console: every action re-reads or
// re-renders from the saved inputs, loaded once at entry.
type Manager struct {
	*Provisioner
	Inputs model.Inputs

	// BundlePassphrase, when set, encrypts regenerated bundles.
	BundlePassphrase string
}

// NewManager loads the saved inputs and wraps the provisioner for
// console use.
func NewManager(p *Provisioner) (*Manager, error) {
	in, err := state.LoadInputs(p.Cfg.InputsPath())
	if err != nil {
		return nil, err
	}
	return &Manager{Provisioner: p, Inputs: in}, nil
}

// TunnelStatus reports the live WireGuard device state. Falls back to
// the service manager's view when the kernel interface is not
// queryable.
func (m *Manager) TunnelStatus(ctx context.Context) (string, error) {
	client, err := wgctrl.New()
	if err == nil {
		defer client.Close()
		if dev, derr := client.Device(m.Cfg.Interface); derr == nil {
			return formatDevice(dev), nil
		}
	}
	return m.Ctl.Status(ctx, m.Cfg.TunnelUnit())
}

// RelayStatus reports the relay unit state.
func (m *Manager) RelayStatus(ctx context.Context) (string, error) {
	return m.Ctl.Status(ctx, m.Inputs.Role.RelayUnit())
}

func (m *Manager) RestartTunnel(ctx context.Context) error {
	m.Journal.Record(string(m.Inputs.Role), "restart", "tunnel")
	return m.Ctl.Restart(ctx, m.Cfg.TunnelUnit())
}

func (m *Manager) RestartRelay(ctx context.Context) error {
	m.Journal.Record(string(m.Inputs.Role), "restart", "relay")
	return m.Ctl.Restart(ctx, m.Inputs.Role.RelayUnit())
}

// SetForwarding toggles the forwarding policy and restarts the
// affected services when artifacts changed.
func (m *Manager) SetForwarding(ctx context.Context, enabled bool) (bool, error) {
	rec, err := m.Reconciler(m.Inputs)
	if err != nil {
		return false, err
	}
	ids, err := m.Identities(m.Inputs)
	if err != nil {
		return false, err
	}
	toggle := policy.Toggle{Rec: rec}

	var changed bool
	if enabled {
		changed, err = toggle.Enable(&m.Inputs, ids)
	} else {
		changed, err = toggle.Disable(&m.Inputs, ids)
	}
	if err != nil || !changed {
		return changed, err
	}

	if err := state.SaveInputs(m.Cfg.InputsPath(), m.Inputs); err != nil {
		return true, fmt.Errorf("save inputs: %w", err)
	}
	m.Journal.Record(string(m.Inputs.Role), "forwarding", fmt.Sprintf("enabled=%v", enabled))
	for _, unit := range []string{m.Cfg.TunnelUnit(), m.Inputs.Role.RelayUnit()} {
		if err := m.Ctl.Restart(ctx, unit); err != nil {
			return true, err
		}
	}
	return true, nil
}

// RegenerateBundle rebuilds the client bundle from current state.
func (m *Manager) RegenerateBundle(_ context.Context) (string, error) {
	b, err := m.NewBundle(m.Inputs)
	if err != nil {
		return "", err
	}
	path := m.Cfg.ConfigDir + "/client-bundle.yml"
	if m.BundlePassphrase != "" {
		path += ".age"
	}
	if err := WriteBundle(path, b, m.BundlePassphrase); err != nil {
		return "", err
	}
	m.Journal.Record(string(m.Inputs.Role), "bundle", path)
	return path, nil
}

// RemoveAll tears the installation down.
func (m *Manager) RemoveAll(ctx context.Context) error {
	return m.Remove(ctx, m.Inputs)
}

func formatDevice(dev *wgtypes.Device) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface: %s", dev.Name)
	if dev.ListenPort > 0 {
		fmt.Fprintf(&b, " (listen %d)", dev.ListenPort)
	}
	for _, peer := range dev.Peers {
		fmt.Fprintf(&b, "\npeer: %s", peer.PublicKey)
		if peer.Endpoint != nil {
			fmt.Fprintf(&b, "\n  endpoint: %s", peer.Endpoint)
		}
		if !peer.LastHandshakeTime.IsZero() {
			fmt.Fprintf(&b, "\n  latest handshake: %s ago", time.Since(peer.LastHandshakeTime).Round(time.Second))
		}
		fmt.Fprintf(&b, "\n  transfer: %d received, %d sent", peer.ReceiveBytes, peer.TransmitBytes)
	}
	return b.String()
}
