// Package artifact computes the full configuration state for one role
// and installs it as whole documents. Nothing here edits files in
// place: every change is a re-render from typed inputs followed by an
// atomic replace, so a crashed run never leaves a half-written config.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"wg-engarde/pkg/model"
)

// Reconciler renders and writes the artifact set. Paths and the relay
// binary location come from the tool config at construction.
type Reconciler struct {
	Interface     string // WireGuard interface name
	TunnelConf    string // destination of the wg-quick config
	RelayConf     string // destination of the engarde YAML
	UnitDir       string // systemd unit directory
	RelayExecPath string // absolute path of the relay binary
	TunnelUnit    string // unit name managing the tunnel (ordering dep)
}

// Render computes the complete ArtifactSet from current inputs and
// identities. Pure: equal inputs produce byte-identical sets.
func (r Reconciler) Render(in model.Inputs, ids model.Identities) (model.ArtifactSet, error) {
	if ids.Local.PrivateKey == "" || ids.PeerPublicKey == "" {
		return model.ArtifactSet{}, fmt.Errorf("%w: identities incomplete", model.ErrMissingConfig)
	}
	relay, err := renderRelay(in, r.Interface)
	if err != nil {
		return model.ArtifactSet{}, err
	}
	unitName := in.Role.RelayUnit() + ".service"
	return model.ArtifactSet{
		Tunnel: model.Artifact{
			Name:    "tunnel",
			Path:    r.TunnelConf,
			Mode:    0o600,
			Content: []byte(renderTunnel(in, ids)),
		},
		Relay: model.Artifact{
			Name:    "relay",
			Path:    r.RelayConf,
			Mode:    0o600,
			Content: relay,
		},
		RelayUnit: model.Artifact{
			Name:    "relay-unit",
			Path:    filepath.Join(r.UnitDir, unitName),
			Mode:    0o644,
			Content: []byte(renderUnit(in.Role, r.RelayExecPath, r.RelayConf, r.TunnelUnit)),
		},
	}, nil
}

// WriteAll installs every artifact in the set atomically: full content
// to a temp file in the destination directory, then rename over the
// old document.
func (r Reconciler) WriteAll(set model.ArtifactSet) error {
	for _, a := range set.List() {
		if err := writeAtomic(a); err != nil {
			return fmt.Errorf("write %s artifact: %w", a.Name, err)
		}
	}
	return nil
}

// RemoveAll deletes the installed artifacts on teardown.
func (r Reconciler) RemoveAll(set model.ArtifactSet) error {
	for _, a := range set.List() {
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s artifact: %w", a.Name, err)
		}
	}
	return nil
}

func writeAtomic(a model.Artifact) error {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := a.Path + ".tmp"
	if err := os.WriteFile(tmp, a.Content, os.FileMode(a.Mode)); err != nil {
		return err
	}
	if err := os.Rename(tmp, a.Path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
