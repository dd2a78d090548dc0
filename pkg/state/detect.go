// Package state answers "is this node provisioned" and keeps the small
// amount of on-disk state that is not an artifact: the provisioning
// marker, the saved operator inputs and the action journal.
package state

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wg-engarde/pkg/model"
)

// EnabledQuerier is the slice of the lifecycle controller the detector
// needs.
type EnabledQuerier interface {
	IsEnabled(ctx context.Context, unit string) (bool, error)
}

// Detector recomputes the installation state from live service
// registration plus the marker file. All three signals must agree;
// any partial state reports NotProvisioned so the caller re-runs the
// idempotent provisioning pass instead of guessing.
type Detector struct {
	Ctl        EnabledQuerier
	TunnelUnit string
	RelayUnit  string
	MarkerPath string
}

// State derives the current installation state. Query failures count
// as "not enabled": a service manager that cannot answer is not a
// provisioned system.
func (d Detector) State(ctx context.Context) model.InstallState {
	tunnelEnabled, err := d.Ctl.IsEnabled(ctx, d.TunnelUnit)
	if err != nil || !tunnelEnabled {
		return model.NotProvisioned
	}
	relayEnabled, err := d.Ctl.IsEnabled(ctx, d.RelayUnit)
	if err != nil || !relayEnabled {
		return model.NotProvisioned
	}
	if _, err := os.Stat(d.MarkerPath); err != nil {
		return model.NotProvisioned
	}
	return model.Provisioned
}

// WriteMarker records that a full provisioning pass completed. Written
// last, after services are registered.
func WriteMarker(path string) error {
	return os.WriteFile(path, []byte("provisioned\n"), 0o600)
}

// RemoveMarker forgets the marker on teardown.
func RemoveMarker(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveInputs persists the operator-chosen inputs so console actions can
// re-render from typed state.
func SaveInputs(path string, in model.Inputs) error {
	out, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadInputs reads them back. A missing file is a MissingConfig error:
// the console cannot operate without the provisioning record.
func LoadInputs(path string) (model.Inputs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Inputs{}, fmt.Errorf("%w: %s: %v", model.ErrMissingConfig, path, err)
	}
	var in model.Inputs
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return model.Inputs{}, fmt.Errorf("parse inputs %s: %w", path, err)
	}
	if in.Role != model.RoleServer && in.Role != model.RoleClient {
		return model.Inputs{}, fmt.Errorf("%w: inputs missing role", model.ErrMissingConfig)
	}
	return in, nil
}
