// Package provision runs the full idempotent provisioning pass and its
// inverse. Each pass recomputes everything from current inputs: keys
// are loaded-or-generated, artifacts are re-rendered in full, services
// re-registered. Re-running after a partial failure converges instead
// of compounding.
package provision

import (
	"context"
	"fmt"

	"wg-engarde/pkg/artifact"
	"wg-engarde/pkg/config"
	"wg-engarde/pkg/engine"
	"wg-engarde/pkg/keys"
	"wg-engarde/pkg/logging"
	"wg-engarde/pkg/model"
	"wg-engarde/pkg/ports"
	"wg-engarde/pkg/state"
	"wg-engarde/pkg/systemd"
)

// Provisioner wires the components for one provisioning run.
type Provisioner struct {
	Cfg     config.Config
	Keys    keys.Manager
	Ctl     systemd.Controller
	Fetcher engine.Fetcher
	Journal *state.Journal
}

func New(cfg config.Config) *Provisioner {
	return &Provisioner{
		Cfg:     cfg,
		Keys:    keys.Manager{Dir: cfg.KeyDir},
		Ctl:     systemd.NewController(),
		Fetcher: engine.NewFetcher(cfg.BinDir),
		Journal: state.NewJournal(cfg.JournalDB),
	}
}

// Allocator returns the port allocator configured for this host.
func (p *Provisioner) Allocator() ports.Allocator {
	return ports.Allocator{
		Min:      p.Cfg.PortMin,
		Max:      p.Cfg.PortMax,
		Reserved: p.Cfg.ManagementPort,
	}
}

// Reconciler builds the artifact reconciler for the chosen engine.
func (p *Provisioner) Reconciler(in model.Inputs) (artifact.Reconciler, error) {
	prov, err := engine.Select(in.Engine)
	if err != nil {
		return artifact.Reconciler{}, err
	}
	return artifact.Reconciler{
		Interface:     p.Cfg.Interface,
		TunnelConf:    p.Cfg.TunnelConf,
		RelayConf:     p.Cfg.RelayConf,
		UnitDir:       p.Cfg.UnitDir,
		RelayExecPath: p.Cfg.BinDir + "/" + prov.BinaryName(in.Role),
		TunnelUnit:    p.Cfg.TunnelUnit(),
	}, nil
}

// Identities resolves the key material a render needs for in.Role.
func (p *Provisioner) Identities(in model.Inputs) (model.Identities, error) {
	local, err := p.Keys.Load(in.Role)
	if err != nil {
		return model.Identities{}, fmt.Errorf("%w: identity for %s: %v", model.ErrMissingConfig, in.Role, err)
	}
	peerPub, err := p.Keys.LoadPeerPublicKey(in.Role)
	if err != nil {
		return model.Identities{}, err
	}
	return model.Identities{Local: local, PeerPublicKey: peerPub}, nil
}

// RunServer provisions the server role end to end. Safe to re-run: an
// existing identity and installed binary are reused, artifacts are
// replaced whole.
func (p *Provisioner) RunServer(ctx context.Context, in model.Inputs) (model.Inputs, error) {
	assignment, err := p.Allocator().Assign(in.BasePort)
	if err != nil {
		return in, err
	}
	in.Ports = assignment

	prov, err := engine.Select(in.Engine)
	if err != nil {
		return in, err
	}
	if _, err := p.Fetcher.Ensure(ctx, prov, in.Role); err != nil {
		return in, err
	}

	// The server mints both identities; the client's travels in the
	// bundle, never over the tunnel.
	serverID, err := p.Keys.EnsureIdentity(model.RoleServer)
	if err != nil {
		return in, err
	}
	clientID, err := p.Keys.EnsureIdentity(model.RoleClient)
	if err != nil {
		return in, err
	}

	ids := model.Identities{Local: serverID, PeerPublicKey: clientID.PublicKey}
	if err := p.converge(ctx, in, ids); err != nil {
		return in, err
	}
	p.Journal.Record(string(in.Role), "provision", fmt.Sprintf("base=%d engine=%s", in.BasePort, in.Engine))
	return in, nil
}

// RunClient provisions the client role from a distributable bundle
// produced on the server.
func (p *Provisioner) RunClient(ctx context.Context, b Bundle, engineName string) (model.Inputs, error) {
	in := b.Inputs(engineName)
	assignment, err := p.Allocator().Assign(in.BasePort)
	if err != nil {
		return in, err
	}
	in.Ports = assignment

	prov, err := engine.Select(in.Engine)
	if err != nil {
		return in, err
	}
	if _, err := p.Fetcher.Ensure(ctx, prov, in.Role); err != nil {
		return in, err
	}

	clientID, err := p.Keys.ImportIdentity(model.RoleClient, b.ClientPrivateKey)
	if err != nil {
		return in, err
	}
	if err := p.Keys.ImportPeerPublicKey(model.RoleClient, b.ServerPublicKey); err != nil {
		return in, err
	}

	ids := model.Identities{Local: clientID, PeerPublicKey: b.ServerPublicKey}
	if err := p.converge(ctx, in, ids); err != nil {
		return in, err
	}
	p.Journal.Record(string(in.Role), "provision", fmt.Sprintf("endpoint=%s engine=%s", in.Endpoint, in.Engine))
	return in, nil
}

// converge renders and installs artifacts, registers services and
// records completion. Order matters: the marker is written last so a
// failure anywhere leaves the detector reporting NotProvisioned.
func (p *Provisioner) converge(ctx context.Context, in model.Inputs, ids model.Identities) error {
	rec, err := p.Reconciler(in)
	if err != nil {
		return err
	}
	set, err := rec.Render(in, ids)
	if err != nil {
		return err
	}
	if err := rec.WriteAll(set); err != nil {
		return err
	}
	if err := state.SaveInputs(p.Cfg.InputsPath(), in); err != nil {
		return fmt.Errorf("save inputs: %w", err)
	}

	if err := p.Ctl.Install(ctx); err != nil {
		return err
	}
	for _, unit := range []string{p.Cfg.TunnelUnit(), in.Role.RelayUnit()} {
		if err := p.Ctl.Enable(ctx, unit); err != nil {
			return err
		}
		if err := p.Ctl.Restart(ctx, unit); err != nil {
			return err
		}
	}
	if err := state.WriteMarker(p.Cfg.MarkerPath); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	logging.L().Infof("%s provisioned: tunnel=%d relay=%d admin-ui=%d",
		in.Role, in.Ports.Tunnel, in.Ports.Relay, in.Ports.AdminUI)
	return nil
}

// Remove tears everything down: services, artifacts, key material,
// marker and saved inputs. After it returns the node must pass through
// full provisioning again.
func (p *Provisioner) Remove(ctx context.Context, in model.Inputs) error {
	rec, err := p.Reconciler(in)
	if err != nil {
		return err
	}
	for _, unit := range []string{in.Role.RelayUnit(), p.Cfg.TunnelUnit()} {
		if err := p.Ctl.Remove(ctx, unit); err != nil {
			return err
		}
	}
	if err := rec.RemoveAll(model.ArtifactSet{
		Tunnel:    model.Artifact{Name: "tunnel", Path: rec.TunnelConf},
		Relay:     model.Artifact{Name: "relay", Path: rec.RelayConf},
		RelayUnit: model.Artifact{Name: "relay-unit", Path: rec.UnitDir + "/" + in.Role.RelayUnit() + ".service"},
	}); err != nil {
		return err
	}
	if err := p.Keys.Remove(); err != nil {
		return fmt.Errorf("remove key material: %w", err)
	}
	if err := state.RemoveMarker(p.Cfg.MarkerPath); err != nil {
		return fmt.Errorf("remove marker: %w", err)
	}
	if err := state.RemoveMarker(p.Cfg.InputsPath()); err != nil {
		return fmt.Errorf("remove inputs: %w", err)
	}
	p.Journal.Record(string(in.Role), "remove", "teardown complete")
	logging.L().Infof("%s removed", in.Role)
	return nil
}
