package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-engarde/pkg/config"
	"wg-engarde/pkg/engine"
	"wg-engarde/pkg/keys"
	"wg-engarde/pkg/model"
	"wg-engarde/pkg/state"
	"wg-engarde/pkg/systemd"
)

// fakeSystemctl remembers which units were enabled so the detector can
// be exercised against the same state the provisioner produced.
type fakeSystemctl struct {
	enabled map[string]bool
	calls   [][]string
}

func (f *fakeSystemctl) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	if len(args) == 0 {
		return "", nil
	}
	switch args[0] {
	case "enable":
		f.enabled[args[1]] = true
	case "disable":
		delete(f.enabled, args[1])
	case "is-enabled":
		if f.enabled[args[1]] {
			return "enabled", nil
		}
		return "disabled", nil
	}
	return "", nil
}

func testProvisioner(t *testing.T) (*Provisioner, config.Config, *fakeSystemctl) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		ConfigDir:        filepath.Join(dir, "etc"),
		KeyDir:           filepath.Join(dir, "etc", "keys"),
		MarkerPath:       filepath.Join(dir, "etc", ".provisioned"),
		JournalDB:        filepath.Join(dir, "var", "state.db"),
		BinDir:           filepath.Join(dir, "bin"),
		Interface:        "wg0",
		TunnelConf:       filepath.Join(dir, "wireguard", "wg0.conf"),
		RelayConf:        filepath.Join(dir, "etc", "engarde.yml"),
		UnitDir:          filepath.Join(dir, "units"),
		BasePort:         39000,
		ManagementPort:   22,
		PortMin:          1024,
		PortMax:          65535,
		ServerIP:         "10.99.0.1",
		ClientIP:         "10.99.0.2",
		CIDRBits:         24,
		MTU:              1360,
		ClientTimeoutSec: 30,
		WriteTimeoutMS:   10,
	}
	require.NoError(t, os.MkdirAll(cfg.ConfigDir, 0o755))

	// Pre-install both binaries so the fetcher never leaves the host.
	require.NoError(t, os.MkdirAll(cfg.BinDir, 0o755))
	for _, name := range []string{"engarde-server", "engarde-client"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.BinDir, name), []byte("#!"), 0o755))
	}

	fake := &fakeSystemctl{enabled: map[string]bool{}}
	p := &Provisioner{
		Cfg:     cfg,
		Keys:    keys.Manager{Dir: cfg.KeyDir},
		Ctl:     systemd.Controller{Runner: fake},
		Fetcher: engine.NewFetcher(cfg.BinDir),
		Journal: state.NewJournal(cfg.JournalDB),
	}
	t.Cleanup(p.Journal.Close)
	return p, cfg, fake
}

func serverInputs(cfg config.Config) model.Inputs {
	return model.Inputs{
		Role:     model.RoleServer,
		Engine:   "go",
		Endpoint: "203.0.113.7",
		BasePort: cfg.BasePort,
		Network: model.Network{
			ServerIP: cfg.ServerIP, ClientIP: cfg.ClientIP, CIDRBits: cfg.CIDRBits, MTU: cfg.MTU,
		},
		WebManager:       model.WebManager{Username: "engarde", Password: "secret"},
		ClientTimeoutSec: cfg.ClientTimeoutSec,
		WriteTimeoutMS:   cfg.WriteTimeoutMS,
	}
}

func TestRunServerConverges(t *testing.T) {
	p, cfg, fake := testProvisioner(t)
	ctx := context.Background()

	in, err := p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)
	assert.Equal(t, 39000, in.Ports.Tunnel)
	assert.Equal(t, 39001, in.Ports.Relay)
	assert.Equal(t, 39002, in.Ports.AdminUI)

	for _, path := range []string{cfg.TunnelConf, cfg.RelayConf, cfg.MarkerPath, cfg.InputsPath()} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	assert.True(t, fake.enabled["wg-quick@wg0"])
	assert.True(t, fake.enabled["engarde-server"])

	d := state.Detector{
		Ctl:        p.Ctl,
		TunnelUnit: cfg.TunnelUnit(),
		RelayUnit:  in.Role.RelayUnit(),
		MarkerPath: cfg.MarkerPath,
	}
	assert.Equal(t, model.Provisioned, d.State(ctx))
}

func TestRunServerIsIdempotent(t *testing.T) {
	p, cfg, _ := testProvisioner(t)
	ctx := context.Background()

	_, err := p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)
	firstConf, err := os.ReadFile(cfg.TunnelConf)
	require.NoError(t, err)
	firstKey, err := p.Keys.Load(model.RoleServer)
	require.NoError(t, err)

	_, err = p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)
	secondConf, err := os.ReadFile(cfg.TunnelConf)
	require.NoError(t, err)
	secondKey, err := p.Keys.Load(model.RoleServer)
	require.NoError(t, err)

	assert.Equal(t, firstConf, secondConf, "re-provisioning must not change artifacts")
	assert.Equal(t, firstKey.PrivateKey, secondKey.PrivateKey, "re-provisioning must not rotate keys")
}

func TestRunServerRejectsBadBasePort(t *testing.T) {
	p, cfg, fake := testProvisioner(t)
	in := serverInputs(cfg)
	in.BasePort = 21 // relay port would collide with the management port

	_, err := p.RunServer(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, fake.calls, "no service-manager calls before validation passes")
	_, statErr := os.Stat(cfg.TunnelConf)
	assert.True(t, os.IsNotExist(statErr), "no artifacts written on rejection")
}

func TestClientProvisionFromBundle(t *testing.T) {
	server, serverCfg, _ := testProvisioner(t)
	ctx := context.Background()

	in, err := server.RunServer(ctx, serverInputs(serverCfg))
	require.NoError(t, err)
	bundle, err := server.NewBundle(in)
	require.NoError(t, err)

	client, clientCfg, fake := testProvisioner(t)
	got, err := client.RunClient(ctx, bundle, "go")
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, got.Role)
	assert.True(t, fake.enabled["engarde-client"])

	conf, err := os.ReadFile(clientCfg.TunnelConf)
	require.NoError(t, err)
	assert.Contains(t, string(conf), "PublicKey = "+bundle.ServerPublicKey)
	assert.Contains(t, string(conf), "PrivateKey = "+bundle.ClientPrivateKey)

	// The client's stored identity matches what the server minted.
	id, err := client.Keys.Load(model.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, bundle.ClientPublicKey, id.PublicKey)
}

func TestRemoveTearsDown(t *testing.T) {
	p, cfg, fake := testProvisioner(t)
	ctx := context.Background()

	in, err := p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)
	require.NoError(t, p.Remove(ctx, in))

	for _, path := range []string{cfg.TunnelConf, cfg.RelayConf, cfg.MarkerPath, cfg.InputsPath(), cfg.KeyDir} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), path)
	}
	assert.False(t, fake.enabled["engarde-server"])
	assert.False(t, fake.enabled["wg-quick@wg0"])

	d := state.Detector{
		Ctl:        p.Ctl,
		TunnelUnit: cfg.TunnelUnit(),
		RelayUnit:  in.Role.RelayUnit(),
		MarkerPath: cfg.MarkerPath,
	}
	assert.Equal(t, model.NotProvisioned, d.State(ctx))
}
