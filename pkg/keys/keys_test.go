package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"wg-engarde/pkg/model"
)

func TestEnsureIdentityStable(t *testing.T) {
	m := Manager{Dir: t.TempDir()}

	first, err := m.EnsureIdentity(model.RoleServer)
	require.NoError(t, err)
	require.NotEmpty(t, first.PrivateKey)
	require.NotEmpty(t, first.PublicKey)

	second, err := m.EnsureIdentity(model.RoleServer)
	require.NoError(t, err)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
	assert.Equal(t, first.PublicKey, second.PublicKey)
}

func TestEnsureIdentityPerRole(t *testing.T) {
	m := Manager{Dir: t.TempDir()}

	server, err := m.EnsureIdentity(model.RoleServer)
	require.NoError(t, err)
	client, err := m.EnsureIdentity(model.RoleClient)
	require.NoError(t, err)
	assert.NotEqual(t, server.PrivateKey, client.PrivateKey)
}

func TestEnsureIdentityRegeneratesAfterRemove(t *testing.T) {
	m := Manager{Dir: filepath.Join(t.TempDir(), "keys")}

	first, err := m.EnsureIdentity(model.RoleClient)
	require.NoError(t, err)
	require.NoError(t, m.Remove())

	second, err := m.EnsureIdentity(model.RoleClient)
	require.NoError(t, err)
	assert.NotEqual(t, first.PrivateKey, second.PrivateKey)
}

func TestLoadRederivesPublicKey(t *testing.T) {
	dir := t.TempDir()
	m := Manager{Dir: dir}

	id, err := m.EnsureIdentity(model.RoleServer)
	require.NoError(t, err)

	// A stale .pub file must not win over the private key.
	other, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.pub"), []byte(other.PublicKey().String()+"\n"), 0o600))

	loaded, err := m.Load(model.RoleServer)
	require.NoError(t, err)
	assert.Equal(t, id.PublicKey, loaded.PublicKey)
}

func TestImportIdentityRefusesOverwrite(t *testing.T) {
	m := Manager{Dir: t.TempDir()}

	existing, err := m.EnsureIdentity(model.RoleClient)
	require.NoError(t, err)

	fresh, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	got, err := m.ImportIdentity(model.RoleClient, fresh.String())
	require.NoError(t, err)
	assert.Equal(t, existing.PrivateKey, got.PrivateKey, "import must not replace an existing identity")
}

func TestImportPeerPublicKey(t *testing.T) {
	m := Manager{Dir: t.TempDir()}

	priv, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PublicKey().String()

	require.NoError(t, m.ImportPeerPublicKey(model.RoleClient, pub))
	got, err := m.LoadPeerPublicKey(model.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	err = m.ImportPeerPublicKey(model.RoleClient, "not-a-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLoadPeerPublicKeyMissing(t *testing.T) {
	m := Manager{Dir: t.TempDir()}

	_, err := m.LoadPeerPublicKey(model.RoleServer)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingConfig)
}
