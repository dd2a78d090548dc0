package provision

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-engarde/pkg/model"
)

func TestRegenerateBundleKeepsEncryption(t *testing.T) {
	p, cfg, _ := testProvisioner(t)
	ctx := context.Background()

	in, err := p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)

	m := &Manager{Provisioner: p, Inputs: in, BundlePassphrase: "correct horse"}
	path, err := m.RegenerateBundle(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".age"))

	// Encrypted with the passphrase the manager carries, not cleartext.
	_, err = ReadBundle(path, "")
	require.Error(t, err)
	got, err := ReadBundle(path, "correct horse")
	require.NoError(t, err)

	id, err := p.Keys.Load(model.RoleServer)
	require.NoError(t, err)
	assert.Equal(t, id.PublicKey, got.ServerPublicKey)
}

func TestRegenerateBundleCleartextWithoutPassphrase(t *testing.T) {
	p, cfg, _ := testProvisioner(t)
	ctx := context.Background()

	in, err := p.RunServer(ctx, serverInputs(cfg))
	require.NoError(t, err)

	m := &Manager{Provisioner: p, Inputs: in}
	path, err := m.RegenerateBundle(ctx)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(path, ".age"))

	_, err = ReadBundle(path, "")
	require.NoError(t, err)
}
