// Package keys owns the asymmetric key material identifying each node.
// No other package writes under the key directory.
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"wg-engarde/pkg/model"
)

// Manager persists one keypair per role under Dir.
type Manager struct {
	Dir string
}

func (m Manager) privPath(role model.Role) string {
	return filepath.Join(m.Dir, string(role)+".key")
}

func (m Manager) pubPath(role model.Role) string {
	return filepath.Join(m.Dir, string(role)+".pub")
}

// EnsureIdentity returns the stored identity for role, generating and
// persisting a fresh keypair only when none exists. An existing private
// key is never regenerated: the paired node trusts the public half, and
// replacing it would break connectivity without any error surfacing.
func (m Manager) EnsureIdentity(role model.Role) (model.Identity, error) {
	if id, err := m.Load(role); err == nil {
		return id, nil
	} else if !os.IsNotExist(err) {
		return model.Identity{}, err
	}

	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return model.Identity{}, &model.ExternalCommandError{Op: "keygen", Target: string(role), Err: err}
	}
	id := model.Identity{
		Role:       role,
		PrivateKey: priv.String(),
		PublicKey:  priv.PublicKey().String(),
	}
	if err := m.persist(id); err != nil {
		return model.Identity{}, err
	}
	return id, nil
}

// Load reads an existing identity. The public key is re-derived from
// the private key so a stale .pub file cannot advertise a mismatched
// half.
func (m Manager) Load(role model.Role) (model.Identity, error) {
	raw, err := os.ReadFile(m.privPath(role))
	if err != nil {
		return model.Identity{}, err
	}
	priv, err := wgtypes.ParseKey(strings.TrimSpace(string(raw)))
	if err != nil {
		return model.Identity{}, fmt.Errorf("parse %s private key: %w", role, err)
	}
	return model.Identity{
		Role:       role,
		PrivateKey: priv.String(),
		PublicKey:  priv.PublicKey().String(),
	}, nil
}

// LoadPeerPublicKey reads the peer's public key as previously imported
// or generated on this node.
func (m Manager) LoadPeerPublicKey(role model.Role) (string, error) {
	raw, err := os.ReadFile(m.pubPath(role.Peer()))
	if err != nil {
		return "", fmt.Errorf("%w: peer public key for %s missing", model.ErrMissingConfig, role.Peer())
	}
	key, err := wgtypes.ParseKey(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", fmt.Errorf("parse %s public key: %w", role.Peer(), err)
	}
	return key.String(), nil
}

// ImportPeerPublicKey stores the opposite role's public key, validated.
func (m Manager) ImportPeerPublicKey(role model.Role, pub string) error {
	key, err := wgtypes.ParseKey(strings.TrimSpace(pub))
	if err != nil {
		return fmt.Errorf("%w: peer public key: %v", model.ErrInvalidInput, err)
	}
	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir key dir: %w", err)
	}
	return os.WriteFile(m.pubPath(role.Peer()), []byte(key.String()+"\n"), 0o600)
}

// ImportIdentity installs key material produced elsewhere (the server
// generates the client identity and ships it in the bundle). Refuses
// to overwrite an existing identity for the same reason EnsureIdentity
// never regenerates one.
func (m Manager) ImportIdentity(role model.Role, privateKey string) (model.Identity, error) {
	if _, err := os.Stat(m.privPath(role)); err == nil {
		return m.Load(role)
	}
	priv, err := wgtypes.ParseKey(strings.TrimSpace(privateKey))
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: private key: %v", model.ErrInvalidInput, err)
	}
	id := model.Identity{
		Role:       role,
		PrivateKey: priv.String(),
		PublicKey:  priv.PublicKey().String(),
	}
	if err := m.persist(id); err != nil {
		return model.Identity{}, err
	}
	return id, nil
}

// Remove deletes all key material. Only valid on explicit teardown.
func (m Manager) Remove() error {
	return os.RemoveAll(m.Dir)
}

func (m Manager) persist(id model.Identity) error {
	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir key dir: %w", err)
	}
	if err := os.WriteFile(m.privPath(id.Role), []byte(id.PrivateKey+"\n"), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(m.pubPath(id.Role), []byte(id.PublicKey+"\n"), 0o600); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}
