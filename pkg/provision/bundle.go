package provision

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"gopkg.in/yaml.v3"

	"wg-engarde/pkg/model"
)

// BundleVersion is the current bundle format version.
const BundleVersion = 1

// Bundle is the distributable configuration the server operator hands
// to the client node: the client's identity, the server's public half
// and every relay connection parameter the client needs.
type Bundle struct {
	Version          int              `yaml:"version"`
	Endpoint         string           `yaml:"endpoint"` // server public host
	BasePort         int              `yaml:"basePort"`
	Network          model.Network    `yaml:"network"`
	ClientPrivateKey string           `yaml:"clientPrivateKey"`
	ClientPublicKey  string           `yaml:"clientPublicKey"`
	ServerPublicKey  string           `yaml:"serverPublicKey"`
	WebManager       model.WebManager `yaml:"webManager"`
	WriteTimeoutMS   int              `yaml:"writeTimeoutMs"`
}

// Inputs expands the bundle into client-role provisioning inputs.
func (b Bundle) Inputs(engineName string) model.Inputs {
	return model.Inputs{
		Role:           model.RoleClient,
		Engine:         engineName,
		Endpoint:       b.Endpoint,
		BasePort:       b.BasePort,
		Network:        b.Network,
		WebManager:     b.WebManager,
		WriteTimeoutMS: b.WriteTimeoutMS,
	}
}

// NewBundle assembles the bundle from the server's saved inputs and
// key material.
func (p *Provisioner) NewBundle(in model.Inputs) (Bundle, error) {
	if in.Role != model.RoleServer {
		return Bundle{}, fmt.Errorf("%w: bundles are generated on the server", model.ErrInvalidInput)
	}
	serverID, err := p.Keys.Load(model.RoleServer)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: server identity: %v", model.ErrMissingConfig, err)
	}
	clientID, err := p.Keys.Load(model.RoleClient)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: client identity: %v", model.ErrMissingConfig, err)
	}
	return Bundle{
		Version:          BundleVersion,
		Endpoint:         in.Endpoint,
		BasePort:         in.BasePort,
		Network:          in.Network,
		ClientPrivateKey: clientID.PrivateKey,
		ClientPublicKey:  clientID.PublicKey,
		ServerPublicKey:  serverID.PublicKey,
		WebManager:       in.WebManager,
		WriteTimeoutMS:   in.WriteTimeoutMS,
	}, nil
}

// WriteBundle writes the bundle to path. With a passphrase the payload
// is age-encrypted (scrypt recipient); the key material inside should
// not sit in cleartext on anything that travels.
func WriteBundle(path string, b Bundle, passphrase string) error {
	payload, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if passphrase != "" {
		recipient, err := age.NewScryptRecipient(passphrase)
		if err != nil {
			return fmt.Errorf("scrypt recipient: %w", err)
		}
		var buf bytes.Buffer
		w, err := age.Encrypt(&buf, recipient)
		if err != nil {
			return fmt.Errorf("age encrypt: %w", err)
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write encrypted bundle: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close encrypted bundle: %w", err)
		}
		payload = buf.Bytes()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadBundle loads a bundle, decrypting with the passphrase when the
// file is age armor. Bundles missing required fields are rejected
// before any state is touched.
func ReadBundle(path, passphrase string) (Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: bundle %s: %v", model.ErrMissingConfig, path, err)
	}
	if bytes.HasPrefix(raw, []byte("age-encryption.org/")) {
		identity, err := age.NewScryptIdentity(passphrase)
		if err != nil {
			return Bundle{}, fmt.Errorf("scrypt identity: %w", err)
		}
		r, err := age.Decrypt(bytes.NewReader(raw), identity)
		if err != nil {
			return Bundle{}, fmt.Errorf("%w: decrypt bundle: %v", model.ErrInvalidInput, err)
		}
		raw, err = io.ReadAll(r)
		if err != nil {
			return Bundle{}, fmt.Errorf("read decrypted bundle: %w", err)
		}
	}
	var b Bundle
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("%w: parse bundle: %v", model.ErrInvalidInput, err)
	}
	if err := b.validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func (b Bundle) validate() error {
	var missing []string
	if b.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if b.BasePort == 0 {
		missing = append(missing, "basePort")
	}
	if b.ClientPrivateKey == "" {
		missing = append(missing, "clientPrivateKey")
	}
	if b.ServerPublicKey == "" {
		missing = append(missing, "serverPublicKey")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: bundle missing %s", model.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
