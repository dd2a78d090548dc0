package model

// Artifact is one rendered configuration document plus its install
// destination and mode. Content is always a complete document computed
// from current inputs, never a diff against prior content.
type Artifact struct {
	Name    string
	Path    string
	Mode    uint32
	Content []byte
}

// ArtifactSet is the full rendered configuration state for one role:
// the tunnel config, the relay config and the relay's service
// descriptor. Rendering the same inputs twice yields byte-identical
// sets.
type ArtifactSet struct {
	Tunnel    Artifact
	Relay     Artifact
	RelayUnit Artifact
}

// List returns the artifacts in write order.
func (s ArtifactSet) List() []Artifact {
	return []Artifact{s.Tunnel, s.Relay, s.RelayUnit}
}

// InstallState is derived each run from service registration and
// artifact presence; it is never cached as the sole source of truth
// because service state drifts independently of on-disk flags.
type InstallState int

const (
	NotProvisioned InstallState = iota
	Provisioned
)

func (s InstallState) String() string {
	if s == Provisioned {
		return "provisioned"
	}
	return "not provisioned"
}
