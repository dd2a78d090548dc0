package model

// Identity is an asymmetric keypair bound to a role. Once a running
// tunnel uses it, regenerating it silently breaks the peer's trust, so
// key material is only ever created when none exists and only removed
// on explicit operator teardown.
type Identity struct {
	Role       Role   `json:"role"`
	PrivateKey string `json:"-"` // base64, never serialized outward
	PublicKey  string `json:"publicKey"`
}

// Identities holds the key material a render pass needs: the local
// node's full identity and the peer's public half.
type Identities struct {
	Local         Identity
	PeerPublicKey string
}
