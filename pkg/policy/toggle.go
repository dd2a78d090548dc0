// Package policy toggles the optional forwarding clause. The clause is
// never patched in or out of the live files: the toggle flips the typed
// state and re-renders the whole artifact set, using the rendered
// marker only to detect whether anything needs to change at all.
package policy

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"wg-engarde/pkg/artifact"
	"wg-engarde/pkg/model"
)

// Toggle applies forwarding policy changes through a reconciler.
type Toggle struct {
	Rec artifact.Reconciler
}

// HasForward reports whether an installed tunnel document already
// carries the forwarding clause.
func HasForward(doc []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(doc))
	for sc.Scan() {
		if bytes.Equal(bytes.TrimSpace(sc.Bytes()), []byte(artifact.ForwardMarker)) {
			return true
		}
	}
	return false
}

// Enable turns forwarding on. No-op when the installed artifact already
// carries the clause. Returns true when artifacts changed and the
// affected services must be restarted to take effect.
func (t Toggle) Enable(in *model.Inputs, ids model.Identities) (bool, error) {
	if in.Role != model.RoleServer {
		return false, fmt.Errorf("%w: forwarding policy applies to the server role", model.ErrInvalidInput)
	}
	if applied, err := t.installedState(); err == nil && applied && in.Policy.ForwardingEnabled {
		return false, nil
	}
	in.Policy = model.PolicyState{
		ForwardingEnabled: true,
		ClientTunnelIP:    in.Network.ClientIP,
	}
	return true, t.rewrite(*in, ids)
}

// Disable turns forwarding off. No-op when the clause is absent.
func (t Toggle) Disable(in *model.Inputs, ids model.Identities) (bool, error) {
	if in.Role != model.RoleServer {
		return false, fmt.Errorf("%w: forwarding policy applies to the server role", model.ErrInvalidInput)
	}
	if applied, err := t.installedState(); err == nil && !applied && !in.Policy.ForwardingEnabled {
		return false, nil
	}
	in.Policy = model.PolicyState{}
	return true, t.rewrite(*in, ids)
}

func (t Toggle) installedState() (bool, error) {
	doc, err := os.ReadFile(t.Rec.TunnelConf)
	if err != nil {
		return false, err
	}
	return HasForward(doc), nil
}

func (t Toggle) rewrite(in model.Inputs, ids model.Identities) error {
	set, err := t.Rec.Render(in, ids)
	if err != nil {
		return err
	}
	return t.Rec.WriteAll(set)
}
