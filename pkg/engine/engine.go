// Package engine abstracts which externally built relay binary the
// pair runs. The core never looks inside the binary: a provider only
// knows its name and where a release for this platform lives.
package engine

import (
	"fmt"

	"wg-engarde/pkg/model"
)

// Provider describes one selectable relay build.
type Provider interface {
	Name() string
	BinaryName(role model.Role) string
	DownloadURL(role model.Role, goos, goarch string) string
}

// Select returns the provider for an operator choice.
func Select(name string) (Provider, error) {
	switch name {
	case "go", "1", "":
		return goEngine{}, nil
	case "rust", "2":
		return rustEngine{}, nil
	}
	return nil, fmt.Errorf("%w: unknown engine %q", model.ErrInvalidInput, name)
}

// goEngine is the upstream Go implementation of the relay.
type goEngine struct{}

func (goEngine) Name() string { return "go" }

func (goEngine) BinaryName(role model.Role) string {
	return "engarde-" + string(role)
}

func (goEngine) DownloadURL(role model.Role, goos, goarch string) string {
	return fmt.Sprintf("https://github.com/porech/engarde/releases/latest/download/engarde-%s-%s-%s",
		role, goos, goarch)
}

// rustEngine is the Rust rewrite, same config schema and CLI contract.
type rustEngine struct{}

func (rustEngine) Name() string { return "rust" }

func (rustEngine) BinaryName(role model.Role) string {
	return "engarde-" + string(role) + "-rs"
}

func (rustEngine) DownloadURL(role model.Role, goos, goarch string) string {
	return fmt.Sprintf("https://github.com/engarde-dev/engarde-rs/releases/latest/download/engarde-%s-%s-%s",
		role, goos, goarch)
}
