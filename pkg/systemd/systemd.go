// Package systemd is the thin abstraction over the host service
// manager. Calls either succeed or fail with an ExternalCommandError
// naming the operation; failures abort the enclosing provisioning step
// and are never retried here.
package systemd

import (
	"context"
	"os/exec"
	"strings"

	"wg-engarde/pkg/model"
)

// Runner executes a service-manager command. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner shells out to systemctl.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Controller maps abstract lifecycle operations onto systemctl.
type Controller struct {
	Runner Runner
}

func NewController() Controller {
	return Controller{Runner: ExecRunner{}}
}

func (c Controller) do(ctx context.Context, op, unit string, args ...string) error {
	out, err := c.Runner.Run(ctx, append(args, unit)...)
	if err != nil {
		return &model.ExternalCommandError{Op: "systemctl " + op, Target: unit, Output: out, Err: err}
	}
	return nil
}

// Install reloads unit definitions after a descriptor was written.
func (c Controller) Install(ctx context.Context) error {
	out, err := c.Runner.Run(ctx, "daemon-reload")
	if err != nil {
		return &model.ExternalCommandError{Op: "systemctl daemon-reload", Target: "-", Output: out, Err: err}
	}
	return nil
}

func (c Controller) Enable(ctx context.Context, unit string) error {
	return c.do(ctx, "enable", unit, "enable")
}

func (c Controller) Disable(ctx context.Context, unit string) error {
	return c.do(ctx, "disable", unit, "disable")
}

func (c Controller) Start(ctx context.Context, unit string) error {
	return c.do(ctx, "start", unit, "start")
}

func (c Controller) Stop(ctx context.Context, unit string) error {
	return c.do(ctx, "stop", unit, "stop")
}

func (c Controller) Restart(ctx context.Context, unit string) error {
	return c.do(ctx, "restart", unit, "restart")
}

// IsEnabled reports whether the unit is registered to start at boot.
// A non-zero exit with a recognized state answer is not an error.
func (c Controller) IsEnabled(ctx context.Context, unit string) (bool, error) {
	out, err := c.Runner.Run(ctx, "is-enabled", unit)
	state := strings.TrimSpace(out)
	if state == "enabled" || state == "enabled-runtime" {
		return true, nil
	}
	if err != nil && state == "" {
		return false, &model.ExternalCommandError{Op: "systemctl is-enabled", Target: unit, Output: out, Err: err}
	}
	return false, nil
}

// Status returns the human unit status text.
func (c Controller) Status(ctx context.Context, unit string) (string, error) {
	out, err := c.Runner.Run(ctx, "status", "--no-pager", "-l", unit)
	if err != nil && strings.TrimSpace(out) == "" {
		return "", &model.ExternalCommandError{Op: "systemctl status", Target: unit, Output: out, Err: err}
	}
	// systemctl status exits non-zero for inactive units; the text is
	// still the answer.
	return out, nil
}

// Remove stops, disables and forgets a unit. Missing units are fine:
// teardown must be repeatable.
func (c Controller) Remove(ctx context.Context, unit string) error {
	_, _ = c.Runner.Run(ctx, "stop", unit)
	_, _ = c.Runner.Run(ctx, "disable", unit)
	return c.Install(ctx)
}
