// Package console is the management dispatcher entered once a node is
// detected as provisioned. The menu state machine is explicit (an
// Action enumeration consumed by a pure Dispatch) so transitions are
// testable without simulating a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"wg-engarde/pkg/model"
)

// Action is one operator choice.
type Action int

const (
	ActionNone Action = iota
	ActionTunnelStatus
	ActionRelayStatus
	ActionRestartTunnel
	ActionRestartRelay
	ActionEnableForwarding
	ActionDisableForwarding
	ActionRegenBundle
	ActionRemove
	ActionExit
)

// State of the console loop. Removed is terminal and cannot be
// re-entered without a full provisioning pass.
type State int

const (
	Idle State = iota
	Exited
	Removed
)

// Ops is the capability surface the console dispatches onto.
type Ops interface {
	TunnelStatus(ctx context.Context) (string, error)
	RelayStatus(ctx context.Context) (string, error)
	RestartTunnel(ctx context.Context) error
	RestartRelay(ctx context.Context) error
	SetForwarding(ctx context.Context, enabled bool) (changed bool, err error)
	RegenerateBundle(ctx context.Context) (path string, err error)
	RemoveAll(ctx context.Context) error
}

// ParseAction maps a menu choice to an Action.
func ParseAction(choice string) (Action, error) {
	switch strings.TrimSpace(choice) {
	case "1":
		return ActionTunnelStatus, nil
	case "2":
		return ActionRelayStatus, nil
	case "3":
		return ActionRestartTunnel, nil
	case "4":
		return ActionRestartRelay, nil
	case "5":
		return ActionEnableForwarding, nil
	case "6":
		return ActionDisableForwarding, nil
	case "7":
		return ActionRegenBundle, nil
	case "8":
		return ActionRemove, nil
	case "0", "q", "exit":
		return ActionExit, nil
	}
	return ActionNone, fmt.Errorf("%w: choice %q", model.ErrInvalidInput, choice)
}

// Dispatch executes one action and returns the next state plus output
// for the operator. Every action is synchronous; errors leave the
// console in Idle so the operator can retry or exit.
func Dispatch(ctx context.Context, a Action, ops Ops) (State, string, error) {
	switch a {
	case ActionTunnelStatus:
		out, err := ops.TunnelStatus(ctx)
		return Idle, out, err
	case ActionRelayStatus:
		out, err := ops.RelayStatus(ctx)
		return Idle, out, err
	case ActionRestartTunnel:
		return Idle, "tunnel restarted", ops.RestartTunnel(ctx)
	case ActionRestartRelay:
		return Idle, "relay restarted", ops.RestartRelay(ctx)
	case ActionEnableForwarding:
		changed, err := ops.SetForwarding(ctx, true)
		if err != nil {
			return Idle, "", err
		}
		if !changed {
			return Idle, "forwarding already enabled", nil
		}
		return Idle, "forwarding enabled, services restarted", nil
	case ActionDisableForwarding:
		changed, err := ops.SetForwarding(ctx, false)
		if err != nil {
			return Idle, "", err
		}
		if !changed {
			return Idle, "forwarding already disabled", nil
		}
		return Idle, "forwarding disabled, services restarted", nil
	case ActionRegenBundle:
		path, err := ops.RegenerateBundle(ctx)
		if err != nil {
			return Idle, "", err
		}
		return Idle, "client bundle written to " + path, nil
	case ActionRemove:
		if err := ops.RemoveAll(ctx); err != nil {
			return Idle, "", err
		}
		return Removed, "everything removed; run provisioning to start over", nil
	case ActionExit:
		return Exited, "", nil
	}
	return Idle, "", fmt.Errorf("%w: no action selected", model.ErrInvalidInput)
}

const menu = `
wg-engarde management
  1) tunnel status
  2) relay status
  3) restart tunnel
  4) restart relay
  5) enable forwarding
  6) disable forwarding
  7) regenerate client bundle
  8) remove everything
  0) exit
`

// Loop runs the console until a terminal state. Invalid choices
// re-prompt; action errors are printed and the loop continues.
func Loop(ctx context.Context, in io.Reader, out io.Writer, ops Ops) error {
	rd := bufio.NewReader(in)
	for {
		fmt.Fprint(out, menu, "choice: ")
		line, err := rd.ReadString('\n')
		if err != nil {
			return nil // EOF ends the session
		}
		action, err := ParseAction(line)
		if err != nil {
			fmt.Fprintf(out, "invalid choice\n")
			continue
		}
		next, msg, err := Dispatch(ctx, action, ops)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if msg != "" {
			fmt.Fprintln(out, msg)
		}
		if next != Idle {
			return nil
		}
	}
}
