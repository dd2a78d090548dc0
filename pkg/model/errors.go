package model

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy. Every error surfaced to the operator wraps one of
// these so main can map it to a message and exit code without string
// matching.
var (
	ErrPermission          = errors.New("administrative privilege required")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMissingDependency   = errors.New("missing dependency")
	ErrMissingConfig       = errors.New("required configuration missing")
	ErrInvalidInput        = errors.New("invalid input")
)

// ExternalCommandError reports a failed call into the host service
// manager or another external tool. It carries the failing operation's
// identity; callers abort the enclosing step rather than retry.
type ExternalCommandError struct {
	Op     string // e.g. "systemctl enable"
	Target string // unit or binary the op acted on
	Output string
	Err    error
}

func (e *ExternalCommandError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Op, e.Target, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += " (" + out + ")"
	}
	return msg
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }
