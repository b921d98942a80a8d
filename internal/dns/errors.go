package dns

import (
	"errors"
	"fmt"

	"github.com/vvyiloff/post-install/internal/executor"
)

// ErrNoAdapter is returned when no active adapter could be resolved.
var ErrNoAdapter = errors.New("no active network adapter found")

// CommandError describes a failed netsh invocation.
type CommandError struct {
	Op       string
	Adapter  string
	TimedOut bool
	Detail   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s on %q: %v", e.Op, e.Adapter, e.Err)
	}
	return fmt.Sprintf("%s on %q: %s", e.Op, e.Adapter, e.Detail)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a *CommandError caused by a timeout.
func IsTimeout(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.TimedOut
}

func commandError(op, adapter string, res executor.Result, err error) *CommandError {
	if err != nil {
		return &CommandError{Op: op, Adapter: adapter, Err: err}
	}
	return &CommandError{
		Op:       op,
		Adapter:  adapter,
		TimedOut: res.TimedOut,
		Detail:   res.Failure(),
	}
}
