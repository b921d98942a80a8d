package winget

import (
	"errors"
	"fmt"
)

// ExecError means winget could not be launched, so the operation was never attempted.
type ExecError struct {
	Op  string
	ID  string
	Err error
}

func (e *ExecError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("execution error: winget %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("execution error: winget %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// IsExecError reports whether err (or anything it wraps) is an *ExecError.
func IsExecError(err error) bool {
	var ee *ExecError
	return errors.As(err, &ee)
}

// InvalidIDError is returned for identifiers outside winget's ID grammar.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid winget package ID: %q", e.ID)
}
