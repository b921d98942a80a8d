// Package executortest provides a scripted executor.Runner for tests.
package executortest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vvyiloff/post-install/internal/executor"
)

// Call records one Run invocation.
type Call struct {
	Name string
	Args []string
	Opts executor.Options
}

// Line renders the call as a single command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// HandlerFunc decides the outcome of a call.
type HandlerFunc func(call Call) (executor.Result, error)

// Runner is a concurrency-safe fake that records calls and delegates to a handler.
type Runner struct {
	mu      sync.Mutex
	calls   []Call
	handler HandlerFunc
}

// New returns a Runner using handler. A nil handler makes every call exit 0.
func New(handler HandlerFunc) *Runner {
	if handler == nil {
		handler = func(Call) (executor.Result, error) { return Exit(0, "", ""), nil }
	}
	return &Runner{handler: handler}
}

// Run implements executor.Runner.
func (r *Runner) Run(_ context.Context, name string, args []string, opts executor.Options) (executor.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Opts: opts}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	return r.handler(call)
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded calls rendered as command lines.
func (r *Runner) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// Exit builds a result for a process that exited with code.
func Exit(code int, stdout, stderr string) executor.Result {
	return executor.Result{ExitCode: &code, Stdout: stdout, Stderr: stderr}
}

// TimedOut builds a result for a process killed on timeout.
func TimedOut() executor.Result {
	return executor.Result{TimedOut: true}
}

// SpawnFailure builds the error returned when name cannot be started.
func SpawnFailure(name string) error {
	return &executor.SpawnError{Name: name, Err: errNotFound}
}

var errNotFound = errors.New("executable file not found in %PATH%")
