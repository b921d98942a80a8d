// Package executor runs external OS commands with a timeout and captured output.
// A non-zero exit code is reported as data; only a failure to start the process
// is returned as an error.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("executor")

const (
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout = 5 * time.Minute

	// MaxTimeout caps any requested timeout.
	MaxTimeout = 2 * time.Hour

	// MaxOutputSize is the maximum size of stdout/stderr to capture.
	MaxOutputSize = 1024 * 1024 // 1MB

	// waitDelay bounds how long Wait blocks on inherited pipes after the kill.
	waitDelay = 2 * time.Second
)

// Options controls a single invocation.
type Options struct {
	Timeout time.Duration
	// Encoding names the code page the command writes in ("cp866", "cp1251",
	// "cp437", "cp1252"). Empty or "utf-8" leaves output untouched.
	Encoding string
	Dir      string
}

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode *int // nil when the process was killed on timeout
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
	Timeout  time.Duration
}

// Succeeded reports whether the process exited with code 0.
func (r Result) Succeeded() bool {
	return r.ExitCode != nil && *r.ExitCode == 0
}

// Code returns the exit code, or -1 when there is none.
func (r Result) Code() int {
	if r.ExitCode == nil {
		return -1
	}
	return *r.ExitCode
}

// Output returns stdout and stderr joined, trimmed.
func (r Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Failure renders a human-readable reason for a non-successful result.
// It returns an empty string when the process succeeded.
func (r Result) Failure() string {
	switch {
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Timeout)
	case r.Succeeded():
		return ""
	}
	detail := strings.TrimSpace(r.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(r.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("exited with code %d", r.Code())
	}
	return fmt.Sprintf("exited with code %d: %s", r.Code(), firstLines(detail, 5))
}

// SpawnError means the executable could not be started at all.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IsSpawnError reports whether err (or anything it wraps) is a *SpawnError.
func IsSpawnError(err error) bool {
	var se *SpawnError
	return errors.As(err, &se)
}

// Runner executes a command. Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) (Result, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// NewRunner returns a Runner that spawns real processes.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts name with args and waits for it to exit or for the timeout to
// expire. On timeout the whole process group is killed.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = opts.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxOutputSize}

	// Set process group so children are killed on timeout
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	log.Debug("starting command", "name", name, "args", args, "timeout", timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.Warn("command could not be started", "name", name, "error", err)
		return Result{}, &SpawnError{Name: name, Err: err}
	}

	err := cmd.Wait()
	result := Result{
		Stdout:   decode(stdout.Bytes(), opts.Encoding),
		Stderr:   decode(stderr.Bytes(), opts.Encoding),
		Duration: time.Since(start),
		Timeout:  timeout,
	}

	if err == nil {
		code := 0
		result.ExitCode = &code
		log.Debug("command completed", "name", name, logging.KeyDurationMs, result.Duration.Milliseconds())
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		log.Warn("command timed out", "name", name, "timeout", timeout)
		result.TimedOut = true
		return result, nil
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		result.ExitCode = &code
		log.Debug("command exited non-zero", "name", name, "exitCode", code)
		return result, nil
	}

	log.Error("command failed", "name", name, "error", err)
	return result, fmt.Errorf("%s: %w", name, err)
}

// limitedWriter wraps a buffer with a size limit
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	written int
}

func (w *limitedWriter) Write(p []byte) (n int, err error) {
	if w.written >= w.limit {
		// Discard additional data but don't error
		return len(p), nil
	}

	remaining := w.limit - w.written
	if len(p) > remaining {
		p = p[:remaining]
	}

	n, err = w.buf.Write(p)
	w.written += n
	return len(p), err // Return original length to avoid short write errors
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
