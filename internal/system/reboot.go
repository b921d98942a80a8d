// Package system covers host-level actions: restart scheduling and OS facts.
package system

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("system")

const (
	// DefaultRebootDelay matches the countdown users are warned about.
	DefaultRebootDelay = 15 * time.Second
	// MaxRebootDelay is the longest delay `shutdown /t` accepts (10 years).
	MaxRebootDelay = 315360000 * time.Second

	shutdownTimeout = 15 * time.Second
)

// Rebooter schedules host restarts through shutdown.exe.
type Rebooter struct {
	runner executor.Runner
}

// NewRebooter creates a Rebooter.
func NewRebooter(runner executor.Runner) *Rebooter {
	return &Rebooter{runner: runner}
}

// ScheduleReboot asks Windows to restart after delay. Negative delays are
// treated as zero.
func (r *Rebooter) ScheduleReboot(ctx context.Context, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	if delay > MaxRebootDelay {
		return fmt.Errorf("reboot delay %s exceeds maximum %s", delay, MaxRebootDelay)
	}
	secs := strconv.Itoa(int(delay / time.Second))

	if err := r.shutdown(ctx, "/r", "/t", secs); err != nil {
		return fmt.Errorf("schedule reboot: %w", err)
	}
	log.Warn("reboot scheduled", "delaySeconds", secs)
	return nil
}

// CancelReboot aborts a pending restart.
func (r *Rebooter) CancelReboot(ctx context.Context) error {
	if err := r.shutdown(ctx, "/a"); err != nil {
		return fmt.Errorf("cancel reboot: %w", err)
	}
	log.Info("pending reboot cancelled")
	return nil
}

func (r *Rebooter) shutdown(ctx context.Context, args ...string) error {
	res, err := r.runner.Run(ctx, "shutdown", args, executor.Options{Timeout: shutdownTimeout, Encoding: "cp866"})
	if err != nil {
		return err
	}
	if res.TimedOut && res.Timeout == 0 {
		res.Timeout = shutdownTimeout
	}
	if !res.Succeeded() {
		return fmt.Errorf("shutdown %s", res.Failure())
	}
	return nil
}
