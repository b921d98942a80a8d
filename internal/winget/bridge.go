// Package winget drives the Windows Package Manager CLI.
package winget

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("winget")

// winget CLI timeouts
const (
	DefaultProbeTimeout   = 60 * time.Second
	DefaultInstallTimeout = 30 * time.Minute
	listTimeout           = 120 * time.Second
)

// validPackageID matches valid winget package identifiers (e.g. "Mozilla.Firefox", "Google.Chrome").
var validPackageID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,255}$`)

// ValidID reports whether id fits winget's identifier grammar.
func ValidID(id string) bool {
	return validPackageID.MatchString(id)
}

// InstallResult is the outcome of an install or uninstall.
type InstallResult struct {
	Success      bool
	Message      string
	ExitCode     int
	RebootHinted bool
	TimedOut     bool
}

// Probe is the installed state of one package, or the reason it is unknown.
type Probe struct {
	Installed bool
	Err       error
}

// Bridge runs winget through an executor.Runner.
type Bridge struct {
	runner         executor.Runner
	path           string
	probeTimeout   time.Duration
	installTimeout time.Duration
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithPath sets the winget executable.
func WithPath(path string) Option {
	return func(b *Bridge) {
		if path != "" {
			b.path = path
		}
	}
}

// WithProbeTimeout bounds version, show and list queries.
func WithProbeTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.probeTimeout = d
		}
	}
}

// WithInstallTimeout bounds install and uninstall.
func WithInstallTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.installTimeout = d
		}
	}
}

// New creates a Bridge.
func New(runner executor.Runner, opts ...Option) *Bridge {
	b := &Bridge{
		runner:         runner,
		path:           "winget",
		probeTimeout:   DefaultProbeTimeout,
		installTimeout: DefaultInstallTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) run(ctx context.Context, timeout time.Duration, args ...string) (executor.Result, error) {
	res, err := b.runner.Run(ctx, b.path, args, executor.Options{Timeout: timeout})
	if res.TimedOut && res.Timeout == 0 {
		res.Timeout = timeout
	}
	return res, err
}

func (b *Bridge) wrapRunErr(op, id string, err error) error {
	if executor.IsSpawnError(err) {
		return &ExecError{Op: op, ID: id, Err: err}
	}
	if id == "" {
		return fmt.Errorf("winget %s: %w", op, err)
	}
	return fmt.Errorf("winget %s %s: %w", op, id, err)
}

// IsAvailable reports whether `winget --version` exits 0.
func (b *Bridge) IsAvailable(ctx context.Context) bool {
	res, err := b.run(ctx, b.probeTimeout, "--version")
	if err != nil {
		log.Debug("winget not available", logging.KeyError, err.Error())
		return false
	}
	return res.Succeeded()
}

// Version returns the winget version string.
func (b *Bridge) Version(ctx context.Context) (string, error) {
	res, err := b.run(ctx, b.probeTimeout, "--version")
	if err != nil {
		return "", b.wrapRunErr("--version", "", err)
	}
	if !res.Succeeded() {
		return "", fmt.Errorf("winget --version: %s", res.Failure())
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Exists reports whether a manifest exists for the exact id.
func (b *Bridge) Exists(ctx context.Context, id string) bool {
	if !ValidID(id) {
		return false
	}
	res, err := b.run(ctx, b.probeTimeout, "show", "--id", id, "-e", "--accept-source-agreements", "--disable-interactivity")
	if err != nil {
		log.Debug("winget show failed", logging.KeyPackageID, id, logging.KeyError, err.Error())
		return false
	}
	return res.Succeeded()
}

// IsInstalled reports whether `winget list` finds the exact id. A non-zero
// exit means not installed; spawn failures and timeouts are errors.
func (b *Bridge) IsInstalled(ctx context.Context, id string) (bool, error) {
	if !ValidID(id) {
		return false, &InvalidIDError{ID: id}
	}
	res, err := b.run(ctx, b.probeTimeout, "list", "--id", id, "-e", "--accept-source-agreements", "--disable-interactivity")
	if err != nil {
		return false, b.wrapRunErr("list", id, err)
	}
	if res.TimedOut {
		return false, fmt.Errorf("winget list %s %s", id, res.Failure())
	}
	return res.Succeeded(), nil
}

// IsInstalledMany probes ids one at a time in order. A failed probe is
// recorded for its id and does not stop the rest.
func (b *Bridge) IsInstalledMany(ctx context.Context, ids []string) map[string]Probe {
	out := make(map[string]Probe, len(ids))
	for _, id := range ids {
		installed, err := b.IsInstalled(ctx, id)
		if err != nil {
			log.Warn("install probe failed", logging.KeyPackageID, id, logging.KeyError, err.Error())
		}
		out[id] = Probe{Installed: installed, Err: err}
	}
	return out
}

// Install runs a silent, non-interactive install. A non-zero exit is a
// failed result, not an error; only a spawn failure returns *ExecError.
func (b *Bridge) Install(ctx context.Context, id, name string) (InstallResult, error) {
	if !ValidID(id) {
		return InstallResult{}, &InvalidIDError{ID: id}
	}
	if name == "" {
		name = id
	}

	start := time.Now()
	res, err := b.run(ctx, b.installTimeout,
		"install",
		"--id", id,
		"-e",
		"--silent",
		"--accept-source-agreements",
		"--accept-package-agreements",
		"--disable-interactivity",
	)
	if err != nil {
		return InstallResult{}, b.wrapRunErr("install", id, err)
	}

	result := summarize(res, name, "installed")
	log.Info("winget install finished",
		logging.KeyPackageID, id,
		"success", result.Success,
		"exitCode", result.ExitCode,
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Uninstall removes a package by exact id.
func (b *Bridge) Uninstall(ctx context.Context, id, name string) (InstallResult, error) {
	if !ValidID(id) {
		return InstallResult{}, &InvalidIDError{ID: id}
	}
	if name == "" {
		name = id
	}

	res, err := b.run(ctx, b.installTimeout,
		"uninstall",
		"--id", id,
		"-e",
		"--silent",
		"--accept-source-agreements",
		"--disable-interactivity",
	)
	if err != nil {
		return InstallResult{}, b.wrapRunErr("uninstall", id, err)
	}
	return summarize(res, name, "uninstalled"), nil
}

// ListInstalled returns every package `winget list` reports.
func (b *Bridge) ListInstalled(ctx context.Context) ([]InstalledPackage, error) {
	res, err := b.run(ctx, listTimeout, "list", "--accept-source-agreements", "--disable-interactivity")
	if err != nil {
		return nil, b.wrapRunErr("list", "", err)
	}
	// winget may exit non-zero with a usable table, so only empty output is fatal
	if !res.Succeeded() && strings.TrimSpace(res.Stdout) == "" {
		return nil, fmt.Errorf("winget list: %s", res.Failure())
	}
	return parseListOutput(res.Stdout), nil
}

// ListUpgrades returns packages with a newer version available.
func (b *Bridge) ListUpgrades(ctx context.Context) ([]Upgrade, error) {
	res, err := b.run(ctx, listTimeout, "upgrade", "--include-unknown", "--accept-source-agreements", "--disable-interactivity")
	if err != nil {
		return nil, b.wrapRunErr("upgrade", "", err)
	}
	if !res.Succeeded() && strings.TrimSpace(res.Stdout) == "" {
		return nil, fmt.Errorf("winget upgrade: %s", res.Failure())
	}
	return parseUpgradeOutput(res.Stdout), nil
}

// summarize turns a finished process into a displayable result.
func summarize(res executor.Result, name, verb string) InstallResult {
	out := InstallResult{
		Success:  res.Succeeded(),
		ExitCode: res.Code(),
		TimedOut: res.TimedOut,
	}
	combined := strings.ToLower(res.Output())
	out.RebootHinted = IsRebootExitCode(out.ExitCode) ||
		strings.Contains(combined, "restart") ||
		strings.Contains(combined, "reboot") ||
		strings.Contains(combined, "перезагруз")

	switch {
	case out.Success:
		out.Message = fmt.Sprintf("%s %s successfully", name, verb)
	case res.TimedOut:
		out.Message = fmt.Sprintf("%s: %s", name, res.Failure())
	case IsAlreadyInstalled(out.ExitCode):
		out.Message = fmt.Sprintf("%s: nothing to do, already installed (%s)", name, DescribeExitCode(out.ExitCode))
	default:
		out.Message = fmt.Sprintf("%s: failed (%s)", name, DescribeExitCode(out.ExitCode))
		if detail := lastLine(res.Output()); detail != "" {
			out.Message += ": " + detail
		}
	}
	return out
}

func lastLine(s string) string {
	lines := cleanLines(strings.TrimSpace(s))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
