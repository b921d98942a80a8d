// Package dns reads and changes the DNS servers of the active adapter
// through netsh.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("dns")

// DefaultTimeout bounds every netsh invocation.
const DefaultTimeout = 15 * time.Second

// AdapterResolver picks the adapter an operation applies to.
type AdapterResolver interface {
	Resolve(ctx context.Context) (string, bool)
}

// Servers are the addresses applied by Set.
type Servers struct {
	Primary   string
	Secondary string
	// DoHTemplate is registered for both servers when DoH is enabled.
	DoHTemplate string
}

func (s Servers) list() []string {
	out := []string{s.Primary}
	if s.Secondary != "" {
		out = append(out, s.Secondary)
	}
	return out
}

// Status is the result of Check.
type Status struct {
	Adapter string
	Output  string
	DoH     DoHState
}

// Report describes the outcome of a modifying operation.
type Report struct {
	Adapter  string
	Degraded bool
	Warnings []string
	// RolledBack is set when Set successfully reverted the adapter to DHCP
	// after a failure. A failed revert leaves it false.
	RolledBack bool
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Configurator applies DNS changes. Only one Set or Rollback runs at a time.
type Configurator struct {
	mu       sync.Mutex
	runner   executor.Runner
	resolver AdapterResolver
	servers  Servers
	timeout  time.Duration
	doh      DoHRegistrar
}

// Option customizes a Configurator.
type Option func(*Configurator)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Configurator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDoH enables DNS-over-HTTPS registration through r.
func WithDoH(r DoHRegistrar) Option {
	return func(c *Configurator) { c.doh = r }
}

// New validates servers and builds a Configurator.
func New(runner executor.Runner, resolver AdapterResolver, servers Servers, opts ...Option) (*Configurator, error) {
	if ip := net.ParseIP(servers.Primary); ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid primary DNS address %q", servers.Primary)
	}
	if servers.Secondary != "" {
		if ip := net.ParseIP(servers.Secondary); ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("invalid secondary DNS address %q", servers.Secondary)
		}
	}
	c := &Configurator{
		runner:   runner,
		resolver: resolver,
		servers:  servers,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Servers returns the configured addresses.
func (c *Configurator) Servers() Servers { return c.servers }

// Check returns the current DNS configuration of the active adapter.
func (c *Configurator) Check(ctx context.Context) (Status, error) {
	adapter, ok := c.resolver.Resolve(ctx)
	if !ok {
		return Status{}, ErrNoAdapter
	}

	res, err := c.netsh(ctx, "interface", "ip", "show", "dns", "name="+adapter)
	if err != nil || !res.Succeeded() {
		return Status{Adapter: adapter}, commandError("show dns", adapter, res, err)
	}

	status := Status{Adapter: adapter, Output: res.Stdout, DoH: DoHUnknown}
	if c.doh != nil {
		state, err := c.doh.State(c.servers.list())
		if err != nil {
			log.Warn("cannot read DoH state", logging.KeyError, err.Error())
		}
		status.DoH = state
	}
	return status, nil
}

// Set points the active adapter at the configured servers. A failure of the
// secondary server is reported as degraded success. Any other failure after
// the primary server was applied reverts the adapter to DHCP once.
func (c *Configurator) Set(ctx context.Context) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	adapter, ok := c.resolver.Resolve(ctx)
	if !ok {
		return Report{}, ErrNoAdapter
	}
	report := Report{Adapter: adapter}
	logger := log.With(logging.KeyAdapter, adapter)

	res, err := c.netsh(ctx, "interface", "ip", "set", "dns", "name="+adapter, "static", c.servers.Primary)
	if err != nil || !res.Succeeded() {
		return report, commandError("set primary DNS", adapter, res, err)
	}
	logger.Info("primary DNS applied", "server", c.servers.Primary)

	if err := c.applyRest(ctx, adapter, &report); err != nil {
		if rbErr := c.compensate(ctx); rbErr != nil {
			logger.Error("compensating rollback failed", logging.KeyError, rbErr.Error())
			return report, errors.Join(err, fmt.Errorf("compensating rollback failed: %w", rbErr))
		}
		report.RolledBack = true
		return report, err
	}
	return report, nil
}

// applyRest runs the steps that follow the primary assignment. Only
// unexpected errors are returned; ordinary command failures degrade.
func (c *Configurator) applyRest(ctx context.Context, adapter string, report *Report) error {
	if c.servers.Secondary != "" {
		res, err := c.netsh(ctx, "interface", "ip", "add", "dns", "name="+adapter, c.servers.Secondary, "index=2")
		if err != nil {
			return commandError("add secondary DNS", adapter, res, err)
		}
		if !res.Succeeded() {
			msg := commandError("add secondary DNS", adapter, res, nil).Error()
			log.Warn("secondary DNS not applied", logging.KeyAdapter, adapter, "detail", res.Failure())
			report.Degraded = true
			report.warn(msg)
		}
	}

	if c.doh != nil && c.servers.DoHTemplate != "" {
		if err := c.doh.Register(c.servers.list(), c.servers.DoHTemplate); err != nil {
			log.Warn("DoH registration failed", logging.KeyError, err.Error())
			report.warn(err.Error())
		}
	}
	return nil
}

// compensate re-resolves the adapter and reverts it to DHCP. It runs even
// when ctx is already cancelled.
func (c *Configurator) compensate(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	adapter, ok := c.resolver.Resolve(ctx)
	if !ok {
		return ErrNoAdapter
	}
	log.Warn("reverting DNS to DHCP after failure", logging.KeyAdapter, adapter)
	return c.revert(ctx, adapter)
}

// Rollback reverts the active adapter to DHCP-assigned DNS.
func (c *Configurator) Rollback(ctx context.Context) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	adapter, ok := c.resolver.Resolve(ctx)
	if !ok {
		return Report{}, ErrNoAdapter
	}
	report := Report{Adapter: adapter}
	if err := c.revert(ctx, adapter); err != nil {
		return report, err
	}
	log.Info("DNS reverted to DHCP", logging.KeyAdapter, adapter)
	return report, nil
}

func (c *Configurator) revert(ctx context.Context, adapter string) error {
	res, err := c.netsh(ctx, "interface", "ip", "set", "dns", "name="+adapter, "dhcp")
	if err != nil || !res.Succeeded() {
		return commandError("reset DNS to DHCP", adapter, res, err)
	}
	if c.doh != nil {
		if err := c.doh.Unregister(c.servers.list()); err != nil {
			log.Warn("DoH removal failed", logging.KeyError, err.Error())
		}
	}
	return nil
}

func (c *Configurator) netsh(ctx context.Context, args ...string) (executor.Result, error) {
	res, err := c.runner.Run(ctx, "netsh", args, executor.Options{Timeout: c.timeout, Encoding: "cp866"})
	if res.TimedOut && res.Timeout == 0 {
		res.Timeout = c.timeout
	}
	return res, err
}
