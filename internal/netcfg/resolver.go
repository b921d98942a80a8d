package netcfg

import (
	"context"
	"time"

	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("netcfg")

const (
	// DefaultTimeout bounds a single ipconfig invocation.
	DefaultTimeout = 10 * time.Second
	// DefaultEncoding is the OEM code page ipconfig writes on Cyrillic systems.
	DefaultEncoding = "cp866"
)

// Resolver finds the adapter DNS changes should target.
type Resolver struct {
	runner   executor.Runner
	parser   Parser
	command  string
	timeout  time.Duration
	encoding string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithParser swaps the output parser.
func WithParser(p Parser) Option {
	return func(r *Resolver) { r.parser = p }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithEncoding overrides DefaultEncoding.
func WithEncoding(enc string) Option {
	return func(r *Resolver) { r.encoding = enc }
}

// NewResolver creates a Resolver that shells out to ipconfig through runner.
func NewResolver(runner executor.Runner, opts ...Option) *Resolver {
	r := &Resolver{
		runner:   runner,
		parser:   NewIpconfigParser(),
		command:  "ipconfig",
		timeout:  DefaultTimeout,
		encoding: DefaultEncoding,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs ipconfig and returns the selected adapter name. It never
// fails: timeouts, spawn errors and unparseable output all yield ("", false).
func (r *Resolver) Resolve(ctx context.Context) (string, bool) {
	res, err := r.runner.Run(ctx, r.command, nil, executor.Options{
		Timeout:  r.timeout,
		Encoding: r.encoding,
	})
	if err != nil {
		log.Warn("adapter query failed", logging.KeyError, err.Error())
		return "", false
	}
	if res.TimedOut {
		log.Warn("adapter query timed out", "timeout", r.timeout.String())
		return "", false
	}

	adapters := r.parser.Parse(res.Stdout)
	name, ok := Select(adapters)
	if !ok {
		log.Info("no adapter with gateway or IPv4 address", "sections", len(adapters))
		return "", false
	}
	log.Debug("adapter resolved", logging.KeyAdapter, name)
	return name, true
}
