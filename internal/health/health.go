// Package health runs the environment checks behind `post-install doctor`.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("health")

// Status represents the health status of a component.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
	Unknown   Status = "unknown"
)

// Check stores the latest health result for a named component.
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"durationNs,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) (Status, string)

type registration struct {
	name string
	fn   CheckFunc
}

// Monitor tracks health checks for multiple components. Results are
// reported in registration order.
type Monitor struct {
	mu     sync.RWMutex
	order  []string
	checks map[string]Check
	probes []registration
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
	}
}

// Register adds a check that Run will execute.
func (m *Monitor) Register(name string, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, registration{name: name, fn: fn})
}

// Run executes every registered check one after another and records the
// results. A panicking check is recorded as Unhealthy.
func (m *Monitor) Run(ctx context.Context) []Check {
	m.mu.RLock()
	probes := append([]registration(nil), m.probes...)
	m.mu.RUnlock()

	for _, p := range probes {
		start := time.Now()
		status, msg := runSafe(ctx, p.fn)
		m.record(p.name, status, msg, time.Since(start))
	}
	return m.All()
}

func runSafe(ctx context.Context, fn CheckFunc) (status Status, msg string) {
	defer func() {
		if r := recover(); r != nil {
			status, msg = Unhealthy, "check panicked"
			log.Error("health check panicked", "panic", r)
		}
	}()
	return fn(ctx)
}

// Update records the health status for a named component.
func (m *Monitor) Update(name string, status Status, message string) {
	m.record(name, status, message, 0)
}

func (m *Monitor) record(name string, status Status, message string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.checks[name]; !ok {
		m.order = append(m.order, name)
	}
	m.checks[name] = Check{
		Name:      name,
		Status:    status,
		Message:   message,
		Duration:  d,
		UpdatedAt: time.Now(),
	}

	if status != Healthy {
		log.Info("health check not healthy", logging.KeyComponent, name, "status", string(status), "message", message)
	}
}

// Get returns the health check for a named component.
func (m *Monitor) Get(name string) (Check, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.checks[name]
	return c, ok
}

// Overall returns the worst status across all recorded checks, or Unknown
// when nothing has been recorded.
func (m *Monitor) Overall() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.checks) == 0 {
		return Unknown
	}
	worst := Healthy
	for _, c := range m.checks {
		if worse(c.Status, worst) {
			worst = c.Status
		}
	}
	return worst
}

// All returns a snapshot of all current health checks.
func (m *Monitor) All() []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Check, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, m.checks[name])
	}
	return result
}

// Summary returns a JSON-friendly map for `doctor --json`.
func (m *Monitor) Summary() map[string]any {
	overall := m.Overall()
	checks := m.All()

	components := make(map[string]string, len(checks))
	for _, c := range checks {
		components[c.Name] = string(c.Status)
	}

	return map[string]any{
		"status":     string(overall),
		"components": components,
	}
}

// worse returns true if a is worse than b.
func worse(a, b Status) bool {
	return statusRank(a) > statusRank(b)
}

func statusRank(s Status) int {
	switch s {
	case Healthy:
		return 0
	case Degraded:
		return 1
	case Unhealthy:
		return 2
	default:
		return 3
	}
}
