package health

import (
	"context"
	"sync"
	"testing"
)

func TestNewMonitorOverallReturnsUnknown(t *testing.T) {
	m := NewMonitor()
	if got := m.Overall(); got != Unknown {
		t.Fatalf("Overall() on empty monitor = %q, want %q", got, Unknown)
	}
}

func TestSummaryOnEmptyMonitor(t *testing.T) {
	s := NewMonitor().Summary()
	if s["status"] != "unknown" {
		t.Fatalf("Summary status = %v, want unknown", s["status"])
	}
	components, _ := s["components"].(map[string]string)
	if len(components) != 0 {
		t.Fatalf("Summary components = %v, want empty", components)
	}
}

func TestOverallReturnsWorstStatus(t *testing.T) {
	m := NewMonitor()
	m.Update("winget", Healthy, "")
	m.Update("adapter", Degraded, "no gateway")
	m.Update("catalog", Healthy, "")

	if got := m.Overall(); got != Degraded {
		t.Fatalf("Overall() = %q, want %q", got, Degraded)
	}
}

func TestOverallUnhealthyWorseThanDegraded(t *testing.T) {
	m := NewMonitor()
	m.Update("a", Degraded, "")
	m.Update("b", Unhealthy, "down")

	if got := m.Overall(); got != Unhealthy {
		t.Fatalf("Overall() = %q, want %q", got, Unhealthy)
	}
}

func TestOverallUnknownIsWorstStatus(t *testing.T) {
	m := NewMonitor()
	m.Update("a", Unhealthy, "")
	m.Update("b", Unknown, "not checked")

	if got := m.Overall(); got != Unknown {
		t.Fatalf("Overall() = %q, want %q", got, Unknown)
	}
}

func TestRunExecutesChecksInOrder(t *testing.T) {
	m := NewMonitor()
	var order []string
	m.Register("winget", func(context.Context) (Status, string) {
		order = append(order, "winget")
		return Healthy, "v1.8"
	})
	m.Register("adapter", func(context.Context) (Status, string) {
		order = append(order, "adapter")
		return Unhealthy, "no active adapter"
	})

	checks := m.Run(context.Background())

	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	if checks[0].Name != "winget" || checks[1].Name != "adapter" {
		t.Fatalf("checks out of order: %+v", checks)
	}
	if len(order) != 2 || order[0] != "winget" {
		t.Fatalf("run order = %v", order)
	}
	if checks[1].Message != "no active adapter" {
		t.Fatalf("message = %q", checks[1].Message)
	}
	if got := m.Overall(); got != Unhealthy {
		t.Fatalf("Overall() = %q, want unhealthy", got)
	}
}

func TestRunRecoversPanickingCheck(t *testing.T) {
	m := NewMonitor()
	m.Register("boom", func(context.Context) (Status, string) { panic("nope") })

	checks := m.Run(context.Background())
	if len(checks) != 1 || checks[0].Status != Unhealthy {
		t.Fatalf("checks = %+v, want one unhealthy", checks)
	}
}

func TestUpdateOverwritesKeepingPosition(t *testing.T) {
	m := NewMonitor()
	m.Update("a", Degraded, "first")
	m.Update("b", Healthy, "")
	m.Update("a", Healthy, "second")

	all := m.All()
	if all[0].Name != "a" || all[0].Message != "second" {
		t.Fatalf("All()[0] = %+v", all[0])
	}
	c, ok := m.Get("a")
	if !ok || c.Status != Healthy {
		t.Fatalf("Get(a) = %+v, %v", c, ok)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.Update("even", Healthy, "")
			} else {
				m.Update("odd", Degraded, "")
			}
			_ = m.Overall()
			_ = m.Summary()
		}(i)
	}
	wg.Wait()

	if len(m.All()) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(m.All()))
	}
}
