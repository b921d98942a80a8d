package dns

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/executor/executortest"
)

var testServers = Servers{Primary: "176.99.11.77", Secondary: "80.78.247.254"}

// sequenceResolver returns names in order, repeating the last one.
type sequenceResolver struct {
	mu    sync.Mutex
	names []string
	calls int
}

func (r *sequenceResolver) Resolve(context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.names) == 0 {
		return "", false
	}
	i := r.calls - 1
	if i >= len(r.names) {
		i = len(r.names) - 1
	}
	return r.names[i], r.names[i] != ""
}

type fakeDoH struct {
	registered   []string
	unregistered []string
	registerErr  error
	state        DoHState
}

func (f *fakeDoH) Register(servers []string, template string) error {
	f.registered = append(f.registered, servers...)
	return f.registerErr
}

func (f *fakeDoH) Unregister(servers []string) error {
	f.unregistered = append(f.unregistered, servers...)
	return nil
}

func (f *fakeDoH) State([]string) (DoHState, error) { return f.state, nil }

// scripted fails any netsh call whose line contains a key of failures.
func scripted(failures map[string]func() (executor.Result, error)) *executortest.Runner {
	return executortest.New(func(c executortest.Call) (executor.Result, error) {
		line := c.Line()
		for substr, fail := range failures {
			if strings.Contains(line, substr) {
				return fail()
			}
		}
		return executortest.Exit(0, "ok", ""), nil
	})
}

func exitWith(code int, stderr string) func() (executor.Result, error) {
	return func() (executor.Result, error) { return executortest.Exit(code, "", stderr), nil }
}

func newTestConfigurator(t *testing.T, runner executor.Runner, resolver AdapterResolver, opts ...Option) *Configurator {
	t.Helper()
	c, err := New(runner, resolver, testServers, opts...)
	require.NoError(t, err)
	return c
}

func TestSetAppliesBothServers(t *testing.T) {
	runner := scripted(nil)
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	report, err := c.Set(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", report.Adapter)
	assert.False(t, report.Degraded)
	assert.False(t, report.RolledBack)
	assert.Equal(t, []string{
		"netsh interface ip set dns name=Ethernet static 176.99.11.77",
		"netsh interface ip add dns name=Ethernet 80.78.247.254 index=2",
	}, runner.Lines())

	for _, call := range runner.Calls() {
		assert.Equal(t, DefaultTimeout, call.Opts.Timeout)
	}
}

func TestSetSecondaryFailureIsDegradedSuccess(t *testing.T) {
	runner := scripted(map[string]func() (executor.Result, error){
		"add dns": exitWith(1, "The object already exists."),
	})
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	report, err := c.Set(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.False(t, report.RolledBack)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "already exists")
	assert.Len(t, runner.Calls(), 2)
}

func TestSetPrimaryFailureChangesNothing(t *testing.T) {
	runner := scripted(map[string]func() (executor.Result, error){
		"static": exitWith(1, "The requested operation requires elevation."),
	})
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	_, err := c.Set(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires elevation")
	assert.Equal(t, []string{"netsh interface ip set dns name=Ethernet static 176.99.11.77"}, runner.Lines())
}

func TestSetPrimaryTimeout(t *testing.T) {
	runner := scripted(map[string]func() (executor.Result, error){
		"static": func() (executor.Result, error) { return executortest.TimedOut(), nil },
	})
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	_, err := c.Set(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestSetUnexpectedErrorRollsBackOnce(t *testing.T) {
	runner := scripted(map[string]func() (executor.Result, error){
		"add dns": func() (executor.Result, error) { return executor.Result{}, executortest.SpawnFailure("netsh") },
	})
	resolver := &sequenceResolver{names: []string{"Ethernet", "Ethernet 2"}}
	c := newTestConfigurator(t, runner, resolver)

	report, err := c.Set(context.Background())
	require.Error(t, err)
	assert.True(t, executor.IsSpawnError(err))
	assert.True(t, report.RolledBack)
	assert.Equal(t, 2, resolver.calls, "rollback must re-resolve the adapter")

	var dhcp []string
	for _, line := range runner.Lines() {
		if strings.HasSuffix(line, "dhcp") {
			dhcp = append(dhcp, line)
		}
	}
	assert.Equal(t, []string{"netsh interface ip set dns name=Ethernet 2 dhcp"}, dhcp)
}

func TestSetRollbackFailureKeepsOriginalError(t *testing.T) {
	original := errors.New("context canceled mid-flight")
	runner := scripted(map[string]func() (executor.Result, error){
		"add dns": func() (executor.Result, error) { return executor.Result{}, original },
		"dhcp":    exitWith(1, "rollback refused"),
	})
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	report, err := c.Set(context.Background())
	require.Error(t, err)
	assert.False(t, report.RolledBack, "a failed revert must not be reported as rolled back")
	assert.ErrorIs(t, err, original)
	assert.True(t, strings.HasPrefix(err.Error(), "add secondary DNS on \"Ethernet\": context canceled mid-flight"))
	assert.Contains(t, err.Error(), "rollback refused")

	dhcpCalls := 0
	for _, line := range runner.Lines() {
		if strings.HasSuffix(line, "dhcp") {
			dhcpCalls++
		}
	}
	assert.Equal(t, 1, dhcpCalls)
}

func TestOperationsWithoutAdapter(t *testing.T) {
	runner := scripted(nil)
	c := newTestConfigurator(t, runner, &sequenceResolver{})

	_, err := c.Check(context.Background())
	assert.ErrorIs(t, err, ErrNoAdapter)
	_, err = c.Set(context.Background())
	assert.ErrorIs(t, err, ErrNoAdapter)
	_, err = c.Rollback(context.Background())
	assert.ErrorIs(t, err, ErrNoAdapter)
	assert.Empty(t, runner.Calls())
}

func TestEveryOperationResolvesFresh(t *testing.T) {
	runner := scripted(nil)
	resolver := &sequenceResolver{names: []string{"Ethernet", "Wi-Fi", "Ethernet 3"}}
	c := newTestConfigurator(t, runner, resolver)

	st, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", st.Adapter)

	rep, err := c.Set(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Wi-Fi", rep.Adapter)

	rep, err = c.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ethernet 3", rep.Adapter)
	assert.Equal(t, 3, resolver.calls)
}

func TestCheck(t *testing.T) {
	runner := executortest.New(func(executortest.Call) (executor.Result, error) {
		return executortest.Exit(0, "Statically Configured DNS Servers: 176.99.11.77\n", ""), nil
	})
	doh := &fakeDoH{state: DoHEnabled}
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}}, WithDoH(doh))

	st, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Contains(t, st.Output, "176.99.11.77")
	assert.Equal(t, DoHEnabled, st.DoH)
	assert.Equal(t, []string{"netsh interface ip show dns name=Ethernet"}, runner.Lines())
}

func TestCheckCommandFailure(t *testing.T) {
	runner := scripted(map[string]func() (executor.Result, error){
		"show dns": exitWith(1, "The filename, directory name, or volume label syntax is incorrect."),
	})
	c := newTestConfigurator(t, runner, &sequenceResolver{names: []string{"Ethernet"}})

	_, err := c.Check(context.Background())
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Ethernet", ce.Adapter)
	assert.NotEmpty(t, err.Error())
}

func TestDoHRegistration(t *testing.T) {
	doh := &fakeDoH{}
	servers := testServers
	servers.DoHTemplate = "https://xbox-dns.ru/dns-query"
	c, err := New(scripted(nil), &sequenceResolver{names: []string{"Ethernet"}}, servers, WithDoH(doh))
	require.NoError(t, err)

	_, err = c.Set(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"176.99.11.77", "80.78.247.254"}, doh.registered)

	_, err = c.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"176.99.11.77", "80.78.247.254"}, doh.unregistered)
}

func TestDoHFailureIsNotFatal(t *testing.T) {
	doh := &fakeDoH{registerErr: errors.New("access denied")}
	servers := testServers
	servers.DoHTemplate = "https://xbox-dns.ru/dns-query"
	runner := scripted(nil)
	c, err := New(runner, &sequenceResolver{names: []string{"Ethernet"}}, servers, WithDoH(doh))
	require.NoError(t, err)

	report, err := c.Set(context.Background())
	require.NoError(t, err)
	assert.False(t, report.RolledBack)
	assert.Contains(t, report.Warnings, "access denied")
}

func TestNewRejectsInvalidServers(t *testing.T) {
	_, err := New(scripted(nil), &sequenceResolver{}, Servers{Primary: "not-an-ip"})
	assert.Error(t, err)
	_, err = New(scripted(nil), &sequenceResolver{}, Servers{Primary: "1.1.1.1", Secondary: "::1"})
	assert.Error(t, err)
}
