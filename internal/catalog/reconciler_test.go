package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvyiloff/post-install/internal/winget"
)

type fakeProber struct {
	probes map[string]winget.Probe
	calls  [][]string
}

func (f *fakeProber) IsInstalledMany(_ context.Context, ids []string) map[string]winget.Probe {
	f.calls = append(f.calls, append([]string(nil), ids...))
	out := make(map[string]winget.Probe, len(ids))
	for _, id := range ids {
		out[id] = f.probes[id]
	}
	return out
}

func TestReconcilePreservesOrderAndInput(t *testing.T) {
	entries := Default()
	original := Default()
	prober := &fakeProber{probes: map[string]winget.Probe{
		"Git.Git":       {Installed: true},
		"Google.Chrome": {Err: errors.New("execution error: winget list Google.Chrome: cannot start winget")},
	}}

	got, err := NewReconciler(prober).Reconcile(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, got, len(entries))
	assert.Equal(t, original, entries)

	for i, a := range got {
		assert.Equal(t, entries[i], a.Entry)
	}

	git := got[5]
	assert.Equal(t, "Git.Git", git.ID)
	assert.True(t, git.Installed)
	assert.Empty(t, git.ProbeError)

	chrome := got[9]
	assert.Equal(t, "Google.Chrome", chrome.ID)
	assert.False(t, chrome.Installed)
	assert.Contains(t, chrome.ProbeError, "cannot start winget")

	require.Len(t, prober.calls, 1)
	assert.Len(t, prober.calls[0], len(entries))
}

func TestReconcileRejectsDuplicates(t *testing.T) {
	prober := &fakeProber{}
	_, err := NewReconciler(prober).Reconcile(context.Background(), []Entry{{ID: "A"}, {ID: "A"}})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Empty(t, prober.calls)
}

func TestReconcileReturnsFreshSlices(t *testing.T) {
	prober := &fakeProber{probes: map[string]winget.Probe{"A": {Installed: true}}}
	r := NewReconciler(prober)
	entries := []Entry{{ID: "A", Name: "a"}}

	first, err := r.Reconcile(context.Background(), entries)
	require.NoError(t, err)

	prober.probes["A"] = winget.Probe{Installed: false}
	second, err := r.Reconcile(context.Background(), entries)
	require.NoError(t, err)

	assert.True(t, first[0].Installed)
	assert.False(t, second[0].Installed)
}

func TestReconcileEmpty(t *testing.T) {
	got, err := NewReconciler(&fakeProber{}).Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
