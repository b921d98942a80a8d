package catalog

import (
	"context"
	"fmt"

	"github.com/vvyiloff/post-install/internal/winget"
)

// Prober reports installed state for a batch of ids.
type Prober interface {
	IsInstalledMany(ctx context.Context, ids []string) map[string]winget.Probe
}

// Reconciler annotates catalogs with installed state.
type Reconciler struct {
	prober Prober
}

// NewReconciler creates a Reconciler.
func NewReconciler(p Prober) *Reconciler {
	return &Reconciler{prober: p}
}

// Reconcile probes every entry and returns a fresh annotated slice in
// catalog order. The input is not modified. Duplicate ids are rejected
// before anything is probed.
func (r *Reconciler) Reconcile(ctx context.Context, entries []Entry) ([]AnnotatedEntry, error) {
	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
		ids = append(ids, e.ID)
	}

	probes := r.prober.IsInstalledMany(ctx, ids)

	out := make([]AnnotatedEntry, len(entries))
	for i, e := range entries {
		a := AnnotatedEntry{Entry: e}
		p, ok := probes[e.ID]
		switch {
		case !ok:
			a.ProbeError = "not probed"
		case p.Err != nil:
			a.ProbeError = p.Err.Error()
		default:
			a.Installed = p.Installed
		}
		out[i] = a
	}
	return out, nil
}
