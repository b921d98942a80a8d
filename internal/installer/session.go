// Package installer runs batches of package installs for a user session.
package installer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vvyiloff/post-install/internal/catalog"
)

// State is the run state of a Session.
type State int32

const (
	Idle State = iota
	Confirming
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrEmptySelection = errors.New("nothing selected")
	ErrRunInProgress  = errors.New("an installation run is already in progress")
	ErrDeclined       = errors.New("installation declined")
	ErrUnknownEntry   = errors.New("unknown catalog entry")
)

// Session is the caller-owned state of one interactive session: the
// catalog, the ordered selection and the run state. The selection can only
// change while no run is active.
type Session struct {
	mu        sync.Mutex
	entries   []catalog.Entry
	selection []string
	state     atomic.Int32
}

// NewSession validates entries and returns an idle session.
func NewSession(entries []catalog.Entry) (*Session, error) {
	if err := catalog.Validate(entries); err != nil {
		return nil, err
	}
	return &Session{entries: append([]catalog.Entry(nil), entries...)}, nil
}

// State returns the current run state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) busy() bool {
	st := s.State()
	return st == Confirming || st == Running
}

// Catalog returns a copy of the catalog.
func (s *Session) Catalog() []catalog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Entry(nil), s.entries...)
}

// SetCatalog replaces the catalog and drops selected ids it no longer has.
func (s *Session) SetCatalog(entries []catalog.Entry) error {
	if err := catalog.Validate(entries); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrRunInProgress
	}
	s.entries = append([]catalog.Entry(nil), entries...)
	kept := s.selection[:0]
	for _, id := range s.selection {
		if _, ok := catalog.Lookup(s.entries, id); ok {
			kept = append(kept, id)
		}
	}
	s.selection = kept
	return nil
}

// Selection returns the selected ids in selection order.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selection...)
}

// Select appends ids to the selection in the given order. Ids already
// selected keep their position.
func (s *Session) Select(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrRunInProgress
	}
	for _, id := range ids {
		if _, ok := catalog.Lookup(s.entries, id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEntry, id)
		}
	}
	for _, id := range ids {
		if !containsID(s.selection, id) {
			s.selection = append(s.selection, id)
		}
	}
	return nil
}

// SelectGroup appends every entry of group in catalog order.
func (s *Session) SelectGroup(group string) error {
	ids := catalog.InGroup(s.Catalog(), group)
	if len(ids) == 0 {
		return fmt.Errorf("%w: no entries in group %q", ErrUnknownEntry, group)
	}
	return s.Select(ids...)
}

// Deselect removes ids from the selection.
func (s *Session) Deselect(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrRunInProgress
	}
	kept := s.selection[:0]
	for _, id := range s.selection {
		if !containsID(ids, id) {
			kept = append(kept, id)
		}
	}
	s.selection = kept
	return nil
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrRunInProgress
	}
	s.selection = nil
	return nil
}

// begin moves an idle or completed session to Confirming and returns the
// selected entries in selection order. A failed begin leaves the state as it was.
func (s *Session) begin() ([]catalog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.State()
	if prev == Confirming || prev == Running {
		return nil, ErrRunInProgress
	}
	if len(s.selection) == 0 {
		return nil, ErrEmptySelection
	}
	out := make([]catalog.Entry, 0, len(s.selection))
	for _, id := range s.selection {
		e, ok := catalog.Lookup(s.entries, id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, id)
		}
		out = append(out, e)
	}
	if !s.state.CompareAndSwap(int32(prev), int32(Confirming)) {
		return nil, ErrRunInProgress
	}
	return out, nil
}

func (s *Session) transition(from, to State) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
