// Package catalog loads the list of installable packages and annotates it
// with installed state.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateID is returned when two entries share an identifier.
var ErrDuplicateID = errors.New("duplicate catalog id")

// Entry is one installable item.
type Entry struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Group  string `json:"group" yaml:"group"`
	Reboot bool   `json:"reboot,omitempty" yaml:"reboot,omitempty"`
}

// DisplayName falls back to the ID when the entry has no name.
func (e Entry) DisplayName() string {
	if e.Name == "" {
		return e.ID
	}
	return e.Name
}

// AnnotatedEntry is an Entry plus the installed state observed by one
// reconciliation pass.
type AnnotatedEntry struct {
	Entry
	Installed  bool
	ProbeError string
}

// Validate checks that every entry has an id and a name and that ids are unique.
func Validate(entries []Entry) error {
	var errs []error
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			errs = append(errs, fmt.Errorf("entry %d: missing id", i))
			continue
		}
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("entry %d (%s): missing name", i, e.ID))
		}
		if first, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%w %q at entries %d and %d", ErrDuplicateID, e.ID, first, i))
			continue
		}
		seen[e.ID] = i
	}
	return errors.Join(errs...)
}

// Lookup returns the entry with id.
func Lookup(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Groups returns group names in order of first appearance.
func Groups(entries []Entry) []string {
	var groups []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Group] {
			seen[e.Group] = true
			groups = append(groups, e.Group)
		}
	}
	return groups
}

// InGroup returns the ids of entries in group, in catalog order. Group
// matching ignores case.
func InGroup(entries []Entry, group string) []string {
	var ids []string
	for _, e := range entries {
		if strings.EqualFold(e.Group, group) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
