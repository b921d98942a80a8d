package catalog

// Changes lists the ids that differ between two catalogs.
type Changes struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the catalogs are equivalent.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Diff compares current against next. Added and Changed follow next's
// order; Removed follows current's.
func Diff(current, next []Entry) Changes {
	var c Changes
	old := make(map[string]Entry, len(current))
	for _, e := range current {
		old[e.ID] = e
	}
	fresh := make(map[string]bool, len(next))
	for _, e := range next {
		fresh[e.ID] = true
		prev, ok := old[e.ID]
		switch {
		case !ok:
			c.Added = append(c.Added, e.ID)
		case prev != e:
			c.Changed = append(c.Changed, e.ID)
		}
	}
	for _, e := range current {
		if !fresh[e.ID] {
			c.Removed = append(c.Removed, e.ID)
		}
	}
	return c
}
