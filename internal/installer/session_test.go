package installer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvyiloff/post-install/internal/catalog"
)

func TestNewSessionRejectsDuplicates(t *testing.T) {
	_, err := NewSession([]catalog.Entry{{ID: "A", Name: "a"}, {ID: "A", Name: "b"}})
	assert.ErrorIs(t, err, catalog.ErrDuplicateID)
}

func TestSelectKeepsCallerOrder(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Select("C", "A"))
	require.NoError(t, s.Select("A", "B"))
	assert.Equal(t, []string{"C", "A", "B"}, s.Selection())
}

func TestSelectUnknownIsAtomic(t *testing.T) {
	s := newSession(t, "A")
	err := s.Select("C", "Z")
	assert.ErrorIs(t, err, ErrUnknownEntry)
	assert.Equal(t, []string{"A"}, s.Selection())
}

func TestDeselectAndClear(t *testing.T) {
	s := newSession(t, "A", "B", "C")
	require.NoError(t, s.Deselect("B"))
	assert.Equal(t, []string{"A", "C"}, s.Selection())
	require.NoError(t, s.ClearSelection())
	assert.Empty(t, s.Selection())
}

func TestSelectGroup(t *testing.T) {
	s := newSession(t, "C")
	require.NoError(t, s.SelectGroup("G"))
	assert.Equal(t, []string{"C", "A", "B"}, s.Selection())
	assert.ErrorIs(t, s.SelectGroup("missing"), ErrUnknownEntry)
}

func TestSetCatalogPrunesSelection(t *testing.T) {
	s := newSession(t, "A", "B")
	require.NoError(t, s.SetCatalog([]catalog.Entry{{ID: "B", Name: "b"}, {ID: "D", Name: "d"}}))
	assert.Equal(t, []string{"B"}, s.Selection())
	assert.Len(t, s.Catalog(), 2)
}

func TestCatalogIsCopied(t *testing.T) {
	s := newSession(t)
	c := s.Catalog()
	c[0].Name = "changed"
	assert.Equal(t, "Alpha", s.Catalog()[0].Name)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "state(9)", State(9).String())
}
