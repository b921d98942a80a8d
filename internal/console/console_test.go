package console

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/installer"
)

func withNoColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func withForm(t *testing.T, fn func(ctx context.Context, form *huh.Form) error) {
	t.Helper()
	prev := runFormFunc
	runFormFunc = fn
	t.Cleanup(func() { runFormFunc = prev })
}

func TestPrinterRun(t *testing.T) {
	withNoColor(t)
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Progress("Installing Git", 0, 2)
	p.Outcome(installer.Outcome{ID: "Git.Git", Success: true, Message: "Git installed successfully"})
	p.Progress("Installing Steam", 1, 2)
	p.Outcome(installer.Outcome{ID: "Valve.Steam", Message: "Steam: failed (exit code 1)"})
	p.Progress("Installation finished", 2, 2)
	p.Summary(installer.Summary{SuccessCount: 1, ErrorCount: 1, Duration: 3 * time.Second})

	assert.Equal(t,
		"[1/2] Installing Git...\n"+
			"  OK   Git installed successfully\n"+
			"[2/2] Installing Steam...\n"+
			"  FAIL Steam: failed (exit code 1)\n"+
			"Installation finished\n"+
			"\n"+
			"Installed: 1, failed: 1 (3s)\n",
		buf.String())
}

func TestPrinterReboot(t *testing.T) {
	withNoColor(t)
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.RebootPrompt([]catalog.Entry{{ID: "Riot.Valorant", Name: "Valorant"}, {ID: "X", Name: "Driver"}})
	p.PrintReboot(installer.Summary{RebootScheduled: true}, 15*time.Second)
	p.PrintReboot(installer.Summary{RebootError: "access denied"}, 15*time.Second)

	assert.Equal(t,
		"A restart is required to finish: Valorant, Driver\n"+
			"Restart scheduled in 15s\n"+
			"Could not schedule restart: access denied\n",
		buf.String())
}

func TestConfirmWithoutTerminalDeclines(t *testing.T) {
	withForm(t, func(context.Context, *huh.Form) error {
		t.Fatal("form must not run without a terminal")
		return nil
	})
	p := &Prompter{isTerminal: func() bool { return false }}

	ok, err := p.Confirm(context.Background(), "Confirm installation", "Install 1 program(s)?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmAbortDeclines(t *testing.T) {
	withForm(t, func(context.Context, *huh.Form) error { return huh.ErrUserAborted })
	p := &Prompter{isTerminal: func() bool { return true }}

	ok, err := p.Confirm(context.Background(), "t", "m")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmFormError(t *testing.T) {
	withForm(t, func(context.Context, *huh.Form) error { return errors.New("tty gone") })
	p := &Prompter{isTerminal: func() bool { return true }}

	_, err := p.Confirm(context.Background(), "t", "m")
	assert.ErrorContains(t, err, "tty gone")
}

func TestPickEntriesRequiresTerminal(t *testing.T) {
	p := &Prompter{isTerminal: func() bool { return false }}
	_, err := p.PickEntries(context.Background(), []catalog.AnnotatedEntry{{Entry: catalog.Entry{ID: "a", Name: "A"}}})
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestEntryLabel(t *testing.T) {
	tests := []struct {
		entry catalog.AnnotatedEntry
		want  string
	}{
		{catalog.AnnotatedEntry{Entry: catalog.Entry{ID: "Git.Git", Name: "Git", Group: "dev"}}, "Git [dev]"},
		{catalog.AnnotatedEntry{Entry: catalog.Entry{ID: "Git.Git", Name: "Git"}, Installed: true}, "Git (installed)"},
		{catalog.AnnotatedEntry{Entry: catalog.Entry{ID: "V", Name: "Valorant", Reboot: true}, ProbeError: "timeout"}, "Valorant (status unknown) *reboot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entryLabel(tt.entry))
	}
}

func TestOrderLikeFollowsCatalog(t *testing.T) {
	entries := []catalog.AnnotatedEntry{
		{Entry: catalog.Entry{ID: "a"}},
		{Entry: catalog.Entry{ID: "b"}},
		{Entry: catalog.Entry{ID: "c"}},
	}
	assert.Equal(t, []string{"a", "c"}, orderLike(entries, []string{"c", "a"}))
}
