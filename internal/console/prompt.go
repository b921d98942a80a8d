package console

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("console")

// ErrNotInteractive is returned when a prompt needs a terminal and there is none.
var ErrNotInteractive = errors.New("no interactive terminal; pass --yes to proceed unattended")

// ErrAborted is returned when the user leaves a form with Esc or Ctrl+C.
var ErrAborted = errors.New("aborted by user")

var runFormFunc = func(ctx context.Context, form *huh.Form) error { return form.RunWithContext(ctx) }

// Prompter asks questions through huh forms. It satisfies installer.Confirmer.
type Prompter struct {
	isTerminal func() bool
}

// NewPrompter returns a Prompter that checks IsInteractive before each form.
func NewPrompter() *Prompter {
	return &Prompter{isTerminal: IsInteractive}
}

func (p *Prompter) run(ctx context.Context, form *huh.Form) error {
	check := p.isTerminal
	if check == nil {
		check = IsInteractive
	}
	if !check() {
		return ErrNotInteractive
	}
	form.WithProgramOptions(tea.WithOutput(os.Stderr))
	err := runFormFunc(ctx, form)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// Confirm shows a yes/no question. Without a terminal the answer is no.
func (p *Prompter) Confirm(ctx context.Context, title, message string) (bool, error) {
	answer := false
	err := p.run(ctx, huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(message).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	))
	switch {
	case errors.Is(err, ErrNotInteractive):
		log.Warn("confirmation skipped, no terminal", "title", title)
		return false, nil
	case errors.Is(err, ErrAborted):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return answer, nil
}

// PickEntries lets the user choose catalog entries. Installed entries are
// labelled and start unselected. The returned ids follow catalog order.
func (p *Prompter) PickEntries(ctx context.Context, entries []catalog.AnnotatedEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	opts := make([]huh.Option[string], 0, len(entries))
	for _, e := range entries {
		opts = append(opts, huh.NewOption(entryLabel(e), e.ID))
	}

	var picked []string
	err := p.run(ctx, huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select programs to install").
				Options(opts...).
				Height(min(len(opts)+2, 20)).
				Value(&picked),
		),
	))
	if err != nil {
		return nil, err
	}
	return orderLike(entries, picked), nil
}

func entryLabel(e catalog.AnnotatedEntry) string {
	label := e.DisplayName()
	if e.Group != "" {
		label = fmt.Sprintf("%s [%s]", label, e.Group)
	}
	switch {
	case e.Installed:
		label += " (installed)"
	case e.ProbeError != "":
		label += " (status unknown)"
	}
	if e.Reboot {
		label += " *reboot"
	}
	return label
}

func orderLike(entries []catalog.AnnotatedEntry, picked []string) []string {
	set := make(map[string]bool, len(picked))
	for _, id := range picked {
		set[id] = true
	}
	out := make([]string, 0, len(picked))
	for _, e := range entries {
		if set[e.ID] {
			out = append(out, e.ID)
		}
	}
	return out
}
