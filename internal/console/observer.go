package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/installer"
)

// Printer renders run events as colored lines. It implements installer.Observer.
type Printer struct {
	out io.Writer
}

// NewPrinter writes to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Progress(text string, index, total int) {
	if index >= total {
		_, _ = fmt.Fprintln(p.out, color.CyanString("%s", text))
		return
	}
	_, _ = fmt.Fprintf(p.out, "%s %s...\n", color.CyanString("[%d/%d]", index+1, total), text)
}

func (p *Printer) Outcome(o installer.Outcome) {
	status := color.GreenString("OK  ")
	if !o.Success {
		status = color.RedString("FAIL")
	}
	_, _ = fmt.Fprintf(p.out, "  %s %s\n", status, o.Message)
}

func (p *Printer) Summary(s installer.Summary) {
	_, _ = fmt.Fprintln(p.out)
	line := fmt.Sprintf("Installed: %d, failed: %d (%s)", s.SuccessCount, s.ErrorCount, s.Duration.Round(time.Second))
	if s.ErrorCount > 0 {
		_, _ = fmt.Fprintln(p.out, color.YellowString("%s", line))
	} else {
		_, _ = fmt.Fprintln(p.out, color.GreenString("%s", line))
	}
	if s.RebootHinted && !s.RebootRequired {
		_, _ = fmt.Fprintln(p.out, color.YellowString("An installer asked for a restart; consider rebooting."))
	}
}

func (p *Printer) RebootPrompt(entries []catalog.Entry) {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.DisplayName())
	}
	_, _ = fmt.Fprintln(p.out, color.YellowString("A restart is required to finish: %s", strings.Join(names, ", ")))
}

// PrintReboot reports the outcome of the restart offer.
func (p *Printer) PrintReboot(s installer.Summary, delay time.Duration) {
	switch {
	case s.RebootScheduled:
		_, _ = fmt.Fprintf(p.out, "%s\n", color.GreenString("Restart scheduled in %s", delay))
	case s.RebootError != "":
		_, _ = fmt.Fprintln(p.out, color.RedString("Could not schedule restart: %s", s.RebootError))
	}
}
