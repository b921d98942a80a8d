package installer

import (
	"fmt"
	"strings"

	"github.com/vvyiloff/post-install/internal/catalog"
)

const (
	titleConfirmInstall = "Confirm installation"
	titleRebootWarning  = "Reboot required"
	titleRebootNow      = "Restart now?"
)

// confirmation builds the prompt shown before a run. Entries that need a
// reboot are called out on their own; otherwise every entry is listed.
func confirmation(entries []catalog.Entry) (title, message string) {
	var reboot []string
	for _, e := range entries {
		if e.Reboot {
			reboot = append(reboot, e.DisplayName())
		}
	}
	if len(reboot) > 0 {
		return titleRebootWarning, fmt.Sprintf(
			"The following programs require a reboot: %s\n\nContinue installation?",
			strings.Join(reboot, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Install %d program(s)?\n", len(entries))
	for _, e := range entries {
		b.WriteString("\n• ")
		b.WriteString(e.DisplayName())
	}
	return titleConfirmInstall, b.String()
}

func rebootQuestion(entries []catalog.Entry) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.DisplayName())
	}
	return fmt.Sprintf("%s need a restart to finish installing. Restart the computer now?",
		strings.Join(names, ", "))
}
