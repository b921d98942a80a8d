// Package privilege reports whether the process can change system settings.
package privilege

// elevatedCommands lists the CLI commands that change machine-wide state.
// Keys are command paths below the root command.
var elevatedCommands = map[string]bool{
	"install":      true,
	"uninstall":    true,
	"dns set":      true,
	"dns rollback": true,
	"reboot":       true,
}

// RequiresElevation returns true if the command needs admin rights.
func RequiresElevation(command string) bool {
	return elevatedCommands[command]
}
