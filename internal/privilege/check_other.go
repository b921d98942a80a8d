//go:build !windows

package privilege

import "os"

// IsElevated returns true when running as root.
func IsElevated() bool {
	return os.Getuid() == 0
}
