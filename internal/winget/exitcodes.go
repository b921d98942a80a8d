package winget

import "fmt"

// exitInfo holds a symbolic name and description for a winget exit code.
type exitInfo struct {
	Name    string
	Message string
}

// knownExitCodes maps winget HRESULT exit codes to descriptions.
var knownExitCodes = map[uint32]exitInfo{
	0x8A150014: {"NO_APPLICATIONS_FOUND", "no package found matching input criteria"},
	0x8A15002B: {"UPDATE_NOT_APPLICABLE", "no applicable update found"},
	0x8A150061: {"PACKAGE_ALREADY_INSTALLED", "package is already installed"},

	// installer failures
	0x8A150101: {"INSTALL_PACKAGE_IN_USE", "application is currently running"},
	0x8A150102: {"INSTALL_INSTALL_IN_PROGRESS", "another installation is already in progress"},
	0x8A150103: {"INSTALL_FILE_IN_USE", "one or more files are in use"},
	0x8A150104: {"INSTALL_MISSING_DEPENDENCY", "a dependency is missing"},
	0x8A150105: {"INSTALL_DISK_FULL", "there is not enough disk space"},
	0x8A150106: {"INSTALL_INSUFFICIENT_MEMORY", "there is not enough memory"},
	0x8A150107: {"INSTALL_NO_NETWORK", "network connection is required"},
	0x8A150108: {"INSTALL_CONTACT_SUPPORT", "installation failed, contact the vendor"},
	0x8A150109: {"INSTALL_REBOOT_REQUIRED_TO_FINISH", "restart the computer to finish installation"},
	0x8A15010A: {"INSTALL_REBOOT_REQUIRED_FOR_INSTALL", "restart the computer, then try again"},
	0x8A15010B: {"INSTALL_REBOOT_INITIATED", "installation initiated a restart"},
	0x8A15010C: {"INSTALL_CANCELLED_BY_USER", "installation was cancelled"},
	0x8A15010D: {"INSTALL_ALREADY_INSTALLED", "another version is already installed"},
}

// DescribeExitCode renders an exit code for display.
// Known codes: "0x8A150014 NO_APPLICATIONS_FOUND: no package found matching input criteria"
// Other codes: "exit code 2"
func DescribeExitCode(code int) string {
	if info, ok := knownExitCodes[uint32(code)]; ok {
		return fmt.Sprintf("0x%08X %s: %s", uint32(code), info.Name, info.Message)
	}
	return fmt.Sprintf("exit code %d", code)
}

// IsRebootExitCode reports whether the installer asked for a restart.
func IsRebootExitCode(code int) bool {
	switch uint32(code) {
	case 0x8A150109, 0x8A15010A, 0x8A15010B:
		return true
	}
	return false
}

// IsAlreadyInstalled reports whether the exit code means nothing had to be done.
func IsAlreadyInstalled(code int) bool {
	switch uint32(code) {
	case 0x8A15002B, 0x8A150061, 0x8A15010D:
		return true
	}
	return false
}
