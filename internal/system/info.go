package system

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Info is a snapshot of the host.
type Info struct {
	Username        string `json:"username"`
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	KernelVersion   string `json:"kernelVersion"`
	KernelArch      string `json:"kernelArch"`
	// FriendlyName is e.g. "Windows 11 (build 22631)".
	FriendlyName string `json:"friendlyName"`
	Build        int    `json:"build,omitempty"`
}

var hostInfo = host.InfoWithContext

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Collect gathers host facts through gopsutil.
func Collect(ctx context.Context) (Info, error) {
	h, err := hostInfo(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("host info: %w", err)
	}

	info := Info{
		Username:        currentUsername(),
		Hostname:        h.Hostname,
		OS:              h.OS,
		Platform:        h.Platform,
		PlatformVersion: h.PlatformVersion,
		KernelVersion:   h.KernelVersion,
		KernelArch:      h.KernelArch,
	}

	if strings.EqualFold(h.OS, "windows") {
		version := h.KernelVersion
		if version == "" {
			version = h.PlatformVersion
		}
		info.FriendlyName, info.Build = WindowsName(version)
	} else {
		info.FriendlyName = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	}
	return info, nil
}

// WindowsName maps an NT version string ("10.0.22631", "6.1.7601") to a
// marketing name and build number. Windows 11 still reports 10.0 and is
// told apart by build >= 22000.
func WindowsName(version string) (string, int) {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return "Windows", 0
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	build, _ := strconv.Atoi(m[3])

	var name string
	switch {
	case major == 10 && build >= 22000:
		name = "Windows 11"
	case major == 10:
		name = "Windows 10"
	case major == 6 && minor == 3:
		name = "Windows 8.1"
	case major == 6 && minor == 2:
		name = "Windows 8"
	case major == 6 && minor == 1:
		name = "Windows 7"
	default:
		name = fmt.Sprintf("Windows %d.%d", major, minor)
	}
	if build > 0 {
		name = fmt.Sprintf("%s (build %d)", name, build)
	}
	return name, build
}

// IsWindows11 reports whether the host runs Windows 11 or later.
func IsWindows11(ctx context.Context) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	info, err := Collect(ctx)
	if err != nil {
		log.Warn("cannot determine Windows version", "error", err.Error())
		return false
	}
	return info.Build >= 22000
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// DOMAIN\user on Windows
		if idx := strings.LastIndex(u.Username, `\`); idx >= 0 {
			return u.Username[idx+1:]
		}
		return u.Username
	}
	for _, env := range []string{"USERNAME", "USER"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "unknown"
}
