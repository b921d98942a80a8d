package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult splits problems into fatals, which must stop the CLI, and
// warnings, which were corrected or can be ignored.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether any fatal problem was found.
func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks the config. Out-of-range timeouts are clamped to a safe
// range and reported as warnings; values the CLI cannot work with are fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if ip := net.ParseIP(c.PrimaryDNS); ip == nil || ip.To4() == nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("primary_dns %q is not a valid IPv4 address", c.PrimaryDNS))
	}
	if c.SecondaryDNS != "" {
		if ip := net.ParseIP(c.SecondaryDNS); ip == nil || ip.To4() == nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("secondary_dns %q is not a valid IPv4 address", c.SecondaryDNS))
		}
	}

	if c.CatalogURL != "" {
		u, err := url.Parse(c.CatalogURL)
		if err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("catalog_url %q is not a valid URL: %w", c.CatalogURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			r.Fatals = append(r.Fatals, fmt.Errorf("catalog_url scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.DoHTemplate != "" {
		if u, err := url.Parse(c.DoHTemplate); err != nil || u.Scheme != "https" {
			r.Warnings = append(r.Warnings, fmt.Errorf("doh_template %q is not an https URL, DoH registration disabled", c.DoHTemplate))
			c.DoHTemplate = ""
		}
	}

	if strings.TrimSpace(c.WingetPath) == "" {
		r.Warnings = append(r.Warnings, fmt.Errorf("winget_path is empty, using winget"))
		c.WingetPath = "winget"
	}

	clamp(&r, "dns_timeout_seconds", &c.DNSTimeoutSeconds, 1, 300)
	clamp(&r, "adapter_timeout_seconds", &c.AdapterTimeoutSeconds, 1, 120)
	clamp(&r, "probe_timeout_seconds", &c.ProbeTimeoutSeconds, 5, 600)
	clamp(&r, "install_timeout_seconds", &c.InstallTimeoutSeconds, 30, 7200)
	clamp(&r, "reboot_delay_seconds", &c.RebootDelaySeconds, 0, 600)
	clamp(&r, "audit_max_size_mb", &c.AuditMaxSizeMB, 1, 500)
	clamp(&r, "audit_max_backups", &c.AuditMaxBackups, 1, 50)

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}

	return r
}

func clamp(r *ValidationResult, key string, value *int, min, max int) {
	switch {
	case *value < min:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d is below minimum %d, clamping", key, *value, min))
		*value = min
	case *value > max:
		r.Warnings = append(r.Warnings, fmt.Errorf("%s %d exceeds maximum %d, clamping", key, *value, max))
		*value = max
	}
}
