package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/dns"
	"github.com/vvyiloff/post-install/internal/netcfg"
	"github.com/vvyiloff/post-install/internal/system"
)

var dnsCmd = &cobra.Command{
	Use:   "dns",
	Short: "Inspect or change DNS servers of the active adapter",
}

var dnsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the DNS configuration of the active adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConfigurator(false)
		if err != nil {
			return err
		}
		status, err := c.Check(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Adapter: %s\n", color.CyanString("%s", status.Adapter))
		fmt.Fprintf(out, "DNS over HTTPS: %s\n\n", status.DoH)
		fmt.Fprintln(out, strings.TrimSpace(status.Output))
		return nil
	},
}

var dnsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Apply the configured DNS servers to the active adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newConfigurator(system.IsWindows11(ctx))
		if err != nil {
			return err
		}
		report, err := c.Set(ctx)
		auditLog.Log(audit.EventDNSSet, "", map[string]any{
			"adapter":    report.Adapter,
			"primary":    cfg.PrimaryDNS,
			"secondary":  cfg.SecondaryDNS,
			"degraded":   report.Degraded,
			"rolledBack": report.RolledBack,
			"success":    err == nil,
		})
		if err != nil {
			if report.RolledBack {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("DNS was reverted to DHCP"))
			}
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range report.Warnings {
			fmt.Fprintln(out, color.YellowString("warning: %s", w))
		}
		if report.Degraded {
			fmt.Fprintln(out, color.YellowString("Primary DNS applied to %s; secondary failed", report.Adapter))
			return nil
		}
		fmt.Fprintln(out, color.GreenString("DNS servers applied to %s", report.Adapter))
		return nil
	},
}

var dnsRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Return the active adapter to DHCP-assigned DNS",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConfigurator(false)
		if err != nil {
			return err
		}
		report, err := c.Rollback(cmd.Context())
		auditLog.Log(audit.EventDNSRollback, "", map[string]any{
			"adapter": report.Adapter,
			"success": err == nil,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("DNS of %s reset to automatic", report.Adapter))
		return nil
	},
}

func init() {
	dnsCmd.AddCommand(dnsCheckCmd)
	dnsCmd.AddCommand(dnsSetCmd)
	dnsCmd.AddCommand(dnsRollbackCmd)
}

// newConfigurator wires the adapter resolver and DoH registrar. The DoH
// template is only registered when registerDoH is set; removal and state
// checks always go through the registrar.
func newConfigurator(registerDoH bool) (*dns.Configurator, error) {
	resolver := netcfg.NewResolver(runner, netcfg.WithTimeout(seconds(cfg.AdapterTimeoutSeconds)))
	servers := dns.Servers{Primary: cfg.PrimaryDNS, Secondary: cfg.SecondaryDNS}
	if registerDoH {
		servers.DoHTemplate = cfg.DoHTemplate
	}
	return dns.New(runner, resolver, servers,
		dns.WithTimeout(seconds(cfg.DNSTimeoutSeconds)),
		dns.WithDoH(dns.NewRegistrar()),
	)
}
