package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/system"
)

var (
	rebootDelay  time.Duration
	rebootCancel bool
	sysinfoJSON  bool
)

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Schedule or cancel a restart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r := system.NewRebooter(runner)
		out := cmd.OutOrStdout()
		if rebootCancel {
			if err := r.CancelReboot(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, color.GreenString("Scheduled restart cancelled"))
			return nil
		}

		delay := rebootDelay
		if !cmd.Flags().Changed("delay") {
			delay = seconds(cfg.RebootDelaySeconds)
		}
		if err := r.ScheduleReboot(ctx, delay); err != nil {
			return err
		}
		auditLog.Log(audit.EventRebootScheduled, "", map[string]any{"delaySeconds": int(delay / time.Second)})
		fmt.Fprintln(out, color.YellowString("Restart scheduled in %s; run 'post-install reboot --cancel' to abort", delay))
		return nil
	},
}

var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Show host and OS information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := system.Collect(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if sysinfoJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Fprintf(out, "User:     %s\n", info.Username)
		fmt.Fprintf(out, "Host:     %s\n", info.Hostname)
		fmt.Fprintf(out, "System:   %s\n", info.FriendlyName)
		fmt.Fprintf(out, "Platform: %s %s\n", info.Platform, info.PlatformVersion)
		fmt.Fprintf(out, "Kernel:   %s (%s)\n", info.KernelVersion, info.KernelArch)
		return nil
	},
}

func init() {
	rebootCmd.Flags().DurationVar(&rebootDelay, "delay", system.DefaultRebootDelay, "time before the restart")
	rebootCmd.Flags().BoolVar(&rebootCancel, "cancel", false, "cancel a pending restart")
	sysinfoCmd.Flags().BoolVar(&sysinfoJSON, "json", false, "print as JSON")
}
