package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List every package winget reports as installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, err := newBridge().ListInstalled(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tVERSION\tSOURCE")
		for _, p := range pkgs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.ID, p.Version, p.Source)
		}
		return tw.Flush()
	},
}

var upgradesCmd = &cobra.Command{
	Use:   "upgrades",
	Short: "List installed packages with a newer version available",
	RunE: func(cmd *cobra.Command, args []string) error {
		ups, err := newBridge().ListUpgrades(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ups) == 0 {
			fmt.Fprintln(out, "Everything is up to date")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tID\tVERSION\tAVAILABLE")
		for _, u := range ups {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Name, u.ID, u.Version, u.Available)
		}
		return tw.Flush()
	},
}
