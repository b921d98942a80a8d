package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/console"
	"github.com/vvyiloff/post-install/internal/installer"
	"github.com/vvyiloff/post-install/internal/system"
)

var (
	installGroup string
	assumeYes    bool
	noReboot     bool
)

var installCmd = &cobra.Command{
	Use:   "install [package-id...]",
	Short: "Install catalog programs",
	Long: `Install the given catalog programs in order. Without arguments or --group,
an interactive list of the catalog is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		loaded := catalogSource().Load(ctx)
		printOrigin(cmd.ErrOrStderr(), loaded)

		bridge := newBridge()
		if !bridge.IsAvailable(ctx) {
			return errors.New("winget is not available; install App Installer from the Microsoft Store")
		}

		session, err := installer.NewSession(loaded.Entries)
		if err != nil {
			return err
		}
		prompter := console.NewPrompter()

		switch {
		case installGroup != "":
			if err := session.SelectGroup(installGroup); err != nil {
				return err
			}
			if err := session.Select(args...); err != nil {
				return err
			}
		case len(args) > 0:
			if err := session.Select(args...); err != nil {
				return err
			}
		default:
			annotated, err := catalog.NewReconciler(bridge).Reconcile(ctx, loaded.Entries)
			if err != nil {
				return err
			}
			picked, err := prompter.PickEntries(ctx, annotated)
			if err != nil {
				return err
			}
			if err := session.Select(picked...); err != nil {
				return err
			}
		}

		var confirmer installer.Confirmer = prompter
		if assumeYes {
			confirmer = installer.AlwaysYes
		}
		printer := console.NewPrinter(out)
		delay := seconds(cfg.RebootDelaySeconds)
		opts := []installer.Option{
			installer.WithObserver(printer),
			installer.WithRecorder(auditLog),
		}
		if !noReboot {
			opts = append(opts, installer.WithRebooter(system.NewRebooter(runner), delay))
		}

		summary, err := installer.New(bridge, confirmer, opts...).Run(ctx, session)
		switch {
		case errors.Is(err, installer.ErrDeclined):
			fmt.Fprintln(out, color.YellowString("Installation cancelled"))
			return nil
		case errors.Is(err, installer.ErrEmptySelection):
			fmt.Fprintln(out, "Nothing selected")
			return nil
		case err != nil:
			return err
		}

		printer.PrintReboot(summary, delay)
		if summary.ErrorCount > 0 {
			return fmt.Errorf("%d of %d installations failed", summary.ErrorCount, len(summary.Outcomes))
		}
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package-id>",
	Short: "Uninstall a program through winget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		name := id
		if e, ok := catalog.Lookup(catalogSource().Load(ctx).Entries, id); ok {
			name = e.DisplayName()
		}

		res, err := newBridge().Uninstall(ctx, id, name)
		if err != nil {
			return err
		}
		auditLog.Log(audit.EventUninstall, "", map[string]any{
			"id":       id,
			"success":  res.Success,
			"exitCode": res.ExitCode,
			"message":  res.Message,
		})
		if !res.Success {
			return errors.New(res.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("%s", res.Message))
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installGroup, "group", "", "select every program of a catalog group")
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every prompt, including the restart offer")
	installCmd.Flags().BoolVar(&noReboot, "no-reboot", false, "never offer to restart after the run")
}
