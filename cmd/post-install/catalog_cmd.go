package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/logging"
)

var (
	installedOnly bool
	missingOnly   bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog programs with their installed state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loaded := catalogSource().Load(ctx)
		printOrigin(cmd.ErrOrStderr(), loaded)

		bridge := newBridge()
		if !bridge.IsAvailable(ctx) {
			return errors.New("winget is not available; install App Installer from the Microsoft Store")
		}
		annotated, err := catalog.NewReconciler(bridge).Reconcile(ctx, loaded.Entries)
		if err != nil {
			return err
		}

		var shown []catalog.AnnotatedEntry
		for _, e := range annotated {
			if installedOnly && !e.Installed || missingOnly && e.Installed {
				continue
			}
			shown = append(shown, e)
		}
		printCatalog(cmd.OutOrStdout(), shown)
		return nil
	},
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the catalog and save it over the local copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.CatalogURL == "" {
			return errors.New("catalog_url is not configured")
		}
		path := catalogPath()
		if path == "" {
			return errors.New("catalog_file is not configured")
		}

		next, err := catalog.Fetch(cmd.Context(), cfg.CatalogURL)
		if err != nil {
			return err
		}
		current, err := catalog.LoadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("local catalog unreadable, replacing it", "path", path, logging.KeyError, err.Error())
		}

		out := cmd.OutOrStdout()
		changes := catalog.Diff(current, next)
		if changes.Empty() && current != nil {
			fmt.Fprintln(out, color.GreenString("Catalog is up to date (%d programs)", len(next)))
			return nil
		}
		printChanges(out, changes)

		if err := catalog.Save(path, next); err != nil {
			return err
		}
		auditLog.Log(audit.EventCatalogUpdated, "", map[string]any{
			"path":    path,
			"url":     cfg.CatalogURL,
			"added":   changes.Added,
			"removed": changes.Removed,
			"changed": changes.Changed,
		})
		fmt.Fprintf(out, "Saved %d programs to %s\n", len(next), path)
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&installedOnly, "installed-only", false, "show only installed programs")
	catalogCmd.Flags().BoolVar(&missingOnly, "missing-only", false, "show only programs that are not installed")
	catalogCmd.MarkFlagsMutuallyExclusive("installed-only", "missing-only")
	catalogCmd.AddCommand(catalogUpdateCmd)
}

func printOrigin(w io.Writer, loaded catalog.Loaded) {
	for _, err := range loaded.Errors {
		fmt.Fprintln(w, color.YellowString("catalog source skipped: %v", err))
	}
	if loaded.Origin == catalog.OriginDefault {
		fmt.Fprintln(w, color.YellowString("using the built-in catalog"))
	}
}

func printCatalog(w io.Writer, entries []catalog.AnnotatedEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tNAME\tID\tGROUP\tREBOOT")
	for _, e := range entries {
		status := "missing"
		switch {
		case e.ProbeError != "":
			status = "unknown"
		case e.Installed:
			status = "installed"
		}
		reboot := ""
		if e.Reboot {
			reboot = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", status, e.DisplayName(), e.ID, e.Group, reboot)
	}
	_ = tw.Flush()
}

func printChanges(w io.Writer, c catalog.Changes) {
	if len(c.Added) > 0 {
		fmt.Fprintln(w, color.GreenString("added:   %s", strings.Join(c.Added, ", ")))
	}
	if len(c.Removed) > 0 {
		fmt.Fprintln(w, color.RedString("removed: %s", strings.Join(c.Removed, ", ")))
	}
	if len(c.Changed) > 0 {
		fmt.Fprintln(w, color.YellowString("changed: %s", strings.Join(c.Changed, ", ")))
	}
}
