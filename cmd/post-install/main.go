package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/config"
	"github.com/vvyiloff/post-install/internal/executor"
	"github.com/vvyiloff/post-install/internal/logging"
	"github.com/vvyiloff/post-install/internal/privilege"
	"github.com/vvyiloff/post-install/internal/winget"
)

var (
	version   = "0.1.0"
	cfgFile   string
	logLevel  string
	logFormat string

	cfg      *config.Config
	runner   executor.Runner = executor.NewRunner()
	auditLog *audit.Logger
	logFile  io.Closer
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "post-install",
	Short: "Post-install helper for fresh Windows setups",
	Long: `post-install installs a curated set of programs through winget and
points the active network adapter at custom DNS servers.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "post-install v%s\n", version)
	},
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (setup -> commandKey -> rootCmd).
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentPostRunE = teardown

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is post-install.yaml in the config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (text, json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(installedCmd)
	rootCmd.AddCommand(upgradesCmd)
	rootCmd.AddCommand(dnsCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(sysinfoCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	if logFormat != "" {
		loaded.LogFormat = logFormat
	}

	result := loaded.ValidateTiered()
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, color.YellowString("config warning: %v", w))
	}
	if result.HasFatals() {
		return fmt.Errorf("invalid config: %w", errors.Join(result.Fatals...))
	}
	cfg = loaded

	logFile, err = logging.Setup(logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("warning: %v", err))
	}

	if key := commandKey(cmd); privilege.RequiresElevation(key) && !privilege.IsElevated() {
		log.Warn("command requires administrator rights", "command", key)
		fmt.Fprintln(os.Stderr, color.YellowString("warning: %q usually needs an elevated (administrator) prompt", key))
	}

	if cfg.AuditEnabled && needsAudit(cmd) {
		auditLog, err = audit.NewLogger(cfg)
		if err != nil {
			log.Warn("audit log disabled", logging.KeyError, err.Error())
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if auditLog != nil {
		if n := auditLog.DroppedCount(); n > 0 {
			log.Warn("audit events dropped", "count", n)
		}
		_ = auditLog.Close()
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	return nil
}

// commandKey is the command path without the root name, e.g. "dns set".
func commandKey(cmd *cobra.Command) string {
	return strings.TrimPrefix(strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()), " ")
}

// needsAudit limits the audit file to commands that change the machine.
func needsAudit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "sysinfo", "installed", "upgrades", "check", "doctor":
		return false
	}
	return true
}

func newBridge() *winget.Bridge {
	return winget.New(runner,
		winget.WithPath(cfg.WingetPath),
		winget.WithProbeTimeout(seconds(cfg.ProbeTimeoutSeconds)),
		winget.WithInstallTimeout(seconds(cfg.InstallTimeoutSeconds)),
	)
}

func catalogSource() catalog.Source {
	return catalog.Source{File: catalogPath(), URL: cfg.CatalogURL}
}

// catalogPath resolves a relative catalog_file against the data dir when it
// is not present in the working directory.
func catalogPath() string {
	p := cfg.CatalogFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return filepath.Join(config.GetDataDir(), p)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
