package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/config"
	"github.com/vvyiloff/post-install/internal/health"
	"github.com/vvyiloff/post-install/internal/netcfg"
	"github.com/vvyiloff/post-install/internal/privilege"
	"github.com/vvyiloff/post-install/internal/system"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that winget, the network adapter and the catalog are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := health.NewMonitor()
		registerChecks(m)
		checks := m.Run(cmd.Context())

		out := cmd.OutOrStdout()
		if doctorJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(m.Summary()); err != nil {
				return err
			}
		} else {
			for _, c := range checks {
				printCheck(out, c)
			}
		}

		if m.Overall() == health.Unhealthy {
			return errors.New("one or more checks failed")
		}
		if !doctorJSON {
			fmt.Fprintln(out, color.GreenString("All required checks passed"))
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the summary as JSON")
}

func registerChecks(m *health.Monitor) {
	m.Register("system", func(ctx context.Context) (health.Status, string) {
		info, err := system.Collect(ctx)
		if err != nil {
			return health.Degraded, err.Error()
		}
		return health.Healthy, info.FriendlyName
	})

	m.Register("elevation", func(context.Context) (health.Status, string) {
		if privilege.IsElevated() {
			return health.Healthy, "running elevated"
		}
		return health.Degraded, "not elevated; install and dns commands may fail"
	})

	m.Register("winget", func(ctx context.Context) (health.Status, string) {
		v, err := newBridge().Version(ctx)
		if err != nil {
			return health.Unhealthy, err.Error()
		}
		return health.Healthy, "winget " + v
	})

	m.Register("adapter", func(ctx context.Context) (health.Status, string) {
		resolver := netcfg.NewResolver(runner, netcfg.WithTimeout(seconds(cfg.AdapterTimeoutSeconds)))
		name, ok := resolver.Resolve(ctx)
		if !ok {
			return health.Degraded, "no active network adapter found"
		}
		return health.Healthy, name
	})

	m.Register("dns", func(ctx context.Context) (health.Status, string) {
		c, err := newConfigurator(false)
		if err != nil {
			return health.Unhealthy, err.Error()
		}
		status, err := c.Check(ctx)
		if err != nil {
			return health.Unknown, err.Error()
		}
		if !strings.Contains(status.Output, cfg.PrimaryDNS) {
			return health.Degraded, fmt.Sprintf("%s does not use %s", status.Adapter, cfg.PrimaryDNS)
		}
		if cfg.SecondaryDNS != "" && !strings.Contains(status.Output, cfg.SecondaryDNS) {
			return health.Degraded, fmt.Sprintf("%s is missing secondary %s", status.Adapter, cfg.SecondaryDNS)
		}
		return health.Healthy, fmt.Sprintf("%s uses the configured servers (DoH %s)", status.Adapter, status.DoH)
	})

	m.Register("catalog", func(ctx context.Context) (health.Status, string) {
		loaded := catalogSource().Load(ctx)
		msg := fmt.Sprintf("%d programs from %s", len(loaded.Entries), loaded.Origin)
		if len(loaded.Errors) > 0 || loaded.Origin == catalog.OriginDefault {
			return health.Degraded, msg
		}
		return health.Healthy, msg
	})

	m.Register("audit", func(ctx context.Context) (health.Status, string) {
		if !cfg.AuditEnabled {
			return health.Healthy, "disabled"
		}
		path := filepath.Join(config.GetDataDir(), audit.FileName)
		n, err := audit.Verify(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return health.Healthy, "no entries yet"
		case err != nil:
			return health.Unhealthy, err.Error()
		}
		return health.Healthy, fmt.Sprintf("%d entries, chain intact", n)
	})
}

func printCheck(w io.Writer, c health.Check) {
	var label string
	switch c.Status {
	case health.Healthy:
		label = color.GreenString("[OK]  ")
	case health.Degraded:
		label = color.YellowString("[WARN]")
	case health.Unhealthy:
		label = color.RedString("[FAIL]")
	default:
		label = color.New(color.Faint).Sprint("[??]  ")
	}
	fmt.Fprintf(w, "%s %-8s %s\n", label, c.Name, c.Message)
}
