package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/config"
	"github.com/vvyiloff/post-install/internal/health"
)

func TestCatalogPathFallsBackToDataDir(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("POSTINSTALL_DATA_DIR", dataDir)
	t.Chdir(t.TempDir())

	cfg = config.Default()
	cfg.CatalogFile = "packages.json"
	assert.Equal(t, filepath.Join(dataDir, "packages.json"), catalogPath())

	assert.NoError(t, os.WriteFile("packages.json", []byte("[]"), 0o600))
	assert.Equal(t, "packages.json", catalogPath())

	abs := filepath.Join(dataDir, "custom.yaml")
	cfg.CatalogFile = abs
	assert.Equal(t, abs, catalogPath())
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, []catalog.AnnotatedEntry{
		{Entry: catalog.Entry{ID: "Git.Git", Name: "Git", Group: "dev"}, Installed: true},
		{Entry: catalog.Entry{ID: "Riot.Valorant", Name: "Valorant", Reboot: true}},
		{Entry: catalog.Entry{ID: "Valve.Steam", Name: "Steam"}, ProbeError: "timed out"},
	})
	assert.Equal(t,
		"STATUS     NAME      ID             GROUP  REBOOT\n"+
			"installed  Git       Git.Git        dev    \n"+
			"missing    Valorant  Riot.Valorant         yes\n"+
			"unknown    Steam     Valve.Steam           \n",
		buf.String())
}

func TestPrintCheck(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	printCheck(&buf, health.Check{Name: "winget", Status: health.Healthy, Message: "winget v1.9"})
	printCheck(&buf, health.Check{Name: "dns", Status: health.Degraded, Message: "not applied"})
	assert.Equal(t, "[OK]   winget   winget v1.9\n[WARN] dns      not applied\n", buf.String())
}

func TestCommandsAreRegistered(t *testing.T) {
	want := []string{"catalog", "install", "uninstall", "installed", "upgrades", "dns", "reboot", "sysinfo", "doctor", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestCommandKey(t *testing.T) {
	assert.Equal(t, "dns set", commandKey(dnsSetCmd))
	assert.Equal(t, "install", commandKey(installCmd))
	assert.Equal(t, "catalog update", commandKey(catalogUpdateCmd))
}
