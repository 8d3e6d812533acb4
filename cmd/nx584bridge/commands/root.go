// Package commands implements the nx584bridge command-line entry points.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

// RootCmd is the nx584bridge entry point: a long-running bridge between an
// NX-584 alarm panel and an MQTT broker, configured entirely through a YAML
// file (or its NX584BRIDGE_* environment overrides).
var RootCmd = &cobra.Command{
	Use:   "nx584bridge",
	Short: "Bridge an NX-584 alarm panel to MQTT / Home Assistant",
	Long: `nx584bridge connects to a Caddx/GE NX-584 alarm panel over a serial
link, keeps a live model of its zones and partitions, and mirrors that
state to MQTT using Home Assistant's discovery conventions. Arm/disarm
commands published from Home Assistant are relayed back to the panel.`,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/nx584bridge/config.yaml)")
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nx584bridge %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}
