// Package commands implements the nx584bridgectl command-line entry points.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/cbarrick/nx584bridge/cmd/nx584bridgectl/cmdutil"
)

// RootCmd is the nx584bridgectl entry point: a thin MQTT-only client for
// inspecting and commanding a panel that nx584bridge is already bridging.
// It never opens the serial link itself.
var RootCmd = &cobra.Command{
	Use:   "nx584bridgectl",
	Short: "Inspect and command an NX-584 panel over MQTT",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cmdutil.Flags.ConfigFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/nx584bridge/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format: table, json, yaml")
	RootCmd.PersistentFlags().BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "Disable colored output")

	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(armHomeCmd)
	RootCmd.AddCommand(armAwayCmd)
	RootCmd.AddCommand(disarmCmd)
}
