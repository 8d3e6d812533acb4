// Command nx584bridge bridges an NX-584 alarm panel to MQTT / Home Assistant.
package main

import (
	"fmt"
	"os"

	"github.com/cbarrick/nx584bridge/cmd/nx584bridge/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
