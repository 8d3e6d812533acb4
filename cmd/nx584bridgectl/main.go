// Command nx584bridgectl inspects and commands an NX-584 panel over MQTT.
package main

import (
	"fmt"
	"os"

	"github.com/cbarrick/nx584bridge/cmd/nx584bridgectl/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
