package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbarrick/nx584bridge/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a sample configuration file with placeholder panel and serial
settings, ready to be edited and used with "nx584bridge start".`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	var path string
	var err error

	if configFile != "" {
		path = configFile
		err = config.InitConfigToPath(path, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file with your panel's serial device and credentials")
	fmt.Printf("  2. Start the bridge with: nx584bridge start --config %s\n", path)
	return nil
}
