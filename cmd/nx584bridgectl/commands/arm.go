package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbarrick/nx584bridge/cmd/nx584bridgectl/cmdutil"
	"github.com/cbarrick/nx584bridge/internal/cli/prompt"
)

const commandPublishTimeout = 5 * time.Second

var (
	armHomePartition int
	armAwayPartition int
	disarmPartition  int
	force            bool
)

var armHomeCmd = &cobra.Command{
	Use:   "arm-home",
	Short: "Arm a partition in stay mode",
	RunE:  runArm("ARM_HOME", &armHomePartition),
}

var armAwayCmd = &cobra.Command{
	Use:   "arm-away",
	Short: "Arm a partition in away mode",
	RunE:  runArm("ARM_AWAY", &armAwayPartition),
}

var disarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Disarm a partition",
	RunE:  runArm("DISARM", &disarmPartition),
}

func init() {
	armHomeCmd.Flags().IntVar(&armHomePartition, "partition", 1, "Partition number")
	armHomeCmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	armAwayCmd.Flags().IntVar(&armAwayPartition, "partition", 1, "Partition number")
	armAwayCmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	disarmCmd.Flags().IntVar(&disarmPartition, "partition", 1, "Partition number")
	disarmCmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
}

// runArm returns a RunE that publishes payload to the given partition's
// command topic, prompting for confirmation unless --force was set.
func runArm(payload string, partition *int) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		label := fmt.Sprintf("%s partition %d?", payload, *partition)
		confirmed, err := prompt.ConfirmWithForce(label, force)
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nAborted.")
				return nil
			}
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}

		client, err := cmdutil.Connect()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.PublishCommand(*partition, payload, commandPublishTimeout); err != nil {
			return fmt.Errorf("publish %s to partition %d: %w", payload, *partition, err)
		}

		fmt.Printf("Sent %s to partition %d\n", payload, *partition)
		return nil
	}
}
