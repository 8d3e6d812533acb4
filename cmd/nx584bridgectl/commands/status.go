package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/cbarrick/nx584bridge/cmd/nx584bridgectl/cmdutil"
	"github.com/cbarrick/nx584bridge/internal/cli/output"
)

var statusWait time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last-known state of every partition and zone",
	Long: `Subscribe to the bridge's retained MQTT state topics and print
whatever is currently retained. Since every state topic nx584bridge
publishes is retained, waiting --wait (default 2s) for the retained messages
is enough to show the panel's last-known state without waking the panel
itself.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusWait, "wait", 2*time.Second, "How long to wait for retained messages to arrive")
}

var partitionTopicRe = regexp.MustCompile(`/alarm_control_panel/[^/]+/partition_(\d+)/state$`)
var zoneTopicRe = regexp.MustCompile(`/binary_sensor/[^/]+/(zone_\d+)/state$`)

type zoneState struct {
	Bypassed string `json:"bypassed"`
	Faulted  string `json:"faulted"`
	Trouble  string `json:"trouble"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.Connect()
	if err != nil {
		return err
	}
	defer client.Close()

	partitions := map[int]string{}
	zones := map[string]zoneState{}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		topic := msg.Topic()
		if m := partitionTopicRe.FindStringSubmatch(topic); m != nil {
			n, _ := strconv.Atoi(m[1])
			partitions[n] = string(msg.Payload())
			return
		}
		if m := zoneTopicRe.FindStringSubmatch(topic); m != nil {
			var zs zoneState
			if err := json.Unmarshal(msg.Payload(), &zs); err == nil {
				zones[m[1]] = zs
			}
		}
	}

	partitionFilter := fmt.Sprintf("%s/alarm_control_panel/%s/+/state", client.TopicRoot, client.PanelID)
	zoneFilter := fmt.Sprintf("%s/binary_sensor/%s/+/state", client.TopicRoot, client.PanelID)

	for _, filter := range []string{partitionFilter, zoneFilter} {
		token := client.MQTT.Subscribe(filter, client.QoS, handler)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe to %s: %w", filter, token.Error())
		}
	}

	time.Sleep(statusWait)

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		result := map[string]any{
			"panel_id":   client.PanelID,
			"partitions": partitions,
			"zones":      zones,
		}
		if format == output.FormatYAML {
			return output.PrintYAML(os.Stdout, result)
		}
		return output.PrintJSON(os.Stdout, result)
	}

	partitionTable := output.NewTableData("Partition", "State")
	partitionNums := make([]int, 0, len(partitions))
	for n := range partitions {
		partitionNums = append(partitionNums, n)
	}
	sort.Ints(partitionNums)
	for _, n := range partitionNums {
		partitionTable.AddRow(strconv.Itoa(n), partitions[n])
	}
	if len(partitions) == 0 {
		fmt.Println("No partition state retained yet.")
	} else {
		_ = output.PrintTable(os.Stdout, partitionTable)
	}

	zoneTable := output.NewTableData("Zone", "Bypassed", "Faulted", "Trouble")
	zoneTokens := make([]string, 0, len(zones))
	for token := range zones {
		zoneTokens = append(zoneTokens, token)
	}
	sort.Strings(zoneTokens)
	for _, token := range zoneTokens {
		zs := zones[token]
		zoneTable.AddRow(token, zs.Bypassed, zs.Faulted, zs.Trouble)
	}
	if len(zones) > 0 {
		fmt.Println()
		_ = output.PrintTable(os.Stdout, zoneTable)
	}

	return nil
}
