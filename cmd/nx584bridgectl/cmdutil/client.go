// Package cmdutil provides shared utilities for nx584bridgectl commands.
package cmdutil

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cbarrick/nx584bridge/pkg/config"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values shared across subcommands.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	NoColor    bool
}

// Client bundles a connected MQTT client with the panel/topic settings
// nx584bridgectl needs to address the right discovery topics.
type Client struct {
	MQTT      mqtt.Client
	PanelID   string
	TopicRoot string
	QoS       byte
}

// PartitionTopic returns the alarm_control_panel topic for partition, e.g.
// homeassistant/alarm_control_panel/home/partition_1.
func (c *Client) PartitionTopic(partition int) string {
	return fmt.Sprintf("%s/alarm_control_panel/%s/partition_%d", c.TopicRoot, c.PanelID, partition)
}

// Close disconnects the MQTT client, waiting up to 250ms for in-flight
// publishes to drain.
func (c *Client) Close() {
	c.MQTT.Disconnect(250)
}

// Connect loads the bridge's configuration file (the same one nx584bridge
// itself uses) and opens a short-lived MQTT connection scoped to its broker
// and panel ID. nx584bridgectl never touches the serial link; it only
// speaks MQTT, the same surface Home Assistant uses.
func Connect() (*Client, error) {
	cfg, err := config.MustLoad(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "ctl").
		SetUsername(cfg.MQTT.Username).
		SetPassword(cfg.MQTT.Password).
		SetConnectTimeout(cfg.MQTT.ConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.MQTT.ConnectTimeout) {
		return nil, fmt.Errorf("connect to %s timed out after %s", cfg.MQTT.Broker, cfg.MQTT.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.MQTT.Broker, err)
	}

	return &Client{
		MQTT:      client,
		PanelID:   cfg.Panel.ID,
		TopicRoot: cfg.MQTT.TopicRoot,
		QoS:       cfg.MQTT.QoS,
	}, nil
}

// PublishCommand publishes payload to partition's command topic and waits
// up to timeout for the broker to acknowledge delivery.
func (c *Client) PublishCommand(partition int, payload string, timeout time.Duration) error {
	topic := c.PartitionTopic(partition) + "/set"
	token := c.MQTT.Publish(topic, c.QoS, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}
