// Package mqttsink implements nx584.Sink over an MQTT broker using Home
// Assistant's MQTT Discovery conventions, grounded on the original project's
// mqtt_client.py: alarm_control_panel entities per partition, binary_sensor
// entities per zone (bypass/faulted/trouble), a retained availability topic
// driven by a last-will-and-testament, and a command topic per partition
// that Home Assistant publishes ARM_AWAY/ARM_HOME/DISARM to.
package mqttsink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cbarrick/nx584bridge/internal/logger"
	"github.com/cbarrick/nx584bridge/internal/nx584"
)

const originName = "nx584bridge"

// CommandHandler is the subset of Controller the sink drives in response to
// incoming MQTT commands. Kept as a narrow interface so the sink package
// never imports the rest of the Controller's surface.
type CommandHandler interface {
	Disarm(ctx context.Context, partition int) error
	ArmHome(ctx context.Context, partition int) error
	ArmAway(ctx context.Context, partition int) error
}

// Config holds the broker connection and topic-naming settings.
type Config struct {
	Broker            string // e.g. tcp://localhost:1883
	ClientID          string
	Username          string
	Password          string
	TopicRoot         string // default "homeassistant"
	PanelUniqueID     string
	PanelName         string
	SoftwareVersion   string
	QoS               byte
	ConnectTimeout    time.Duration
	CommandTimeout    time.Duration
}

// sanitizeIdentifier replaces every character other than alphanumerics,
// underscore, and dash with an underscore, matching the original's sanitize_mqtt_identifier so a panel ID with
// spaces or slashes can never corrupt the topic hierarchy.
func sanitizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Sink publishes panel state to MQTT and relays incoming arm/disarm commands
// to a CommandHandler. It satisfies nx584.Sink.
type Sink struct {
	client  mqtt.Client
	cfg     Config
	panelID string
	handler CommandHandler

	topicPrefixPanel string
	topicPrefixZones string
	availabilityTopic string
	commandTimeout   time.Duration
}

var _ nx584.Sink = (*Sink)(nil)

// New connects to the broker described by cfg and returns a ready Sink.
// handler may be nil, in which case incoming commands are logged and
// dropped (a read-only/monitoring deployment).
func New(cfg Config, handler CommandHandler) (*Sink, error) {
	if cfg.TopicRoot == "" {
		cfg.TopicRoot = "homeassistant"
	}
	if cfg.QoS == 0 {
		cfg.QoS = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}

	panelID := sanitizeIdentifier(cfg.PanelUniqueID)
	if panelID != cfg.PanelUniqueID {
		logger.Warn("mqttsink: panel unique id sanitized", "from", cfg.PanelUniqueID, "to", panelID)
	}

	s := &Sink{
		cfg:               cfg,
		panelID:           panelID,
		handler:           handler,
		topicPrefixPanel:  fmt.Sprintf("%s/alarm_control_panel/%s", cfg.TopicRoot, panelID),
		topicPrefixZones:  fmt.Sprintf("%s/binary_sensor/%s", cfg.TopicRoot, panelID),
		commandTimeout:    cfg.CommandTimeout,
	}
	s.availabilityTopic = s.topicPrefixPanel + "/availability"

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetWill(s.availabilityTopic, "offline", cfg.QoS, true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqttsink: connect to %s timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttsink: connect: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *Sink) onConnect(client mqtt.Client) {
	logger.Info("mqttsink: connected", "broker", s.cfg.Broker)
	s.publish(s.availabilityTopic, "offline", true)

	commandTopic := fmt.Sprintf("%s/+/set", s.topicPrefixPanel)
	if token := client.Subscribe(commandTopic, s.cfg.QoS, s.onCommand); token.Wait() && token.Error() != nil {
		logger.Error("mqttsink: subscribe failed", "topic", commandTopic, "error", token.Error())
	}
}

func (s *Sink) onConnectionLost(_ mqtt.Client, err error) {
	logger.Warn("mqttsink: connection lost", "error", err)
}

// onCommand parses <topicRoot>/alarm_control_panel/<panelID>/partition_<N>/set
// and relays ARM_AWAY/ARM_HOME/DISARM to the CommandHandler.
func (s *Sink) onCommand(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) != 5 || parts[4] != "set" || !strings.HasPrefix(parts[3], "partition_") {
		return
	}
	partition, err := strconv.Atoi(strings.TrimPrefix(parts[3], "partition_"))
	if err != nil {
		logger.Error("mqttsink: bad partition token in command topic", "topic", msg.Topic())
		return
	}
	if s.handler == nil {
		logger.Warn("mqttsink: command received with no handler configured", "partition", partition)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.commandTimeout)
	defer cancel()

	var err2 error
	switch string(msg.Payload()) {
	case "ARM_AWAY":
		err2 = s.handler.ArmAway(ctx, partition)
	case "ARM_HOME":
		err2 = s.handler.ArmHome(ctx, partition)
	case "DISARM":
		err2 = s.handler.Disarm(ctx, partition)
	default:
		logger.Error("mqttsink: unknown command", "payload", string(msg.Payload()))
		return
	}
	if err2 != nil {
		logger.Error("mqttsink: command failed", "partition", partition, "command", string(msg.Payload()), "error", err2)
	}
}

func (s *Sink) publish(topic string, payload any, retain bool) {
	var body []byte
	switch v := payload.(type) {
	case string:
		body = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			logger.Error("mqttsink: marshal failed", "topic", topic, "error", err)
			return
		}
		body = b
	}
	token := s.client.Publish(topic, s.cfg.QoS, retain, body)
	go func() {
		if token.Wait() && token.Error() != nil {
			logger.Error("mqttsink: publish failed", "topic", topic, "error", token.Error())
		}
	}()
}

// PublishOnline marks every discovered entity as available.
func (s *Sink) PublishOnline() {
	s.publish(s.availabilityTopic, "online", true)
}

// PublishOffline marks every discovered entity as unavailable. The
// Controller calls it on shutdown; at connect time (before sync completes)
// onConnect publishes the same offline marker itself, and the broker also
// applies it automatically via the last-will-and-testament on an unclean
// disconnect.
func (s *Sink) PublishOffline() {
	s.publish(s.availabilityTopic, "offline", true)
}

type deviceInfo struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

type originInfo struct {
	Name      string `json:"name"`
	SWVersion string `json:"sw_version"`
}

type partitionDiscovery struct {
	Name                string     `json:"name"`
	DeviceClass         string     `json:"device_class"`
	UniqueID            string     `json:"unique_id"`
	Device              deviceInfo `json:"device"`
	Origin              originInfo `json:"origin"`
	SupportedFeatures   []string   `json:"supported_features"`
	Optimistic          bool       `json:"optimistic"`
	CodeArmRequired     bool       `json:"code_arm_required"`
	CodeDisarmRequired  bool       `json:"code_disarm_required"`
	CodeTriggerRequired bool       `json:"code_trigger_required"`
	Base                string     `json:"~"`
	AvailabilityTopic   string     `json:"availability_topic"`
	PayloadAvailable    string     `json:"payload_available"`
	PayloadNotAvailable string     `json:"payload_not_available"`
	StateTopic          string     `json:"state_topic"`
	CommandTopic        string     `json:"command_topic"`
	Retain              bool       `json:"retain"`
}

// PublishConfigs publishes a Home Assistant alarm_control_panel discovery
// config for every partition.
func (s *Sink) PublishConfigs(panelID string, partitions []*nx584.Partition) {
	for _, p := range partitions {
		s.publishPartitionConfig(panelID, p)
	}
}

func (s *Sink) publishPartitionConfig(panelID string, p *nx584.Partition) {
	token := p.Token()
	uniqueID := fmt.Sprintf("%s_%s", s.panelID, token)
	base := fmt.Sprintf("%s/%s", s.topicPrefixPanel, token)
	cfg := partitionDiscovery{
		DeviceClass: "alarm_control_panel",
		UniqueID:    uniqueID,
		Device: deviceInfo{
			Name:         fmt.Sprintf("%s Partition %d", panelID, p.Index),
			Identifiers:  []string{uniqueID},
			Manufacturer: "Caddx",
			Model:        "NX-584",
		},
		Origin:              originInfo{Name: originName, SWVersion: s.cfg.SoftwareVersion},
		SupportedFeatures:   []string{"arm_home", "arm_away"},
		Base:                base,
		AvailabilityTopic:   s.availabilityTopic,
		PayloadAvailable:    "online",
		PayloadNotAvailable: "offline",
		StateTopic:          base + "/state",
		CommandTopic:        base + "/set",
		Retain:              true,
	}
	s.publish(base+"/config", cfg, true)
}

type zoneBinarySensorDiscovery struct {
	Name                string     `json:"name"`
	DeviceClass         string     `json:"device_class"`
	UniqueID            string     `json:"unique_id"`
	Device              deviceInfo `json:"device"`
	Origin              originInfo `json:"origin"`
	StateTopic          string     `json:"state_topic"`
	ValueTemplate       string     `json:"value_template"`
	AvailabilityTopic   string     `json:"availability_topic"`
	PayloadAvailable    string     `json:"payload_available"`
	PayloadNotAvailable string     `json:"payload_not_available"`
	Retain              bool       `json:"retain"`
}

// PublishZoneConfigs publishes three binary_sensor discovery configs
// (bypass, faulted, trouble) per zone.
func (s *Sink) PublishZoneConfigs(zones []*nx584.Zone) {
	for _, z := range zones {
		s.publishZoneConfig(z)
	}
}

func (s *Sink) publishZoneConfig(z *nx584.Zone) {
	token := z.Token()
	uniqueID := fmt.Sprintf("%s_%s", s.panelID, token)
	stateTopic := fmt.Sprintf("%s/%s/state", s.topicPrefixZones, token)
	device := deviceInfo{
		Name:         z.Name,
		Identifiers:  []string{uniqueID},
		Manufacturer: "Caddx",
		Model:        "NX-584",
	}
	origin := originInfo{Name: originName, SWVersion: s.cfg.SoftwareVersion}

	sensors := []struct {
		suffix      string
		name        string
		deviceClass string
		template    string
	}{
		{"bypass", "Bypass", "safety", "{{ value_json.bypassed }}"},
		{"faulted", "Faulted", "safety", "{{ value_json.faulted }}"},
		{"trouble", "Trouble", "problem", "{{ value_json.trouble }}"},
	}
	for _, sensor := range sensors {
		cfg := zoneBinarySensorDiscovery{
			Name:                sensor.name,
			DeviceClass:         sensor.deviceClass,
			UniqueID:            fmt.Sprintf("%s_%s", uniqueID, sensor.suffix),
			Device:              device,
			Origin:              origin,
			StateTopic:          stateTopic,
			ValueTemplate:       sensor.template,
			AvailabilityTopic:   s.availabilityTopic,
			PayloadAvailable:    "online",
			PayloadNotAvailable: "offline",
			Retain:              true,
		}
		configTopic := fmt.Sprintf("%s/%s_%s/config", s.topicPrefixZones, token, sensor.suffix)
		s.publish(configTopic, cfg, true)
	}
}

type zoneState struct {
	Bypassed string `json:"bypassed"`
	Faulted  string `json:"faulted"`
	Trouble  string `json:"trouble"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// PublishZoneState publishes the combined bypass/faulted/trouble state for
// one zone. The sink is stateless and publishes whatever zone it is given;
// it does not consult the zone's Dirty flag.
func (s *Sink) PublishZoneState(z *nx584.Zone) {
	topic := fmt.Sprintf("%s/%s/state", s.topicPrefixZones, z.Token())
	s.publish(topic, zoneState{
		Bypassed: onOff(z.Bypassed()),
		Faulted:  onOff(z.Faulted()),
		Trouble:  onOff(z.Trouble()),
	}, true)
}

// PublishZoneStates publishes every zone's state, pacing one publish per
// call (the broker and paho's client both handle back-to-back publishes
// fine; unlike the original's rate-limited polling client, nothing here
// needs an artificial delay between zones).
func (s *Sink) PublishZoneStates(zones []*nx584.Zone) {
	for _, z := range zones {
		s.PublishZoneState(z)
	}
}

// PublishPartitionState publishes a partition's alarm_control_panel state
// string. A partition with no known state yet (StateUnknown) is skipped:
// Home Assistant has no "unknown" value for this entity, so publishing
// nothing leaves the entity unavailable until sync establishes state.
func (s *Sink) PublishPartitionState(p *nx584.Partition) {
	if p.State() == nx584.StateUnknown {
		return
	}
	topic := fmt.Sprintf("%s/%s/state", s.topicPrefixPanel, p.Token())
	s.publish(topic, haState(p.State()), true)
}

// PublishPartitionStates publishes every partition's state.
func (s *Sink) PublishPartitionStates(partitions []*nx584.Partition) {
	for _, p := range partitions {
		s.PublishPartitionState(p)
	}
}

// haState maps a State to the string Home Assistant's alarm_control_panel
// entity expects.
func haState(s nx584.State) string {
	switch s {
	case nx584.StateDisarmed:
		return "disarmed"
	case nx584.StateArmedHome:
		return "armed_home"
	case nx584.StateArmedAway:
		return "armed_away"
	case nx584.StatePending:
		return "pending"
	case nx584.StateTriggered:
		return "triggered"
	case nx584.StateArming:
		return "arming"
	case nx584.StateDisarming:
		return "disarming"
	default:
		return "unknown"
	}
}

// Close disconnects from the broker, waiting up to 250ms for queued
// publishes to flush.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}
