package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for panel and bridge operations.
const (
	AttrPanelID        = "panel.id"
	AttrPartitionIndex = "panel.partition"
	AttrZoneIndex      = "panel.zone"
	AttrMessageType    = "nx584.message_type"
	AttrRetriesLeft    = "nx584.retries_left"
	AttrIntentKind     = "nx584.intent"
)

// Span names for the command queue and sync sequence.
const (
	SpanSync          = "nx584.sync"
	SpanQueueDrain    = "nx584.queue.drain"
	SpanCommandCycle  = "nx584.command.cycle"
	SpanIntent        = "nx584.intent"
	SpanMQTTPublish   = "mqtt.publish"
	SpanMQTTCommand   = "mqtt.command"
)

// PanelID returns an attribute for the panel's configured identifier.
func PanelID(id string) attribute.KeyValue {
	return attribute.String(AttrPanelID, id)
}

// PartitionIndex returns an attribute for a partition number.
func PartitionIndex(index int) attribute.KeyValue {
	return attribute.Int(AttrPartitionIndex, index)
}

// ZoneIndex returns an attribute for a zone number.
func ZoneIndex(index int) attribute.KeyValue {
	return attribute.Int(AttrZoneIndex, index)
}

// MessageTypeAttr returns an attribute naming a protocol message type.
func MessageTypeAttr(name string) attribute.KeyValue {
	return attribute.String(AttrMessageType, name)
}

// RetriesLeft returns an attribute for a command's remaining retry budget.
func RetriesLeft(n int) attribute.KeyValue {
	return attribute.Int(AttrRetriesLeft, n)
}

// IntentKind returns an attribute naming the kind of arm/disarm/clock intent
// being processed.
func IntentKind(kind string) attribute.KeyValue {
	return attribute.String(AttrIntentKind, kind)
}

// StartSyncSpan starts the span covering the boot-time synchronization
// sequence against the panel.
func StartSyncSpan(ctx context.Context, panelID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSync, trace.WithAttributes(PanelID(panelID)))
}

// StartCommandSpan starts a span for a single command-queue request/response
// cycle.
func StartCommandSpan(ctx context.Context, requestType string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCommandCycle, trace.WithAttributes(MessageTypeAttr(requestType)))
}

// StartIntentSpan starts a span for an arm/disarm/clock intent submitted by
// a caller (MQTT command handler or CLI).
func StartIntentSpan(ctx context.Context, kind string, partition int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanIntent, trace.WithAttributes(IntentKind(kind), PartitionIndex(partition)))
}
