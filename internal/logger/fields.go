package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the panel link, the
// command queue, and the MQTT bridge. Use these keys consistently across
// all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Panel identity and topology
	// ========================================================================
	KeyPanelID   = "panel_id"  // Configured panel identifier
	KeyPartition = "partition" // Partition number
	KeyZone      = "zone"      // Zone number

	// ========================================================================
	// NX-584 protocol
	// ========================================================================
	KeyRequestType  = "request_type"  // Request message type name
	KeyResponseType = "response_type" // Response message type name
	KeyRetriesLeft  = "retries_left" // Remaining retry budget on a pending command
	KeyAckRequested = "ack_requested" // Whether the ack-requested bit was set

	// ========================================================================
	// MQTT bridge
	// ========================================================================
	KeyTopic   = "topic"   // MQTT topic
	KeyQoS     = "qos"     // MQTT quality of service level
	KeyPayload = "payload" // Raw MQTT payload, logged only at debug level

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyAttempt    = "attempt"     // Retry attempt number
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// PanelID returns a slog.Attr for the configured panel identifier
func PanelID(id string) slog.Attr {
	return slog.String(KeyPanelID, id)
}

// Partition returns a slog.Attr for a partition number
func Partition(n int) slog.Attr {
	return slog.Int(KeyPartition, n)
}

// Zone returns a slog.Attr for a zone number
func Zone(n int) slog.Attr {
	return slog.Int(KeyZone, n)
}

// RequestType returns a slog.Attr for a request message type name
func RequestType(name string) slog.Attr {
	return slog.String(KeyRequestType, name)
}

// ResponseType returns a slog.Attr for a response message type name
func ResponseType(name string) slog.Attr {
	return slog.String(KeyResponseType, name)
}

// RetriesLeft returns a slog.Attr for a command's remaining retry budget
func RetriesLeft(n int) slog.Attr {
	return slog.Int(KeyRetriesLeft, n)
}

// AckRequested returns a slog.Attr for the ack-requested bit
func AckRequested(ack bool) slog.Attr {
	return slog.Bool(KeyAckRequested, ack)
}

// Topic returns a slog.Attr for an MQTT topic
func Topic(topic string) slog.Attr {
	return slog.String(KeyTopic, topic)
}

// QoS returns a slog.Attr for an MQTT quality of service level
func QoS(qos byte) slog.Attr {
	return slog.Int(KeyQoS, int(qos))
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
