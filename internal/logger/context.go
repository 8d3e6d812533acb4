package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single command-queue
// cycle or MQTT-originated intent.
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	PanelID     string    // Configured panel identifier
	RequestType string    // NX-584 request message type name (e.g. "zone_status_request")
	Partition   int       // Partition number, 0 if not partition-scoped
	Zone        int       // Zone number, 0 if not zone-scoped
	StartTime   time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a panel.
func NewLogContext(panelID string) *LogContext {
	return &LogContext{
		PanelID:   panelID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		PanelID:     lc.PanelID,
		RequestType: lc.RequestType,
		Partition:   lc.Partition,
		Zone:        lc.Zone,
		StartTime:   lc.StartTime,
	}
}

// WithRequestType returns a copy with the request message type set
func (lc *LogContext) WithRequestType(requestType string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.RequestType = requestType
	}
	return clone
}

// WithPartition returns a copy with the partition number set
func (lc *LogContext) WithPartition(partition int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Partition = partition
	}
	return clone
}

// WithZone returns a copy with the zone number set
func (lc *LogContext) WithZone(zone int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Zone = zone
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
