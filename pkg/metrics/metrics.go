// Package metrics is the Prometheus-backed implementation of
// internal/nx584.Metrics, plus the HTTP server that exposes it for
// scraping.
package metrics

import (
	"github.com/cbarrick/nx584bridge/internal/nx584"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector is the Prometheus-backed nx584.Metrics implementation.
type Collector struct {
	framesRead      prometheus.Counter
	framesWritten   prometheus.Counter
	framingErrors   prometheus.Counter
	commandsSent    *prometheus.CounterVec
	commandsRetried *prometheus.CounterVec
	commandsFailed  *prometheus.CounterVec
	commandsRejected *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	zonesPublished  prometheus.Counter
	partitionsPublished prometheus.Counter
	syncDuration    prometheus.Histogram
}

var _ nx584.Metrics = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		framesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "nx584bridge_frames_read_total",
			Help: "Total number of well-formed frames read from the panel link.",
		}),
		framesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "nx584bridge_frames_written_total",
			Help: "Total number of frames written to the panel link.",
		}),
		framingErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "nx584bridge_framing_errors_total",
			Help: "Total number of frames discarded for a bad start byte, checksum, or length.",
		}),
		commandsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nx584bridge_commands_sent_total",
			Help: "Total number of commands sent to the panel by request type, including retransmits.",
		}, []string{"request_type"}),
		commandsRetried: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nx584bridge_commands_retried_total",
			Help: "Total number of command retries by request type.",
		}, []string{"request_type"}),
		commandsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nx584bridge_commands_failed_total",
			Help: "Total number of commands that exhausted their retry budget.",
		}, []string{"request_type"}),
		commandsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nx584bridge_commands_rejected_total",
			Help: "Total number of commands the panel explicitly rejected (NACK/Failed/Rejected).",
		}, []string{"request_type"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nx584bridge_transitions_received_total",
			Help: "Total number of unsolicited transition messages received by message type.",
		}, []string{"message_type"}),
		zonesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "nx584bridge_zone_states_published_total",
			Help: "Total number of zone state updates published to the sink.",
		}),
		partitionsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "nx584bridge_partition_states_published_total",
			Help: "Total number of partition state updates published to the sink.",
		}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nx584bridge_sync_duration_seconds",
			Help:    "Duration of the boot-time panel synchronization sequence.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) FrameRead()    { c.framesRead.Inc() }
func (c *Collector) FrameWritten() { c.framesWritten.Inc() }
func (c *Collector) FramingError() { c.framingErrors.Inc() }

func (c *Collector) CommandSent(msgType nx584.MessageType) {
	c.commandsSent.WithLabelValues(msgType.String()).Inc()
}

func (c *Collector) CommandRetried(msgType nx584.MessageType) {
	c.commandsRetried.WithLabelValues(msgType.String()).Inc()
}

func (c *Collector) CommandFailed(msgType nx584.MessageType) {
	c.commandsFailed.WithLabelValues(msgType.String()).Inc()
}

func (c *Collector) CommandRejected(msgType nx584.MessageType) {
	c.commandsRejected.WithLabelValues(msgType.String()).Inc()
}

func (c *Collector) TransitionReceived(msgType nx584.MessageType) {
	c.transitions.WithLabelValues(msgType.String()).Inc()
}

func (c *Collector) ZonePublished()      { c.zonesPublished.Inc() }
func (c *Collector) PartitionPublished() { c.partitionsPublished.Inc() }

func (c *Collector) SyncCompleted(durationSeconds float64) {
	c.syncDuration.Observe(durationSeconds)
}
