package nx584

// Metrics is the small interface the Controller reports counters through.
// Concrete implementations (Prometheus, or any other backend) are wired in
// by the caller at construction time; the engine package itself has no
// import-time dependency on a metrics library.
type Metrics interface {
	FrameRead()
	FrameWritten()
	FramingError()
	CommandSent(msgType MessageType)
	CommandRetried(msgType MessageType)
	CommandFailed(msgType MessageType)
	CommandRejected(msgType MessageType)
	TransitionReceived(msgType MessageType)
	ZonePublished()
	PartitionPublished()
	SyncCompleted(durationSeconds float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) FrameRead()                        {}
func (NopMetrics) FrameWritten()                     {}
func (NopMetrics) FramingError()                     {}
func (NopMetrics) CommandSent(MessageType)           {}
func (NopMetrics) CommandRetried(MessageType)        {}
func (NopMetrics) CommandFailed(MessageType)         {}
func (NopMetrics) CommandRejected(MessageType)       {}
func (NopMetrics) TransitionReceived(MessageType)    {}
func (NopMetrics) ZonePublished()                    {}
func (NopMetrics) PartitionPublished()               {}
func (NopMetrics) SyncCompleted(float64)             {}

var _ Metrics = NopMetrics{}
