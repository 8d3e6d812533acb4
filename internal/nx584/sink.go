package nx584

// Sink is the contract consumed from the external pub/sub collaborator
// described in spec.md §6. Implementations are assumed non-blocking,
// fire-and-forget, and run their own network loop on a thread they own; the
// Controller only ever calls into a Sink, never the reverse (inbound
// commands arrive through Controller.Disarm/ArmHome/ArmAway instead, so the
// serial link is never touched from the sink's thread).
type Sink interface {
	PublishOnline()
	PublishOffline()
	PublishConfigs(panelID string, partitions []*Partition)
	PublishZoneConfigs(zones []*Zone)
	PublishPartitionState(p *Partition)
	PublishZoneState(z *Zone)
	PublishPartitionStates(partitions []*Partition)
	PublishZoneStates(zones []*Zone)
}

// NopSink discards every publish call. It is useful for tests and for
// running the Controller without a configured broker.
type NopSink struct{}

func (NopSink) PublishOnline()                             {}
func (NopSink) PublishOffline()                            {}
func (NopSink) PublishConfigs(string, []*Partition)          {}
func (NopSink) PublishZoneConfigs([]*Zone)                  {}
func (NopSink) PublishPartitionState(*Partition)            {}
func (NopSink) PublishZoneState(*Zone)                      {}
func (NopSink) PublishPartitionStates([]*Partition)         {}
func (NopSink) PublishZoneStates([]*Zone)                   {}

var _ Sink = NopSink{}
