package nx584

import "fmt"

// MaxPartitions is the upper bound on partition indices (spec.md §9 Open
// Question (b): adopts the broader 1..=8 range across historical revisions).
const MaxPartitions = 8

// ZoneConditionFlags is the 16-bit zone condition bitmap from a Zone Status
// response.
type ZoneConditionFlags uint16

const (
	ZoneFaulted         ZoneConditionFlags = 1 << 0
	ZoneTamper          ZoneConditionFlags = 1 << 1
	ZoneTrouble         ZoneConditionFlags = 1 << 2
	ZoneBypassed        ZoneConditionFlags = 1 << 3
	ZoneInhibited       ZoneConditionFlags = 1 << 4
	ZoneLowBattery      ZoneConditionFlags = 1 << 5
	ZoneSupervisionLost ZoneConditionFlags = 1 << 6
)

// Zone is the stable high-level representation of one panel sensor input.
// Zones are created only during synchronization and are thereafter mutated
// in place by zone-status messages.
type Zone struct {
	// Index is the 1-based server-space zone index (panel index + 1).
	Index int
	// Name is the panel-supplied name with trailing padding trimmed.
	Name string
	// Partitions is the 8-bit partition-membership bitmap: bit i means the
	// zone belongs to partition i+1.
	Partitions uint8
	// Type is the 24-bit zone-type bitmap.
	Type uint32
	// Condition is the 16-bit condition bitmap.
	Condition ZoneConditionFlags
	// Dirty records whether the zone changed since its last publish.
	Dirty bool
}

// Token returns the zone's unique name-token, zone_NNN.
func (z *Zone) Token() string {
	return fmt.Sprintf("zone_%03d", z.Index)
}

// Faulted reports whether the zone is currently faulted.
func (z *Zone) Faulted() bool {
	return z.Condition&ZoneFaulted != 0
}

// Bypassed reports whether the zone is currently bypassed.
func (z *Zone) Bypassed() bool {
	return z.Condition&ZoneBypassed != 0
}

// Trouble reports the aggregated zone-trouble condition: tampered, the
// trouble bit, low battery, or lost supervision.
func (z *Zone) Trouble() bool {
	return z.Condition&(ZoneTamper|ZoneTrouble|ZoneLowBattery|ZoneSupervisionLost) != 0
}

// InPartition reports whether the zone belongs to the given 1-based
// partition index.
func (z *Zone) InPartition(partition int) bool {
	if partition < 1 || partition > MaxPartitions {
		return false
	}
	return z.Partitions&(1<<uint(partition-1)) != 0
}

// setMasks atomically replaces the zone's three bitmaps and marks it dirty.
// Per spec.md §9 Open Question (c), the argument order is partition-mask,
// type-mask, condition-mask.
func (z *Zone) setMasks(partitions uint8, zoneType uint32, condition ZoneConditionFlags) {
	z.Partitions = partitions
	z.Type = zoneType
	z.Condition = condition
	z.Dirty = true
}

// PartitionConditionFlags is the 48-bit partition condition bitmap, the
// three sub-fields of a Partition Status response concatenated: four low
// bytes, a skipped byte, then two high bytes shifted left by 32.
type PartitionConditionFlags uint64

const (
	CondBypassCodeRequired PartitionConditionFlags = 1 << 0
	CondChimeMode          PartitionConditionFlags = 1 << 19
	CondEntry              PartitionConditionFlags = 1 << 20
	CondExit1              PartitionConditionFlags = 1 << 22
	CondExit2              PartitionConditionFlags = 1 << 23
	CondSirenOn            PartitionConditionFlags = 1 << 9
	CondSteadySirenOn      PartitionConditionFlags = 1 << 10
	CondEntryGuard         PartitionConditionFlags = 1 << 18
	CondReadyToArm         PartitionConditionFlags = 1 << 34
	CondReadyToForceArm    PartitionConditionFlags = 1 << 35
	CondArmed              PartitionConditionFlags = 1 << 6
)

// State is the derived high-level partition state.
type State int

const (
	StateUnknown State = iota
	StateDisarmed
	StateArmedHome
	StateArmedAway
	StatePending
	StateTriggered
	StateArming
	StateDisarming
)

func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "DISARMED"
	case StateArmedHome:
		return "ARMED_HOME"
	case StateArmedAway:
		return "ARMED_AWAY"
	case StatePending:
		return "PENDING"
	case StateTriggered:
		return "TRIGGERED"
	case StateArming:
		return "ARMING"
	case StateDisarming:
		return "DISARMING"
	default:
		return "UNKNOWN"
	}
}

// DerivePartitionState is the pure, free-function mapping from a raw
// condition bitmap to a high-level State, evaluated top-down with the first
// match winning (spec.md §4.3). It has no dependency on a Partition value,
// so every relevant bit combination can be enumerated in a test without
// materializing one.
func DerivePartitionState(flags PartitionConditionFlags) State {
	armed := flags&CondArmed != 0

	switch {
	case flags&(CondSirenOn|CondSteadySirenOn) != 0:
		return StateTriggered
	case armed && flags&(CondExit1|CondExit2) != 0:
		return StateArming
	case armed && flags&CondEntry != 0:
		return StatePending
	case armed && flags&CondEntryGuard != 0:
		return StateArmedHome
	case armed:
		return StateArmedAway
	case flags&(CondReadyToArm|CondReadyToForceArm) != 0:
		return StateDisarmed
	default:
		return StatePending
	}
}

// Partition is the stable high-level representation of one armable
// security zone-group. Partitions are created only during synchronization,
// on the first Partition Status response for an index the panel's mask
// reports as present.
type Partition struct {
	// Index is the 1-based partition index, 1..MaxPartitions.
	Index int
	// Condition is the raw 48-bit condition bitmap. A Partition with no
	// condition bitmap received yet has Condition == 0 and Seen == false;
	// partition.state = None iff no bitmap has yet been received.
	Condition PartitionConditionFlags
	// Seen is false until the first Partition Status response arrives.
	Seen bool
}

// Token returns the partition's unique name-token, partition_N.
func (p *Partition) Token() string {
	return fmt.Sprintf("partition_%d", p.Index)
}

// State returns the partition's derived state, or StateUnknown if no
// condition bitmap has been received yet.
func (p *Partition) State() State {
	if !p.Seen {
		return StateUnknown
	}
	return DerivePartitionState(p.Condition)
}

// setCondition atomically assigns the 48-bit condition bitmap and marks the
// partition as having been observed.
func (p *Partition) setCondition(flags PartitionConditionFlags) {
	p.Condition = flags
	p.Seen = true
}
