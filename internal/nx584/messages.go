package nx584

import (
	"encoding/binary"
	"fmt"
)

// decodeError wraps a catalog length mismatch or truncated payload as a
// protocol error (spec.md §7): the caller should log and drop the frame.
type decodeError struct {
	msg string
}

func (e *decodeError) Error() string { return e.msg }

func wantLen(data []byte, n int, what string) error {
	if len(data) != n {
		return &decodeError{fmt.Sprintf("nx584: %s wants %d payload bytes, got %d", what, n, len(data))}
	}
	return nil
}

// InterfaceConfig is the decoded Interface Configuration response: the
// enabled transition-message and request-command capability masks.
type InterfaceConfig struct {
	FirmwareVersion      string
	TransitionMessageMask uint16
	RequestCommandMask   uint32
}

// DecodeInterfaceConfig decodes an Interface Configuration response payload
// (10 bytes: firmware version digits then the two capability masks).
func DecodeInterfaceConfig(data []byte) (InterfaceConfig, error) {
	if err := wantLen(data, 10, "InterfaceConfig"); err != nil {
		return InterfaceConfig{}, err
	}
	version := fmt.Sprintf("%d.%d.%d.%d", data[0], data[1], data[2], data[3])
	return InterfaceConfig{
		FirmwareVersion:       version,
		TransitionMessageMask: binary.LittleEndian.Uint16(data[4:6]),
		RequestCommandMask:    binary.LittleEndian.Uint32(data[6:10]),
	}, nil
}

// Required transition-message and request-command capability flags. These
// match bit positions 0..n in the masks decoded above, in the order the
// panel documents them; only the ones the Controller depends on are named.
const (
	CapTransitionInterfaceConfig uint16 = 1 << 1
	CapTransitionZoneStatus      uint16 = 1 << 4
	CapTransitionPartitionStatus uint16 = 1 << 6
	CapTransitionPartitionSnap   uint16 = 1 << 7
	CapTransitionSystemStatus    uint16 = 1 << 8

	CapRequestInterfaceConfig  uint32 = 1 << 1
	CapRequestZoneName         uint32 = 1 << 3
	CapRequestZoneStatus       uint32 = 1 << 4
	CapRequestZoneSnapshot     uint32 = 1 << 5
	CapRequestPartitionStatus  uint32 = 1 << 6
	CapRequestPartitionSnap    uint32 = 1 << 7
	CapRequestSystemStatus     uint32 = 1 << 8
	CapRequestSetClockCalendar uint32 = 1 << 27
	CapRequestPrimaryKeypad    uint32 = 1 << 29
)

// MissingCapabilities reports the names of any required transition or
// request capability flags absent from the decoded masks. A non-empty
// result is the Controller's fatal capability-mismatch condition
// (spec.md §4.5 step 1, §7).
func (c InterfaceConfig) MissingCapabilities() []string {
	var missing []string
	check := func(name string, have bool) {
		if !have {
			missing = append(missing, name)
		}
	}
	check("transition:InterfaceConfig", c.TransitionMessageMask&CapTransitionInterfaceConfig != 0)
	check("transition:ZoneStatus", c.TransitionMessageMask&CapTransitionZoneStatus != 0)
	check("transition:PartitionStatus", c.TransitionMessageMask&CapTransitionPartitionStatus != 0)
	check("transition:PartitionSnapshot", c.TransitionMessageMask&CapTransitionPartitionSnap != 0)
	check("transition:SystemStatus", c.TransitionMessageMask&CapTransitionSystemStatus != 0)

	check("request:InterfaceConfig", c.RequestCommandMask&CapRequestInterfaceConfig != 0)
	check("request:ZoneName", c.RequestCommandMask&CapRequestZoneName != 0)
	check("request:ZoneStatus", c.RequestCommandMask&CapRequestZoneStatus != 0)
	check("request:ZoneSnapshot", c.RequestCommandMask&CapRequestZoneSnapshot != 0)
	check("request:PartitionStatus", c.RequestCommandMask&CapRequestPartitionStatus != 0)
	check("request:PartitionSnapshot", c.RequestCommandMask&CapRequestPartitionSnap != 0)
	check("request:SystemStatus", c.RequestCommandMask&CapRequestSystemStatus != 0)
	check("request:SetClockCalendar", c.RequestCommandMask&CapRequestSetClockCalendar != 0)
	check("request:PrimaryKeypadNoPin", c.RequestCommandMask&CapRequestPrimaryKeypad != 0)
	return missing
}

// EncodeZoneNameRequest packs a Zone Name Request payload: the zero-based
// panel zone index.
func EncodeZoneNameRequest(panelZone int) []byte {
	return []byte{byte(panelZone)}
}

// ZoneName is the decoded Zone Name response.
type ZoneName struct {
	PanelZone int
	Name      string
}

// DecodeZoneName decodes a Zone Name response payload: a 1-byte panel zone
// index followed by a 16-byte, trailing-padded ASCII name.
func DecodeZoneName(data []byte) (ZoneName, error) {
	if err := wantLen(data, 17, "ZoneName"); err != nil {
		return ZoneName{}, err
	}
	name := trimPadding(data[1:])
	return ZoneName{PanelZone: int(data[0]), Name: name}, nil
}

func trimPadding(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0x00 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end])
}

// EncodeZoneStatusRequest packs a Zone Status Request payload: the
// zero-based panel zone index.
func EncodeZoneStatusRequest(panelZone int) []byte {
	return []byte{byte(panelZone)}
}

// ZoneStatus is the decoded Zone Status response.
type ZoneStatus struct {
	PanelZone  int
	Partitions uint8
	Type       uint32
	Condition  ZoneConditionFlags
}

// DecodeZoneStatus decodes a Zone Status response payload: panel zone
// index, partition-membership byte, 3-byte little-endian type bitmap, then
// 2-byte little-endian condition bitmap.
func DecodeZoneStatus(data []byte) (ZoneStatus, error) {
	if err := wantLen(data, 7, "ZoneStatus"); err != nil {
		return ZoneStatus{}, err
	}
	zoneType := uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16
	condition := binary.LittleEndian.Uint16(data[5:7])
	return ZoneStatus{
		PanelZone:  int(data[0]),
		Partitions: data[1],
		Type:       zoneType,
		Condition:  ZoneConditionFlags(condition),
	}, nil
}

// EncodePartitionStatusRequest packs a Partition Status Request payload:
// the zero-based panel partition index.
func EncodePartitionStatusRequest(panelPartition int) []byte {
	return []byte{byte(panelPartition)}
}

// PartitionStatus is the decoded Partition Status response.
type PartitionStatus struct {
	PanelPartition int
	Condition      PartitionConditionFlags
}

// DecodePartitionStatus decodes a Partition Status response payload: panel
// partition index, 4 bytes of low condition flags (little-endian), a
// skipped byte, then 2 bytes of high condition flags (little-endian)
// shifted left by 32 to form the upper half of the 48-bit bitmap.
func DecodePartitionStatus(data []byte) (PartitionStatus, error) {
	if err := wantLen(data, 8, "PartitionStatus"); err != nil {
		return PartitionStatus{}, err
	}
	low := binary.LittleEndian.Uint32(data[1:5])
	high := binary.LittleEndian.Uint16(data[6:8])
	condition := PartitionConditionFlags(low) | PartitionConditionFlags(high)<<32
	return PartitionStatus{
		PanelPartition: int(data[0]),
		Condition:      condition,
	}, nil
}

// Snapshot is the decoded body of a Zones Snapshot or Partition Snapshot
// message. Per spec.md §9 Open Question (a), the bit semantics of these
// compact multi-entity bitmaps are unconfirmed in the source lineage the
// spec was distilled from; this decoder validates only the catalog length
// and returns the raw bytes. The Controller treats a Snapshot as advisory:
// "something changed, re-request status" for the entities it is tracking.
type Snapshot struct {
	Raw []byte
}

// DecodeZonesSnapshot validates and wraps a Zones Snapshot response payload.
func DecodeZonesSnapshot(data []byte) (Snapshot, error) {
	if err := wantLen(data, 9, "ZonesSnapshot"); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Raw: append([]byte(nil), data...)}, nil
}

// DecodePartitionSnapshot validates and wraps a Partition Snapshot payload.
func DecodePartitionSnapshot(data []byte) (Snapshot, error) {
	if err := wantLen(data, 8, "PartitionSnapshot"); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Raw: append([]byte(nil), data...)}, nil
}

// SystemStatus is the decoded System Status response.
type SystemStatus struct {
	PanelID        uint16
	PartitionMask  uint8
}

// DecodeSystemStatus decodes a System Status response payload far enough to
// recover the panel id and the 8-bit partition-present mask; remaining
// fields (time, trouble flags) are not interpreted by this engine.
func DecodeSystemStatus(data []byte) (SystemStatus, error) {
	if err := wantLen(data, 11, "SystemStatus"); err != nil {
		return SystemStatus{}, err
	}
	return SystemStatus{
		PanelID:       binary.LittleEndian.Uint16(data[0:2]),
		PartitionMask: data[2],
	}, nil
}

// EncodeSetClockCalendar packs a Set Clock/Calendar Request payload: year
// since 2000, month, day, hour, minute, and the panel's day-of-week
// numbering (Monday=2 .. Sunday=1, via the remap table described in
// spec.md §4.5).
func EncodeSetClockCalendar(year, month, day, hour, minute int, weekdayMondayZero int) []byte {
	panelWeekday := [...]byte{2, 3, 4, 5, 6, 7, 1}[weekdayMondayZero%7]
	return []byte{
		byte(year - 2000),
		byte(month),
		byte(day),
		byte(hour),
		byte(minute),
		panelWeekday,
	}
}

// KeypadFunction is a Primary Keypad Function code (spec.md §6).
type KeypadFunction byte

const (
	FunctionTurnOffAlarm   KeypadFunction = 0
	FunctionDisarm         KeypadFunction = 1
	FunctionArmAway        KeypadFunction = 2
	FunctionArmStay        KeypadFunction = 3
	FunctionCancel         KeypadFunction = 4
	FunctionInitiateAutoArm KeypadFunction = 5
	FunctionStartWalkTest  KeypadFunction = 6
	FunctionStopWalkTest   KeypadFunction = 7
)

// EncodePrimaryKeypadNoPin packs the payload for a Primary Keypad Function
// Request authenticated by user number: function, partition bitmap
// (1 << (N-1)), user number.
func EncodePrimaryKeypadNoPin(fn KeypadFunction, partition int, userNumber int) []byte {
	return []byte{byte(fn), 1 << uint(partition-1), byte(userNumber)}
}

// EncodePrimaryKeypadPin packs the payload for a Primary Keypad Function
// Request authenticated by PIN: PIN (3 BCD bytes), function, partition
// bitmap.
func EncodePrimaryKeypadPin(pin [3]byte, fn KeypadFunction, partition int) []byte {
	return []byte{pin[0], pin[1], pin[2], byte(fn), 1 << uint(partition-1)}
}

// EncodePIN packs a 4- or 6-digit decimal PIN into 3 BCD bytes, padding a
// 4-digit PIN with a trailing 0x00 nibble pair. Any other digit count is a
// caller error.
func EncodePIN(pin string) ([3]byte, error) {
	var out [3]byte
	switch len(pin) {
	case 4:
		pin = pin + "00"
	case 6:
		// use as-is
	default:
		return out, fmt.Errorf("nx584: PIN must be 4 or 6 digits, got %d", len(pin))
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return out, fmt.Errorf("nx584: PIN must be all decimal digits")
		}
	}
	for i := 0; i < 3; i++ {
		hi := pin[i*2] - '0'
		lo := pin[i*2+1] - '0'
		out[i] = hi<<4 | lo
	}
	return out, nil
}

// EncodeZoneBypassToggle packs a Zone Bypass Toggle Request payload: the
// zero-based panel zone index.
func EncodeZoneBypassToggle(panelZone int) []byte {
	return []byte{byte(panelZone)}
}
