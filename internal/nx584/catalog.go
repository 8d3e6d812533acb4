package nx584

// MessageType identifies an NX-584 message by its type code. Responses and
// unsolicited transition messages occupy 0x01..0x1F; requests occupy
// 0x21..0x3F. Bit 0x80 of the byte on the wire is the ack-requested flag and
// bit 0x40 is reserved; both are masked off before a MessageType is formed.
type MessageType byte

// Responses and transition messages (0x01..0x1F).
const (
	TypeInterfaceConfigResponse MessageType = 0x01
	TypeZoneNameResponse        MessageType = 0x03
	TypeZoneStatusResponse      MessageType = 0x04
	TypeZonesSnapshotResponse   MessageType = 0x05
	TypePartitionStatusResponse MessageType = 0x06
	TypePartitionSnapshot       MessageType = 0x07
	TypeSystemStatusResponse    MessageType = 0x08
	TypeX10Message              MessageType = 0x09
	TypeLogEventResponse        MessageType = 0x0A
	TypeKeypadButtonResponse    MessageType = 0x0B
	TypeProgramDataResponse     MessageType = 0x10
	TypeUserInfoResponse        MessageType = 0x12
	TypeFailed                  MessageType = 0x1C
	TypeACK                     MessageType = 0x1D
	TypeNotAcknowledged         MessageType = 0x1E
	TypeRejected                MessageType = 0x1F
)

// Requests (0x21..0x3F).
const (
	TypeInterfaceConfigRequest  MessageType = 0x21
	TypeZoneNameRequest         MessageType = 0x23
	TypeZoneStatusRequest       MessageType = 0x24
	TypeZonesSnapshotRequest    MessageType = 0x25
	TypePartitionStatusRequest  MessageType = 0x26
	TypePartitionSnapshotReq    MessageType = 0x27
	TypeSystemStatusRequest     MessageType = 0x28
	TypeX10Request              MessageType = 0x29
	TypeLogEventRequest         MessageType = 0x2A
	TypeKeypadTextMessage       MessageType = 0x2B
	TypeKeypadTerminalMode      MessageType = 0x2C
	TypeProgramDataRequest      MessageType = 0x2D
	TypeProgramDataCommand      MessageType = 0x2E
	TypeUserInfoRequestPin      MessageType = 0x32
	TypeUserInfoRequestNoPin    MessageType = 0x33
	TypeSetUserCodePin          MessageType = 0x34
	TypeSetUserCodeNoPin        MessageType = 0x35
	TypeSetUserAuthorityPin     MessageType = 0x36
	TypeSetUserAuthorityNoPin   MessageType = 0x37
	TypeSetClockCalendar        MessageType = 0x3B
	TypePrimaryKeypadPin        MessageType = 0x3C
	TypePrimaryKeypadNoPin      MessageType = 0x3D
	TypeSecondaryKeypad         MessageType = 0x3E
	TypeZoneBypassToggle        MessageType = 0x3F
)

const (
	ackRequestedBit byte = 0x80
	reservedBit     byte = 0x40
	typeMask        byte = ^(ackRequestedBit | reservedBit)
)

// catalogLengths is the closed table of total message lengths (type byte
// plus payload), indexed by the masked type code. It is the single source of
// truth consulted both by the Framer (to validate LEN on the wire) and by
// the Controller (to know what a well-formed response/request looks like).
var catalogLengths = map[MessageType]int{
	TypeInterfaceConfigResponse: 11,
	TypeZoneNameResponse:        18,
	TypeZoneStatusResponse:      8,
	TypeZonesSnapshotResponse:   10,
	TypePartitionStatusResponse: 9,
	TypePartitionSnapshot:       9,
	TypeSystemStatusResponse:    12,
	TypeX10Message:              4,
	TypeLogEventResponse:        10,
	TypeKeypadButtonResponse:    3,
	TypeProgramDataResponse:     13,
	TypeUserInfoResponse:        17,
	TypeFailed:                  1,
	TypeNotAcknowledged:         1,
	TypeACK:                     1,
	TypeRejected:                1,

	TypeInterfaceConfigRequest: 1,
	TypeZoneNameRequest:        2,
	TypeZoneStatusRequest:      2,
	TypeZonesSnapshotRequest:   2,
	TypePartitionStatusRequest: 2,
	TypePartitionSnapshotReq:   1,
	TypeSystemStatusRequest:    1,
	TypeX10Request:             4,
	TypeLogEventRequest:        2,
	TypeKeypadTextMessage:      12,
	TypeKeypadTerminalMode:     3,
	TypeProgramDataRequest:     4,
	TypeProgramDataCommand:     13,
	TypeUserInfoRequestPin:     5,
	TypeUserInfoRequestNoPin:   2,
	TypeSetUserCodePin:         8,
	TypeSetUserCodeNoPin:       5,
	TypeSetUserAuthorityPin:    7,
	TypeSetUserAuthorityNoPin:  4,
	TypeSetClockCalendar:       7,
	TypePrimaryKeypadPin:       6,
	TypePrimaryKeypadNoPin:     4,
	TypeSecondaryKeypad:        3,
	TypeZoneBypassToggle:       2,
}

// MaskType clears the ack-requested and reserved bits from a raw wire type
// byte, leaving the MessageType that indexes the catalog.
func MaskType(raw byte) MessageType {
	return MessageType(raw & typeMask)
}

// AckRequested reports whether the ack-requested bit is set on a raw wire
// type byte.
func AckRequested(raw byte) bool {
	return raw&ackRequestedBit != 0
}

// CatalogLength returns the total catalog length (type byte + payload) for a
// message type and whether the type is known.
func CatalogLength(t MessageType) (int, bool) {
	n, ok := catalogLengths[t]
	return n, ok
}

// IsRejection reports whether a response type represents a definitive panel
// rejection of a pending command: NACK, Failed, or Rejected.
func (t MessageType) IsRejection() bool {
	switch t {
	case TypeFailed, TypeNotAcknowledged, TypeRejected:
		return true
	default:
		return false
	}
}

// messageTypeNames gives every cataloged type a short label for logs and
// metrics, so neither has to print raw hex codes.
var messageTypeNames = map[MessageType]string{
	TypeInterfaceConfigResponse: "interface_config_response",
	TypeZoneNameResponse:        "zone_name_response",
	TypeZoneStatusResponse:      "zone_status_response",
	TypeZonesSnapshotResponse:   "zones_snapshot_response",
	TypePartitionStatusResponse: "partition_status_response",
	TypePartitionSnapshot:       "partition_snapshot",
	TypeSystemStatusResponse:    "system_status_response",
	TypeX10Message:              "x10_message",
	TypeLogEventResponse:        "log_event_response",
	TypeKeypadButtonResponse:    "keypad_button_response",
	TypeProgramDataResponse:     "program_data_response",
	TypeUserInfoResponse:        "user_info_response",
	TypeFailed:                  "failed",
	TypeNotAcknowledged:         "nack",
	TypeACK:                     "ack",
	TypeRejected:                "rejected",

	TypeInterfaceConfigRequest: "interface_config_request",
	TypeZoneNameRequest:        "zone_name_request",
	TypeZoneStatusRequest:      "zone_status_request",
	TypeZonesSnapshotRequest:   "zones_snapshot_request",
	TypePartitionStatusRequest: "partition_status_request",
	TypePartitionSnapshotReq:   "partition_snapshot_request",
	TypeSystemStatusRequest:    "system_status_request",
	TypeX10Request:             "x10_request",
	TypeLogEventRequest:        "log_event_request",
	TypeKeypadTextMessage:      "keypad_text_message",
	TypeKeypadTerminalMode:     "keypad_terminal_mode",
	TypeProgramDataRequest:     "program_data_request",
	TypeProgramDataCommand:     "program_data_command",
	TypeUserInfoRequestPin:     "user_info_request_pin",
	TypeUserInfoRequestNoPin:   "user_info_request_no_pin",
	TypeSetUserCodePin:         "set_user_code_pin",
	TypeSetUserCodeNoPin:       "set_user_code_no_pin",
	TypeSetUserAuthorityPin:    "set_user_authority_pin",
	TypeSetUserAuthorityNoPin:  "set_user_authority_no_pin",
	TypeSetClockCalendar:       "set_clock_calendar",
	TypePrimaryKeypadPin:       "primary_keypad_pin",
	TypePrimaryKeypadNoPin:     "primary_keypad_no_pin",
	TypeSecondaryKeypad:        "secondary_keypad",
	TypeZoneBypassToggle:       "zone_bypass_toggle",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}
