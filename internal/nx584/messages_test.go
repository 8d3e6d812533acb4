package nx584

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		want    [3]byte
		wantErr bool
	}{
		{name: "4 digit padded", pin: "1234", want: [3]byte{0x12, 0x34, 0x00}},
		{name: "6 digit as-is", pin: "123456", want: [3]byte{0x12, 0x34, 0x56}},
		{name: "5 digits rejected", pin: "12345", wantErr: true},
		{name: "non-numeric rejected", pin: "12a4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePIN(tt.pin)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInterfaceConfig(t *testing.T) {
	data := []byte{1, 2, 3, 0, 0x02, 0x00, 0x01, 0x00, 0x00, 0x00}
	cfg, err := DecodeInterfaceConfig(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.0", cfg.FirmwareVersion)
	assert.Equal(t, uint16(0x0002), cfg.TransitionMessageMask)
	assert.Equal(t, uint32(0x00000001), cfg.RequestCommandMask)
}

func TestDecodeInterfaceConfigWrongLength(t *testing.T) {
	_, err := DecodeInterfaceConfig([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestInterfaceConfigMissingCapabilities(t *testing.T) {
	cfg := InterfaceConfig{}
	missing := cfg.MissingCapabilities()
	assert.NotEmpty(t, missing)

	full := InterfaceConfig{
		TransitionMessageMask: CapTransitionInterfaceConfig | CapTransitionZoneStatus | CapTransitionPartitionStatus | CapTransitionPartitionSnap | CapTransitionSystemStatus,
		RequestCommandMask: CapRequestInterfaceConfig | CapRequestZoneName | CapRequestZoneStatus | CapRequestZoneSnapshot |
			CapRequestPartitionStatus | CapRequestPartitionSnap | CapRequestSystemStatus | CapRequestSetClockCalendar | CapRequestPrimaryKeypad,
	}
	assert.Empty(t, full.MissingCapabilities())
}

func TestDecodeZoneName(t *testing.T) {
	data := make([]byte, 17)
	data[0] = 0x05
	copy(data[1:], "Front Door      ")
	zn, err := DecodeZoneName(data)
	require.NoError(t, err)
	assert.Equal(t, 5, zn.PanelZone)
	assert.Equal(t, "Front Door", zn.Name)
}

func TestDecodeZoneStatus(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x00, 0x00, 0x01, 0x00}
	zs, err := DecodeZoneStatus(data)
	require.NoError(t, err)
	assert.Equal(t, 0, zs.PanelZone)
	assert.Equal(t, uint8(0x01), zs.Partitions)
	assert.Equal(t, uint32(0x02), zs.Type)
	assert.Equal(t, ZoneFaulted, zs.Condition)
}

func TestDecodePartitionStatus(t *testing.T) {
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	ps, err := DecodePartitionStatus(data)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.PanelPartition)
	assert.Equal(t, CondBypassCodeRequired|(PartitionConditionFlags(1)<<40), ps.Condition)
}

func TestDecodeSystemStatus(t *testing.T) {
	data := make([]byte, 11)
	data[0], data[1] = 0x34, 0x12
	data[2] = 0x03
	sys, err := DecodeSystemStatus(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), sys.PanelID)
	assert.Equal(t, uint8(0x03), sys.PartitionMask)
}

func TestEncodeSetClockCalendar(t *testing.T) {
	got := EncodeSetClockCalendar(2026, 7, 30, 14, 5, 3) // Thursday
	assert.Equal(t, []byte{26, 7, 30, 14, 5, 5}, got)
}

func TestEncodePrimaryKeypadRequests(t *testing.T) {
	noPin := EncodePrimaryKeypadNoPin(FunctionDisarm, 2, 7)
	assert.Equal(t, []byte{byte(FunctionDisarm), 0x02, 0x07}, noPin)

	pin := [3]byte{0x12, 0x34, 0x00}
	withPin := EncodePrimaryKeypadPin(pin, FunctionArmAway, 1)
	assert.Equal(t, []byte{0x12, 0x34, 0x00, byte(FunctionArmAway), 0x01}, withPin)
}

func TestDecodeZonesSnapshotValidatesLength(t *testing.T) {
	_, err := DecodeZonesSnapshot(make([]byte, 9))
	assert.NoError(t, err)

	_, err = DecodeZonesSnapshot(make([]byte, 3))
	assert.Error(t, err)
}
