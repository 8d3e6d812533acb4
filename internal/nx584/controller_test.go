package nx584

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink records every publish call a test cares about, in order, without
// touching a real broker.
type fakeSink struct {
	online        int
	offline       int
	configs       []*Partition
	zoneConfigs   []*Zone
	zoneStates    []*Zone
	partitions    []*Partition
	zoneStatesN   int
	partitionsN   int
}

func (s *fakeSink) PublishOnline()  { s.online++ }
func (s *fakeSink) PublishOffline() { s.offline++ }
func (s *fakeSink) PublishConfigs(panelID string, partitions []*Partition) {
	s.configs = append(s.configs, partitions...)
}
func (s *fakeSink) PublishZoneConfigs(zones []*Zone) { s.zoneConfigs = append(s.zoneConfigs, zones...) }
func (s *fakeSink) PublishPartitionState(p *Partition) {
	s.partitions = append(s.partitions, p)
}
func (s *fakeSink) PublishZoneState(z *Zone) {
	s.zoneStates = append(s.zoneStates, z)
}
func (s *fakeSink) PublishPartitionStates(partitions []*Partition) { s.partitionsN++ }
func (s *fakeSink) PublishZoneStates(zones []*Zone)                { s.zoneStatesN++ }

var _ Sink = (*fakeSink)(nil)

// interfaceConfigFrame builds a well-formed Interface Configuration response
// payload that satisfies every capability the Controller requires.
func interfaceConfigFrame(t *testing.T) []byte {
	t.Helper()
	var transitionMask uint16 = CapTransitionInterfaceConfig | CapTransitionZoneStatus |
		CapTransitionPartitionStatus | CapTransitionPartitionSnap | CapTransitionSystemStatus
	var requestMask uint32 = CapRequestInterfaceConfig | CapRequestZoneName | CapRequestZoneStatus |
		CapRequestZoneSnapshot | CapRequestPartitionStatus | CapRequestPartitionSnap |
		CapRequestSystemStatus | CapRequestSetClockCalendar | CapRequestPrimaryKeypad

	payload := make([]byte, 10)
	payload[0], payload[1], payload[2], payload[3] = 1, 0, 0, 0
	binary.LittleEndian.PutUint16(payload[4:6], transitionMask)
	binary.LittleEndian.PutUint32(payload[6:10], requestMask)
	return buildFrame(t, TypeInterfaceConfigResponse, payload, false)
}

func systemStatusFrame(t *testing.T, partitionMask byte) []byte {
	t.Helper()
	payload := make([]byte, 11)
	binary.LittleEndian.PutUint16(payload[0:2], 0x1234)
	payload[2] = partitionMask
	return buildFrame(t, TypeSystemStatusResponse, payload, false)
}

func partitionStatusFrame(t *testing.T, panelPartition int, cond PartitionConditionFlags) []byte {
	t.Helper()
	payload := make([]byte, 8)
	payload[0] = byte(panelPartition)
	binary.LittleEndian.PutUint32(payload[1:5], uint32(cond))
	binary.LittleEndian.PutUint16(payload[6:8], uint16(cond>>32))
	return buildFrame(t, TypePartitionStatusResponse, payload, false)
}

func zoneNameFrame(t *testing.T, panelZone int, name string) []byte {
	t.Helper()
	payload := make([]byte, 17)
	payload[0] = byte(panelZone)
	copy(payload[1:], name)
	return buildFrame(t, TypeZoneNameResponse, payload, false)
}

func zoneStatusFrame(t *testing.T, panelZone int, partitions uint8, zoneType uint32, cond ZoneConditionFlags) []byte {
	t.Helper()
	payload := make([]byte, 7)
	payload[0] = byte(panelZone)
	payload[1] = partitions
	payload[2] = byte(zoneType)
	payload[3] = byte(zoneType >> 8)
	payload[4] = byte(zoneType >> 16)
	binary.LittleEndian.PutUint16(payload[5:7], uint16(cond))
	return buildFrame(t, TypeZoneStatusResponse, payload, false)
}

// syncScript builds the full sequence of response frames the Controller
// expects during synchronization for a single partition, two-zone panel:
// interface config, system status, one partition status, and a name+status
// pair per zone.
func syncScript(t *testing.T) [][]byte {
	t.Helper()
	return [][]byte{
		interfaceConfigFrame(t),
		systemStatusFrame(t, 0x01),
		partitionStatusFrame(t, 0, CondReadyToArm),
		zoneNameFrame(t, 0, "Front Door"),
		zoneStatusFrame(t, 0, 1, 1, 0),
		zoneNameFrame(t, 1, "Back Door"),
		zoneStatusFrame(t, 1, 1, 1, 0),
	}
}

func newTestController(t *testing.T, inbound [][]byte, sink Sink) (*Controller, *scriptedLink) {
	t.Helper()
	link := &scriptedLink{inbound: inbound}
	framer := NewFramer(link, time.Second)
	cfg := Config{
		PanelID:    "home",
		ZoneCount:  2,
		DefaultPIN: "1234",
	}
	return New(framer, sink, NopMetrics{}, cfg), link
}

func TestControllerResumeSendsDirectAckAndDrainsLeftoverFrames(t *testing.T) {
	leftover := zoneStatusFrame(t, 0, 1, 1, ZoneFaulted)
	link := &scriptedLink{inbound: [][]byte{leftover}}
	framer := NewFramer(link, time.Second)
	ctrl := New(framer, &fakeSink{}, NopMetrics{}, Config{PanelID: "home", ZoneCount: 2})

	require.NoError(t, ctrl.resume())
	require.Len(t, link.writes, 1)

	_, typ, _, ackReq := parseWrittenFrame(t, link.writes[0])
	assert.Equal(t, TypeACK, typ)
	assert.False(t, ackReq)

	// The leftover frame was consumed by the drain, not tracked anywhere:
	// resume runs before any zone/partition registry exists.
	assert.Empty(t, ctrl.zones)
	assert.Empty(t, ctrl.partitions)
}

func TestControllerSyncBuildsRegistriesAndPublishesInitialState(t *testing.T) {
	sink := &fakeSink{}
	ctrl, _ := newTestController(t, syncScript(t), sink)

	require.NoError(t, ctrl.sync())
	assert.True(t, ctrl.synced)
	require.Len(t, ctrl.partitions, 1)
	require.Len(t, ctrl.zones, 2)
	assert.Equal(t, StateDisarmed, ctrl.partitions[1].State())
	assert.Equal(t, "Front Door", ctrl.zones[1].Name)
	assert.Equal(t, "Back Door", ctrl.zones[2].Name)

	ctrl.publishInitial()
	assert.Equal(t, 1, sink.online)
	assert.Len(t, sink.configs, 1)
	assert.Len(t, sink.zoneConfigs, 2)
	assert.Equal(t, 1, sink.zoneStatesN)
	assert.Equal(t, 1, sink.partitionsN)
}

func TestControllerSyncFailsOnMissingCapabilities(t *testing.T) {
	payload := make([]byte, 10) // all-zero masks: every required capability absent
	badConfig := buildFrame(t, TypeInterfaceConfigResponse, payload, false)

	ctrl, _ := newTestController(t, [][]byte{badConfig}, &fakeSink{})
	err := ctrl.sync()
	assert.ErrorIs(t, err, ErrCapabilityMismatch)
	assert.False(t, ctrl.synced)
}

func TestControllerRunSyncsThenShutsDownCleanly(t *testing.T) {
	sink := &fakeSink{}
	script := append([][]byte{nil}, syncScript(t)...) // nil: no leftover frames on resume
	ctrl, _ := newTestController(t, script, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.online == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, 1, sink.offline)
}

func TestControllerRunReturnsSyncError(t *testing.T) {
	ctrl, _ := newTestController(t, nil, &fakeSink{}) // scriptedLink with no inbound frames: every read times out
	err := ctrl.Run(context.Background())
	assert.Error(t, err)
}

func TestControllerOnTransitionUpdatesTrackedZoneAndPublishes(t *testing.T) {
	sink := &fakeSink{}
	ctrl, _ := newTestController(t, syncScript(t), sink)
	require.NoError(t, ctrl.sync())

	_, _, data, err := decodeFrame(t, zoneStatusFrame(t, 0, 1, 1, ZoneFaulted))
	require.NoError(t, err)

	ctrl.onTransition(TypeZoneStatusResponse, false, data)
	assert.True(t, ctrl.zones[1].Faulted())
	require.Len(t, sink.zoneStates, 1)
	assert.Equal(t, ctrl.zones[1], sink.zoneStates[0])
}

func TestControllerOnTransitionIgnoresUntrackedZone(t *testing.T) {
	sink := &fakeSink{}
	ctrl, _ := newTestController(t, syncScript(t), sink)
	require.NoError(t, ctrl.sync())

	_, _, data, err := decodeFrame(t, zoneStatusFrame(t, 99, 1, 1, ZoneFaulted))
	require.NoError(t, err)

	ctrl.onTransition(TypeZoneStatusResponse, false, data)
	assert.Empty(t, sink.zoneStates)
}

// decodeFrame round-trips a built frame back through a Framer so a test can
// recover the unmasked type and payload it encodes, without hand-decoding
// the wire format itself.
func decodeFrame(t *testing.T, frame []byte) (MessageType, bool, []byte, error) {
	t.Helper()
	link := &scriptedLink{inbound: [][]byte{frame}}
	framer := NewFramer(link, time.Second)
	return framer.Read()
}

func TestDoKeypadFunctionRequiresSync(t *testing.T) {
	ctrl, _ := newTestController(t, nil, &fakeSink{})
	err := ctrl.doKeypadFunction(1, FunctionDisarm, checkDisarm)
	assert.ErrorIs(t, err, ErrSyncRequired)
}

func TestDoKeypadFunctionRejectsUnknownPartition(t *testing.T) {
	ctrl, _ := newTestController(t, syncScript(t), &fakeSink{})
	require.NoError(t, ctrl.sync())

	err := ctrl.doKeypadFunction(7, FunctionDisarm, checkDisarm)
	assert.Error(t, err)
}

func TestDoKeypadFunctionRejectsAlreadyInState(t *testing.T) {
	ctrl, _ := newTestController(t, syncScript(t), &fakeSink{})
	require.NoError(t, ctrl.sync())

	// Synced partition 1 is derived as Disarmed; disarming it again must
	// short-circuit before any frame is sent.
	err := ctrl.doKeypadFunction(1, FunctionDisarm, checkDisarm)
	assert.ErrorIs(t, err, ErrAlreadyInState)
}

func TestDoKeypadFunctionRequiresCredentials(t *testing.T) {
	link := &scriptedLink{inbound: syncScript(t)}
	framer := NewFramer(link, time.Second)
	ctrl := New(framer, &fakeSink{}, NopMetrics{}, Config{PanelID: "home", ZoneCount: 2})
	require.NoError(t, ctrl.sync())

	err := ctrl.doKeypadFunction(1, FunctionArmAway, checkArm)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestDoKeypadFunctionSendsPinAuthenticatedKeypadCommand(t *testing.T) {
	script := append(syncScript(t), buildFrame(t, TypeACK, nil, false))
	ctrl, link := newTestController(t, script, &fakeSink{})
	require.NoError(t, ctrl.sync())

	err := ctrl.doKeypadFunction(1, FunctionArmAway, checkArm)
	require.NoError(t, err)
	require.NotEmpty(t, link.writes)

	last := link.writes[len(link.writes)-1]
	_, typ, _, ackReq := parseWrittenFrame(t, last)
	assert.Equal(t, TypePrimaryKeypadPin, typ)
	assert.False(t, ackReq)
}

// parseWrittenFrame decodes a frame captured from scriptedLink.writes by
// replaying it through a fresh Framer.
func parseWrittenFrame(t *testing.T, frame []byte) ([]byte, MessageType, []byte, bool) {
	t.Helper()
	link := &scriptedLink{inbound: [][]byte{frame}}
	framer := NewFramer(link, time.Second)
	typ, ack, data, err := framer.Read()
	require.NoError(t, err)
	return frame, typ, data, ack
}

func TestDoSetClockEncodesAndSendsCalendar(t *testing.T) {
	script := append(syncScript(t), buildFrame(t, TypeACK, nil, false))
	ctrl, link := newTestController(t, script, &fakeSink{})
	require.NoError(t, ctrl.sync())

	err := ctrl.doSetClock(time.Date(2026, time.July, 30, 14, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, link.writes)

	_, typ, _, _ := parseWrittenFrame(t, link.writes[len(link.writes)-1])
	assert.Equal(t, TypeSetClockCalendar, typ)
}

func TestZoneSliceAndPartitionSliceOrderingSkipsUntracked(t *testing.T) {
	ctrl, _ := newTestController(t, nil, &fakeSink{})
	ctrl.cfg.ZoneCount = 3
	ctrl.zones[1] = &Zone{Index: 1, Name: "A"}
	ctrl.zones[3] = &Zone{Index: 3, Name: "C"}
	ctrl.partitions[2] = &Partition{Index: 2}

	zones := ctrl.zoneSlice()
	require.Len(t, zones, 2)
	assert.Equal(t, 1, zones[0].Index)
	assert.Equal(t, 3, zones[1].Index)

	partitions := ctrl.partitionSlice()
	require.Len(t, partitions, 1)
	assert.Equal(t, 2, partitions[0].Index)
}

func TestCheckDisarm(t *testing.T) {
	assert.ErrorIs(t, checkDisarm(StateDisarmed), ErrAlreadyInState)
	assert.NoError(t, checkDisarm(StateArmedAway))
	assert.NoError(t, checkDisarm(StateUnknown))
}

func TestCheckArm(t *testing.T) {
	cases := []struct {
		state   State
		wantErr bool
	}{
		{StateArmedHome, true},
		{StateArmedAway, true},
		{StateArming, true},
		{StateDisarmed, false},
		{StatePending, false},
		{StateTriggered, false},
	}
	for _, c := range cases {
		err := checkArm(c.state)
		if c.wantErr {
			assert.ErrorIsf(t, err, ErrAlreadyInState, "state %v", c.state)
		} else {
			assert.NoErrorf(t, err, "state %v", c.state)
		}
	}
}

func TestSubmitReturnsContextErrorWhenRunNotServicingIntents(t *testing.T) {
	ctrl, _ := newTestController(t, nil, &fakeSink{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ctrl.Disarm(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestControllerArmDisarmThroughRun(t *testing.T) {
	script := append([][]byte{nil}, syncScript(t)...) // nil: no leftover frames on resume
	script = append(script, buildFrame(t, TypeACK, nil, false))
	sink := &fakeSink{}
	ctrl, _ := newTestController(t, script, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.online == 1 }, time.Second, time.Millisecond)

	armCtx, armCancel := context.WithTimeout(context.Background(), time.Second)
	defer armCancel()
	err := ctrl.ArmAway(armCtx, 1)
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
