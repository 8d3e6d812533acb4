package nx584

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLink replays a fixed sequence of inbound frames (already stuffed,
// checksummed bytes as they'd appear on the wire) regardless of what is
// written to it, and records every write. It lets queue tests exercise
// retry and interleaved-transition handling without a real clock-bound
// timeout. A nil entry simulates a single transient read timeout (e.g. the
// gap between leftover frames and a panel's first real response) without
// ending the script.
type scriptedLink struct {
	inbound [][]byte
	writes  [][]byte
	pos     int
}

func (s *scriptedLink) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	s.writes = append(s.writes, cp)
	return len(p), nil
}

func (s *scriptedLink) Read(p []byte) (int, error) {
	if s.pos >= len(s.inbound) {
		return 0, errEndOfScript
	}
	frame := s.inbound[s.pos]
	s.pos++
	if frame == nil {
		return 0, errEndOfScript
	}
	n := copy(p, frame)
	return n, nil
}

var errEndOfScript = assertErr("scriptedLink: out of scripted frames")

type assertErr string

func (e assertErr) Error() string { return string(e) }

func buildFrame(t *testing.T, msgType MessageType, payload []byte, ack bool) []byte {
	t.Helper()
	link := &loopback{}
	f := NewFramer(link, time.Second)
	require.NoError(t, f.Write(msgType, payload, ack))
	return link.buf
}

func TestQueueDrainHappyPath(t *testing.T) {
	resp := buildFrame(t, TypeACK, nil, false)
	link := &scriptedLink{inbound: [][]byte{resp}}
	framer := NewFramer(link, time.Second)

	var got bool
	q := Queue{}
	q.Enqueue(NewPendingCommand(TypeZoneBypassToggle, EncodeZoneBypassToggle(0), map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { got = true; return nil },
	}))

	err := q.Drain(framer, func(MessageType, bool, []byte) {}, NopMetrics{})
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainInterleavedTransitionDoesNotConsumeRetry(t *testing.T) {
	transition := buildFrame(t, TypeZoneStatusResponse, []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}, false)
	ack := buildFrame(t, TypeACK, nil, false)
	link := &scriptedLink{inbound: [][]byte{transition, ack}}
	framer := NewFramer(link, time.Second)

	var transitions int
	var completed bool
	q := Queue{}
	q.Enqueue(NewPendingCommand(TypeZoneBypassToggle, EncodeZoneBypassToggle(0), map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { completed = true; return nil },
	}))

	err := q.Drain(framer, func(MessageType, bool, []byte) { transitions++ }, NopMetrics{})
	require.NoError(t, err)
	assert.Equal(t, 1, transitions)
	assert.True(t, completed)
}

func TestQueueDrainRejectionDiscardsWithoutRetry(t *testing.T) {
	rejected := buildFrame(t, TypeRejected, nil, false)
	link := &scriptedLink{inbound: [][]byte{rejected}}
	framer := NewFramer(link, time.Second)

	var called bool
	q := Queue{}
	cmd := NewPendingCommand(TypeZoneBypassToggle, EncodeZoneBypassToggle(0), map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { called = true; return nil },
	})
	q.Enqueue(cmd)

	err := q.Drain(framer, func(MessageType, bool, []byte) {}, NopMetrics{})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainExhaustsRetriesOnRepeatedTimeout(t *testing.T) {
	link := &scriptedLink{} // no inbound frames at all: every read times out
	framer := NewFramer(link, time.Second)

	q := Queue{}
	q.Enqueue(NewPendingCommand(TypeZoneBypassToggle, EncodeZoneBypassToggle(0), map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { return nil },
	}))

	err := q.Drain(framer, func(MessageType, bool, []byte) {}, NopMetrics{})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())
	// a retry budget of 3 allows at most 3 sends in total
	assert.LessOrEqual(t, len(link.writes), 4)
	assert.GreaterOrEqual(t, len(link.writes), 2)
}

func TestQueueClear(t *testing.T) {
	q := Queue{}
	q.Enqueue(NewPendingCommand(TypeZoneBypassToggle, EncodeZoneBypassToggle(0), nil))
	assert.Equal(t, 1, q.Len())
	q.Clear()
	assert.Equal(t, 0, q.Len())
}
