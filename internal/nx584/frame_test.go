package nx584

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFletcher16(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint16
	}{
		{name: "interface config request", in: []byte{0x01, 0x21}, want: 0x2322},
		{name: "empty", in: []byte{}, want: 0x0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fletcher16(tt.in))
		})
	}
}

func TestStuffUnstuff(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		stuffed []byte
	}{
		{name: "no special bytes", raw: []byte{0x01, 0x21, 0x22, 0x23}, stuffed: []byte{0x01, 0x21, 0x22, 0x23}},
		{name: "start byte in body", raw: []byte{0x7E}, stuffed: []byte{0x7D, 0x5E}},
		{name: "escape byte in body", raw: []byte{0x7D}, stuffed: []byte{0x7D, 0x5D}},
		{name: "mixed", raw: []byte{0x01, 0x7E, 0x02, 0x7D, 0x03}, stuffed: []byte{0x01, 0x7D, 0x5E, 0x02, 0x7D, 0x5D, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stuffed, Stuff(tt.raw))

			got, err := Unstuff(tt.stuffed)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got)
		})
	}
}

func TestUnstuffBadEscape(t *testing.T) {
	_, err := Unstuff([]byte{0x7D, 0x01})
	assert.Error(t, err)

	_, err = Unstuff([]byte{0x7D})
	assert.Error(t, err)
}

// loopback is an in-memory io.ReadWriter: writes append to a buffer, reads
// drain it. It has no SetReadDeadline, matching a plain io.Pipe transport.
type loopback struct {
	buf []byte
}

func (l *loopback) Write(p []byte) (int, error) {
	l.buf = append(l.buf, p...)
	return len(p), nil
}

func (l *loopback) Read(p []byte) (int, error) {
	if len(l.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	return n, nil
}

func TestFramerWriteRead(t *testing.T) {
	link := &loopback{}
	f := NewFramer(link, time.Second)

	require.NoError(t, f.Write(TypeInterfaceConfigRequest, nil, false))
	assert.Equal(t, []byte{0x7E, 0x01, 0x21, 0x22, 0x23}, link.buf)

	msgType, ack, data, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, TypeInterfaceConfigRequest, msgType)
	assert.False(t, ack)
	assert.Empty(t, data)
}

func TestFramerRoundTripWithStuffedPayload(t *testing.T) {
	link := &loopback{}
	f := NewFramer(link, time.Second)

	payload := []byte{0x7E, 0x7D, 0x00}
	require.NoError(t, f.Write(TypeX10Request, payload, false))

	msgType, ack, data, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, TypeX10Request, msgType)
	assert.False(t, ack)
	assert.Equal(t, payload, data)
}

func TestFramerWriteRejectsWrongLength(t *testing.T) {
	link := &loopback{}
	f := NewFramer(link, time.Second)
	err := f.Write(TypeInterfaceConfigRequest, []byte{0x01}, false)
	assert.Error(t, err)
}

func TestFramerReadBadChecksum(t *testing.T) {
	link := &loopback{buf: []byte{0x7E, 0x01, 0x21, 0xFF, 0xFF}}
	f := NewFramer(link, time.Second)

	_, _, _, err := f.Read()
	assert.ErrorIs(t, err, ErrFrameTimeout)
}

func TestFramerReadNoStartByte(t *testing.T) {
	link := &loopback{buf: []byte{0x01, 0x02, 0x03}}
	f := NewFramer(link, time.Second)

	_, _, _, err := f.Read()
	assert.ErrorIs(t, err, ErrFrameTimeout)
}

func TestMaskTypeAndAckRequested(t *testing.T) {
	assert.Equal(t, TypeZoneStatusResponse, MaskType(0x04))
	assert.Equal(t, TypeZoneStatusResponse, MaskType(0x84))
	assert.True(t, AckRequested(0x84))
	assert.False(t, AckRequested(0x04))
}
