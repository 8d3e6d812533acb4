package nx584

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cbarrick/nx584bridge/internal/logger"
)

const startByte = 0x7E
const escapeByte = 0x7D
const escapeXOR = 0x20

// ErrFrameTimeout is returned by Framer.Read when no start byte arrives
// within the configured deadline. Callers treat it exactly like "no frame".
var ErrFrameTimeout = errors.New("nx584: frame read timeout")

// errFraming is returned internally for any malformed frame (bad escape, bad
// length, bad checksum). It is never returned to callers of Read: per the
// spec's failure semantics, a framing error flushes the input and Read
// reports "no message" by returning ErrFrameTimeout.
var errFraming = errors.New("nx584: framing error")

// Fletcher16 computes the NX-584 checksum over b: two 8-bit accumulators,
// each reduced mod 255 after every byte, combined as (sum2<<8)|sum1.
func Fletcher16(b []byte) uint16 {
	var sum1, sum2 uint32
	for _, c := range b {
		sum1 = (sum1 + uint32(c)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return uint16(sum2<<8 | sum1)
}

// Stuff applies NX-584 byte stuffing to b: every occurrence of the start
// byte (0x7E) becomes 0x7D 0x5E and every occurrence of the escape byte
// (0x7D) becomes 0x7D 0x5D. The leading start-of-frame byte is never passed
// through Stuff; only LEN, TYPE, DATA, and the checksum bytes are stuffed.
func Stuff(b []byte) []byte {
	out := make([]byte, 0, len(b)+4)
	for _, c := range b {
		switch c {
		case startByte:
			out = append(out, escapeByte, startByte^escapeXOR)
		case escapeByte:
			out = append(out, escapeByte, escapeByte^escapeXOR)
		default:
			out = append(out, c)
		}
	}
	return out
}

// Unstuff reverses Stuff. It returns errFraming if an escape byte is
// followed by anything other than a stuffed start or escape byte.
func Unstuff(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != escapeByte {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(b) {
			return nil, errFraming
		}
		switch b[i] {
		case startByte ^ escapeXOR:
			out = append(out, startByte)
		case escapeByte ^ escapeXOR:
			out = append(out, escapeByte)
		default:
			return nil, errFraming
		}
	}
	return out, nil
}

// Framer turns a byte-stream transport (an open serial port, or anything
// implementing io.Reader/io.Writer) into a sequence of NX-584 messages. At
// most one Read and one Write are ever in flight at a time; Framer performs
// no internal synchronization because the Controller that owns it already
// guarantees single-threaded access to the serial link (see the
// concurrency model).
type Framer struct {
	r       *bufio.Reader
	w       io.Writer
	timeout time.Duration
}

// NewFramer wraps rw. timeout bounds how long Read blocks waiting for a
// start byte; it corresponds to the serial link's configured read timeout
// (2s by default).
func NewFramer(rw io.ReadWriter, timeout time.Duration) *Framer {
	return &Framer{
		r:       bufio.NewReader(rw),
		w:       rw,
		timeout: timeout,
	}
}

// deadlineSetter is implemented by transports that support a read deadline
// (e.g. serial ports, net.Conn). Framer uses it when present; over a plain
// io.Reader (such as an io.Pipe in tests) Read blocks without a timeout.
type deadlineSetter interface {
	SetReadDeadline(time.Time) error
}

// Write validates payload against the catalog's required length for t,
// builds the stuffed frame, and emits it. Setting ack requests the panel's
// acknowledgement by setting bit 0x80 of the type byte before the checksum
// is computed.
func (f *Framer) Write(t MessageType, payload []byte, ack bool) error {
	wantLen, ok := CatalogLength(t)
	if !ok {
		return fmt.Errorf("nx584: unknown message type 0x%02x", byte(t))
	}
	if 1+len(payload) != wantLen {
		return fmt.Errorf("nx584: type 0x%02x wants length %d, got %d", byte(t), wantLen, 1+len(payload))
	}

	typeByte := byte(t)
	if ack {
		typeByte |= ackRequestedBit
	}

	body := make([]byte, 0, 2+len(payload)+2)
	body = append(body, byte(len(payload)+1), typeByte)
	body = append(body, payload...)
	sum := Fletcher16(body)
	body = append(body, byte(sum), byte(sum>>8))

	frame := make([]byte, 0, len(body)+1)
	frame = append(frame, startByte)
	frame = append(frame, Stuff(body)...)

	_, err := f.w.Write(frame)
	return err
}

// Read scans for a start byte, reads the length-prefixed, checksummed,
// byte-stuffed frame that follows, and returns its unmasked TYPE and DATA.
// Any malformed frame discards the partial frame, flushes the input buffer,
// logs at error level, and returns (nil, nil, ErrFrameTimeout) exactly as if
// nothing had arrived: readers treat "nothing" as a timeout and continue.
func (f *Framer) Read() (MessageType, bool, []byte, error) {
	if ds, ok := f.w.(deadlineSetter); ok && f.timeout > 0 {
		_ = ds.SetReadDeadline(time.Now().Add(f.timeout))
	}

	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return 0, false, nil, ErrFrameTimeout
		}
		if b == startByte {
			break
		}
		// Bytes outside a frame (line noise, a stray escape) are ignored
		// until a start byte is seen.
	}

	lenByte, err := f.readStuffedByte()
	if err != nil {
		f.flush()
		logger.Error("nx584: framing error reading length", "error", err)
		return 0, false, nil, ErrFrameTimeout
	}
	if lenByte == 0 {
		f.flush()
		logger.Error("nx584: framing error: zero length")
		return 0, false, nil, ErrFrameTimeout
	}

	rest := make([]byte, 0, int(lenByte)+2)
	for i := 0; i < int(lenByte)+2; i++ {
		c, err := f.readStuffedByte()
		if err != nil {
			f.flush()
			logger.Error("nx584: framing error reading body", "error", err)
			return 0, false, nil, ErrFrameTimeout
		}
		rest = append(rest, c)
	}

	body := append([]byte{lenByte}, rest...)
	payloadLen := int(lenByte)
	typeAndData := body[1 : 1+payloadLen]
	chkBytes := body[1+payloadLen:]
	wantChk := uint16(chkBytes[0]) | uint16(chkBytes[1])<<8

	gotChk := Fletcher16(body[:1+payloadLen])
	if gotChk != wantChk {
		f.flush()
		logger.Error("nx584: checksum mismatch", "want", wantChk, "got", gotChk)
		return 0, false, nil, ErrFrameTimeout
	}

	rawType := typeAndData[0]
	data := typeAndData[1:]
	return MaskType(rawType), AckRequested(rawType), data, nil
}

// readStuffedByte reads one post-stuffing byte from the wire and reverses
// byte stuffing inline, returning errFraming for an escape with no valid
// follower.
func (f *Framer) readStuffedByte() (byte, error) {
	c, err := f.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if c != escapeByte {
		return c, nil
	}
	next, err := f.r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch next {
	case startByte ^ escapeXOR:
		return startByte, nil
	case escapeByte ^ escapeXOR:
		return escapeByte, nil
	default:
		return 0, errFraming
	}
}

// flush discards any buffered input so the next Read starts clean after a
// framing error.
func (f *Framer) flush() {
	f.r.Discard(f.r.Buffered())
}
