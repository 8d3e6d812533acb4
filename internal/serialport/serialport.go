// Package serialport opens and configures the RS-232/RS-485 link to an
// NX-584 interface module.
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the NX-584's factory default baud rate.
const DefaultBaud = 38400

// DefaultReadTimeout bounds how long a read blocks waiting for the next
// byte before the Framer above this package treats the link as idle.
const DefaultReadTimeout = 2 * time.Second

// Config describes how to open the link.
type Config struct {
	// Device is the path to the serial device, e.g. /dev/ttyUSB0.
	Device string
	// Baud is the link speed. Zero selects DefaultBaud.
	Baud int
	// ReadTimeout bounds Read. Zero selects DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Port wraps a go.bug.st/serial port as an io.ReadWriteCloser with a
// read deadline, the shape internal/nx584.Framer expects of its transport.
type Port struct {
	serial.Port
}

// Open configures and opens the serial device per the NX-584's fixed wire
// format: 8 data bits, no parity, one stop bit (8N1).
func Open(cfg Config) (*Port, error) {
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serialport: set read timeout: %w", err)
	}
	return &Port{Port: p}, nil
}

// SetReadDeadline satisfies the deadline-setting interface the Framer uses
// to bound each Read; go.bug.st/serial exposes a fixed read timeout rather
// than an absolute deadline, so this re-derives the remaining duration and
// re-applies it before each frame read.
func (p *Port) SetReadDeadline(t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		d = time.Millisecond
	}
	return p.Port.SetReadTimeout(d)
}

var _ io.ReadWriteCloser = (*Port)(nil)
