// Package serial implements the reference KISS transport: a TNC attached to
// a local serial port. Wraps github.com/tarm/serial, the serial driver the
// pack's montge-stratux example carries in its go.mod for exactly this kind
// of attached-hardware link.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Transport is a KISS-framed byte stream over a serial TNC connection. It
// satisfies io.ReadWriteCloser, the shape the ingress/egress tasks need.
type Transport struct {
	port *serial.Port
}

// Open opens a serial port at the given device path and baud rate. A
// read timeout is set so the ingress loop can periodically check its
// context for cancellation instead of blocking forever on an idle line.
func Open(device string, baud int, readTimeout time.Duration) (*Transport, error) {
	cfg := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", device, baud, err)
	}
	return &Transport{port: port}, nil
}

func (t *Transport) Read(p []byte) (int, error)  { return t.port.Read(p) }
func (t *Transport) Write(p []byte) (int, error) { return t.port.Write(p) }
func (t *Transport) Close() error                { return t.port.Close() }

var _ io.ReadWriteCloser = (*Transport)(nil)
