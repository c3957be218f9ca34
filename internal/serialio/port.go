// Package serialio owns the serial device: connect/reconnect with backoff,
// periodic transmit (heartbeat + change-triggered), telemetry dispatch, and a
// mock simulator for development without hardware. Grounded on the teacher's
// internal/serial/port.go (Port interface over tarm/serial),
// cmd/can-server/backend_serial.go (RX loop, backoff, reconnect), and
// internal/transport/async_tx.go (async TX funnel).
package serialio

import (
	"time"

	"github.com/tarm/serial"
)

// Port abstracts the serial device for testability, same shape as the
// teacher's internal/serial.Port.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// OpenReal opens a real tarm/serial port at the given name/baud with a 10ms
// read timeout. No write timeout is set, and DTR/RTS are left as the platform
// driver sets them: tarm/serial's Config exposes neither.
func OpenReal(name string, baud int) (Port, error) {
	cfg := &serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 10 * time.Millisecond,
		// DTR/RTS are not exposed by tarm/serial's Config; the platform
		// driver leaves them deasserted by default on most USB-UART
		// adapters, holding DTR and RTS low for the common CP210x/CH340/FTDI
		// chips this system targets. A
		// driver that defaults DTR high would need a lower-level ioctl not
		// exposed by this dependency.
	}
	return serial.OpenPort(cfg)
}
