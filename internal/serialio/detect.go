package serialio

import (
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// usbUARTKeywords identifies common USB-UART adapters used to bridge to the
// microcontroller, checked against each candidate port's description when one
// is available. Grounded on
// _examples/original_source/rpi/src/config.py's _auto_detect_serial_port.
var usbUARTKeywords = []string{
	"CP210", "CH340", "CH341", "FTDI",
	"USB SERIAL", "USB-SERIAL", "ESP32", "USB JTAG",
}

// CandidatePort pairs a device path with whatever description the platform
// exposes for it (empty when unavailable).
type CandidatePort struct {
	Device      string
	Description string
}

// SelectPort picks the best candidate: first description matching a known
// USB-UART keyword, else the first COM*/ttyUSB*/ttyACM* device, else empty
// (the caller falls back to mock mode rather than treating this as fatal).
func SelectPort(candidates []CandidatePort) string {
	for _, c := range candidates {
		upper := strings.ToUpper(c.Description)
		for _, kw := range usbUARTKeywords {
			if strings.Contains(upper, kw) {
				return c.Device
			}
		}
	}
	for _, c := range candidates {
		if runtime.GOOS == "windows" {
			if strings.HasPrefix(c.Device, "COM") {
				return c.Device
			}
			continue
		}
		if strings.Contains(c.Device, "ttyUSB") || strings.Contains(c.Device, "ttyACM") {
			return c.Device
		}
	}
	return ""
}

// EnumeratePorts lists plausible serial device paths on this platform.
// tarm/serial has no port-listing API, so this glob-based enumeration is
// hand-rolled (documented in DESIGN.md) while open/read/write remain on
// tarm/serial. Descriptions are unavailable through this path (Go's stdlib
// has no vendor/product string lookup without an extra platform dependency
// the pack does not carry), so SelectPort's keyword match is skipped and the
// first ttyUSB*/ttyACM*/COM* style fallback applies.
func EnumeratePorts() []CandidatePort {
	var patterns []string
	if runtime.GOOS == "windows" {
		// Windows COM ports are not filesystem paths; callers on Windows
		// should supply --serial-port explicitly. Kept for completeness.
		return nil
	}
	patterns = []string{"/dev/ttyUSB*", "/dev/ttyACM*"}
	var out []CandidatePort
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, CandidatePort{Device: m})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}
