package wire

import (
	"bytes"

	"github.com/fizzball/controller/internal/logging"
	"github.com/fizzball/controller/internal/metrics"
)

// MaxPacketSize bounds a single wire line.
const MaxPacketSize = 128

// Framer maintains a rolling receive buffer and extracts complete $STS lines
// from arbitrary byte chunks, resyncing past garbage without ever wedging.
// Grounded on the teacher's internal/serial/codec.go DecodeStream: find the
// start marker, discard any prefix garbage, wait for the terminator, and
// advance past malformed frames one token at a time rather than giving up.
type Framer struct {
	buf bytes.Buffer
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer { return &Framer{} }

// Feed appends chunk to the rolling buffer and returns every complete $STS
// record decoded as a result, in wire order. Malformed lines are logged at
// debug level and dropped; the framer never desynchronizes permanently.
func (f *Framer) Feed(chunk []byte) []Telemetry {
	f.buf.Write(chunk)

	// Step 2: if the buffer has grown past 2x the max packet size, discard
	// everything before the last "$" (or clear it entirely if none remains).
	if f.buf.Len() > 2*MaxPacketSize {
		data := f.buf.Bytes()
		last := bytes.LastIndexByte(data, '$')
		if last < 0 {
			f.buf.Reset()
		} else {
			kept := append([]byte(nil), data[last:]...)
			f.buf.Reset()
			f.buf.Write(kept)
		}
	}

	var out []Telemetry
	for {
		data := f.buf.Bytes()
		start := bytes.IndexByte(data, '$')
		if start < 0 {
			// No marker at all: nothing usable is buffered, so drop it all.
			f.buf.Reset()
			return out
		}
		if start > 0 {
			f.buf.Next(start)
			continue
		}

		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			// Incomplete line, wait for more data.
			return out
		}

		line := string(data[:nl])

		t, err := DecodeSTS(line)
		if err != nil {
			logging.L().Debug("wire_malformed_line", "line", line, "error", err)
			metrics.IncMalformed()
			// Garbage without a newline can run into a good frame; resume
			// at the next "$" inside the rejected line, if there is one.
			if next := bytes.IndexByte(data[1:nl], '$'); next >= 0 {
				f.buf.Next(next + 1)
			} else {
				f.buf.Next(nl + 1)
			}
			continue
		}
		f.buf.Next(nl + 1)
		metrics.IncUARTRx()
		out = append(out, t)
	}
}
