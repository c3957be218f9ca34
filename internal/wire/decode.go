package wire

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed is returned (and only logged, never escalated) for any line
// that does not parse as a well-formed $STS record.
var ErrMalformed = errors.New("malformed $STS line")

const stsPrefix = "$STS,"

// DecodeSTS parses one complete line (without its trailing "\n") into a
// Telemetry record. Fields 0-5 (limit, three servo positions, light, flags)
// are required; fields 6-9 default to (0, 0, 1, 0) for test_active,
// valve_open, valve_enabled, valve_open_ms respectively when omitted.
func DecodeSTS(line string) (Telemetry, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, stsPrefix) {
		return Telemetry{}, ErrMalformed
	}
	content := line[len(stsPrefix):]
	fields := strings.Split(content, ",")
	if len(fields) < 6 {
		return Telemetry{}, ErrMalformed
	}

	limit, err := strconv.Atoi(fields[0])
	if err != nil {
		return Telemetry{}, ErrMalformed
	}
	s0, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Telemetry{}, ErrMalformed
	}
	s1, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Telemetry{}, ErrMalformed
	}
	s2, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Telemetry{}, ErrMalformed
	}
	light, err := strconv.Atoi(fields[4])
	if err != nil {
		return Telemetry{}, ErrMalformed
	}
	flags, err := strconv.Atoi(fields[5])
	if err != nil {
		return Telemetry{}, ErrMalformed
	}

	t := Telemetry{
		Connected:      true,
		LimitTriggered: limit != 0,
		LimitDirection: limitDirectionFromInt(limit),
		ServoPositions: [3]float64{s0, s1, s2},
		LightOn:        light != 0,
		Flags:          flags,
		TestActive:     false,
		ValveOpen:      false,
		ValveEnabled:   true,
		ValveOpenMS:    0,
	}

	if len(fields) >= 7 {
		v, err := strconv.Atoi(fields[6])
		if err != nil {
			return Telemetry{}, ErrMalformed
		}
		t.TestActive = v != 0
	}
	if len(fields) >= 8 {
		v, err := strconv.Atoi(fields[7])
		if err != nil {
			return Telemetry{}, ErrMalformed
		}
		t.ValveOpen = v != 0
	}
	if len(fields) >= 9 {
		v, err := strconv.Atoi(fields[8])
		if err != nil {
			return Telemetry{}, ErrMalformed
		}
		t.ValveEnabled = v != 0
	}
	if len(fields) >= 10 {
		v, err := strconv.Atoi(fields[9])
		if err != nil {
			return Telemetry{}, ErrMalformed
		}
		t.ValveOpenMS = v
	}

	return t, nil
}

func limitDirectionFromInt(v int) LimitDirection {
	switch v {
	case 1:
		return LimitCW
	case 2:
		return LimitCCW
	default:
		return LimitNone
	}
}
