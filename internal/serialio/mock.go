package serialio

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fizzball/controller/internal/wire"
)

// MockPort simulates the microcontroller for development without hardware:
// it accepts outbound lines, advances three simulated servo positions
// toward their targets, simulates a limit switch at the extremes of servo 1,
// tracks a valve auto-close timer, and emits a noisy $STS line every 20ms.
// Grounded on _examples/original_source/rpi/src/comm/uart_comm.py's
// MockSerial.
type MockPort struct {
	mu sync.Mutex

	servo       [3]float64
	target      [3]float64
	lightOn     bool
	limit       wire.LimitDirection
	valveOpen   bool
	valveUntil  time.Time
	rxBuf       []byte
	lastStatus  time.Time
	rxParseBuf  []byte
	closed      bool
}

const (
	mockServoStepDegPerTick = 5.0
	mockStatusInterval      = 20 * time.Millisecond
	mockValveAutoClose      = 5 * time.Second
)

// NewMockPort returns a MockPort with servos centered.
func NewMockPort() *MockPort {
	return &MockPort{
		servo:      [3]float64{90, 90, 90},
		target:     [3]float64{90, 90, 90},
		lastStatus: time.Now(),
	}
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Write parses outbound wire lines and updates simulated MCU state.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rxParseBuf = append(m.rxParseBuf, p...)
	for {
		nl := indexByte(m.rxParseBuf, '\n')
		if nl < 0 {
			break
		}
		line := string(m.rxParseBuf[:nl])
		m.rxParseBuf = m.rxParseBuf[nl+1:]
		m.applyLine(line)
	}
	return len(p), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (m *MockPort) applyLine(line string) {
	var tag string
	if len(line) < 4 || line[0] != '$' {
		return
	}
	tag = line[1:4]
	switch tag {
	case "SRV":
		var s0, s1, s2 float64
		if _, err := fmt.Sscanf(line, "$SRV,%f,%f,%f", &s0, &s1, &s2); err == nil {
			m.target = [3]float64{s0, s1, s2}
		}
	case "LGT":
		var cmd int
		if _, err := fmt.Sscanf(line, "$LGT,%d", &cmd); err == nil {
			switch wire.LightCommand(cmd) {
			case wire.LightOn:
				m.lightOn = true
			case wire.LightOff:
				m.lightOn = false
			}
		}
	case "VLV":
		var v int
		if _, err := fmt.Sscanf(line, "$VLV,%d", &v); err == nil {
			m.valveOpen = v != 0
			if m.valveOpen {
				m.valveUntil = time.Now().Add(mockValveAutoClose)
			}
		}
	}
}

func (m *MockPort) step() {
	now := time.Now()
	for i := range m.servo {
		m.servo[i] = moveToward(m.servo[i], m.target[i], mockServoStepDegPerTick)
	}
	switch {
	case m.servo[0] <= 5:
		m.limit = wire.LimitCCW
	case m.servo[0] >= 175:
		m.limit = wire.LimitCW
	default:
		m.limit = wire.LimitNone
	}
	if m.valveOpen && !m.valveUntil.IsZero() && now.After(m.valveUntil) {
		m.valveOpen = false
	}
}

func moveToward(current, target, step float64) float64 {
	diff := target - current
	if diff > step {
		return current + step
	}
	if diff < -step {
		return current - step
	}
	return target
}

func (m *MockPort) maybeEmitStatus() {
	now := time.Now()
	if now.Sub(m.lastStatus) < mockStatusInterval {
		return
	}
	m.lastStatus = now
	m.step()

	noise := func() float64 { return (rand.Float64() - 0.5) }
	limitInt := 0
	switch m.limit {
	case wire.LimitCW:
		limitInt = 1
	case wire.LimitCCW:
		limitInt = 2
	}
	light := 0
	if m.lightOn {
		light = 1
	}
	valveOpenInt := 0
	if m.valveOpen {
		valveOpenInt = 1
	}
	line := fmt.Sprintf("$STS,%d,%.1f,%.1f,%.1f,%d,0,0,%d,1,0\n",
		limitInt,
		m.servo[0]+noise(), m.servo[1]+noise(), m.servo[2]+noise(),
		light, valveOpenInt,
	)
	m.rxBuf = append(m.rxBuf, []byte(line)...)
}

// Read drains whatever simulated status bytes are pending, generating a new
// one first if the 20ms interval has elapsed.
func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeEmitStatus()
	if len(m.rxBuf) == 0 {
		return 0, nil
	}
	n := copy(p, m.rxBuf)
	m.rxBuf = m.rxBuf[n:]
	return n, nil
}
