// Package wire implements the line-delimited host<->microcontroller protocol:
// every message begins with "$", carries a 3-letter tag, comma-separated
// fields, and ends with "\n". Grounded on the teacher's
// internal/serial/codec.go (framing/resync shape) and internal/cnl/codec.go
// (tag-dispatched encode), adapted from a binary CAN-UART wire to this ASCII
// multi-message one.
package wire

// LightCommand selects the light behavior.
type LightCommand int

const (
	LightOff LightCommand = iota
	LightOn
	LightAuto
)

// RGBMode selects the strip animation mode.
type RGBMode int

const (
	RGBSolid RGBMode = iota
	RGBRainbow
	RGBGradient
)

// NPMMode selects the NeoPixel matrix animation mode.
type NPMMode int

const (
	NPMOff NPMMode = iota
	NPMLetter
	NPMScroll // reserved/unused
	NPMRainbow
	NPMSolid
	NPMEyeClosed
	NPMEyeOpen
	NPMCircle
	NPMX
	NPMGradient
)

// NPRMode selects the NeoPixel ring animation mode.
type NPRMode int

const (
	NPROff NPRMode = iota
	NPRSolid
	NPRRainbow
	NPRChase
	NPRBreathe
	NPRSpinner
	NPRGradient
)

// MatrixPattern selects a MAX7219 matrix pattern.
type MatrixPattern int

const (
	MatrixOff MatrixPattern = iota
	MatrixCircle
	MatrixX
)

// LimitDirection reports which way the limit switch was tripped travelling.
type LimitDirection int

const (
	LimitNone LimitDirection = iota
	LimitCW
	LimitCCW
)

// Command flag bits (CommandRecord.Flags).
const (
	FlagLEDTest = 1 << 0
)

// RGBColor is an 8-bit-per-channel color triple.
type RGBColor struct {
	R, G, B uint8
}

// Command is the full outbound command record,
// produced once per state-machine tick by C5 and consumed by C3.
type Command struct {
	ServoTarget [3]float64

	ValveOpen bool

	LightCommand LightCommand

	RGBMode      RGBMode
	RGBPrimary   RGBColor
	RGBSecondary RGBColor
	RGBSpeed     int

	NPMMode      NPMMode
	NPMLetter    byte
	NPMPrimary   RGBColor
	NPMSecondary RGBColor
	NPMSpeed     int

	NPRMode      NPRMode
	NPRPrimary   RGBColor
	NPRSecondary RGBColor
	NPRSpeed     int

	MatrixLeft  MatrixPattern
	MatrixRight MatrixPattern

	Flags int

	// DispensingEnabled mirrors the state machine's safety latch and drives
	// the deprecated EST message: the MCU ignores it, but the host still
	// emits it on change for wire compatibility.
	DispensingEnabled bool
}

// SafeCommand returns the "safe state" record sent by C3's force-flush on
// shutdown: servos centered, valve closed, every LED channel off.
func SafeCommand() Command {
	return Command{
		ServoTarget:  [3]float64{90, 90, 90},
		ValveOpen:    false,
		LightCommand: LightOff,
		RGBMode:      RGBSolid,
		NPMMode:      NPMOff,
		NPRMode:      NPROff,
		MatrixLeft:   MatrixOff,
		MatrixRight:  MatrixOff,
	}
}

// Telemetry is the inbound $STS record.
type Telemetry struct {
	Connected      bool
	LimitTriggered bool
	LimitDirection LimitDirection
	ServoPositions [3]float64
	LightOn        bool
	Flags          int
	TestActive     bool
	ValveOpen      bool
	ValveEnabled   bool
	ValveOpenMS    int
	LastRxTime     int64 // unix millis, stamped by snapshot.Store.PutTelemetry on arrival
}
