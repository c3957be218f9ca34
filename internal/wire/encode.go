package wire

import (
	"fmt"
	"strconv"
	"strings"
)

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampColor(c RGBColor) RGBColor {
	return RGBColor{
		R: uint8(clampI(int(c.R), 0, 255)),
		G: uint8(clampI(int(c.G), 0, 255)),
		B: uint8(clampI(int(c.B), 0, 255)),
	}
}

// EncodeSRV builds the heartbeat $SRV line, always sent every transmit tick.
func EncodeSRV(servo [3]float64) string {
	s0 := clampF(servo[0], 0, 180)
	s1 := clampF(servo[1], 0, 180)
	s2 := clampF(servo[2], 0, 180)
	return fmt.Sprintf("$SRV,%.1f,%.1f,%.1f\n", s0, s1, s2)
}

// EncodeLGT builds the $LGT line.
func EncodeLGT(cmd LightCommand) string {
	return fmt.Sprintf("$LGT,%d\n", int(cmd))
}

// EncodeVLV builds the $VLV line.
func EncodeVLV(open bool) string {
	if open {
		return "$VLV,1\n"
	}
	return "$VLV,0\n"
}

// EncodeEST builds the deprecated $EST line.
func EncodeEST(enabled bool) string {
	if enabled {
		return "$EST,1\n"
	}
	return "$EST,0\n"
}

// EncodeMTX builds the $MTX line.
func EncodeMTX(left, right MatrixPattern) string {
	return fmt.Sprintf("$MTX,%d,%d\n", int(left), int(right))
}

// EncodeFLG builds the $FLG line.
func EncodeFLG(flags int) string {
	return fmt.Sprintf("$FLG,%d\n", flags)
}

// gradientFields appends secondary color + speed fields, used by RGB/NPM/NPR
// when and only when mode == GRADIENT.
func gradientFields(secondary RGBColor, speed int) string {
	c := clampColor(secondary)
	sp := clampI(speed, 1, 50)
	return fmt.Sprintf(",%d,%d,%d,%d", c.R, c.G, c.B, sp)
}

// EncodeRGB builds the $RGB line.
func EncodeRGB(mode RGBMode, primary, secondary RGBColor, speed int) string {
	p := clampColor(primary)
	var b strings.Builder
	b.WriteString("$RGB,")
	b.WriteString(strconv.Itoa(int(mode)))
	b.WriteByte(',')
	b.WriteString(fmt.Sprintf("%d,%d,%d", p.R, p.G, p.B))
	if mode == RGBGradient {
		b.WriteString(gradientFields(secondary, speed))
	}
	b.WriteByte('\n')
	return b.String()
}

// EncodeNPM builds the $NPM line.
func EncodeNPM(mode NPMMode, letter byte, primary, secondary RGBColor, speed int) string {
	p := clampColor(primary)
	if letter == 0 {
		letter = 'A'
	}
	var b strings.Builder
	b.WriteString("$NPM,")
	b.WriteString(strconv.Itoa(int(mode)))
	b.WriteByte(',')
	b.WriteByte(letter)
	b.WriteByte(',')
	b.WriteString(fmt.Sprintf("%d,%d,%d", p.R, p.G, p.B))
	if mode == NPMGradient {
		b.WriteString(gradientFields(secondary, speed))
	}
	b.WriteByte('\n')
	return b.String()
}

// EncodeNPR builds the $NPR line.
func EncodeNPR(mode NPRMode, primary, secondary RGBColor, speed int) string {
	p := clampColor(primary)
	var b strings.Builder
	b.WriteString("$NPR,")
	b.WriteString(strconv.Itoa(int(mode)))
	b.WriteByte(',')
	b.WriteString(fmt.Sprintf("%d,%d,%d", p.R, p.G, p.B))
	if mode == NPRGradient {
		b.WriteString(gradientFields(secondary, speed))
	}
	b.WriteByte('\n')
	return b.String()
}
