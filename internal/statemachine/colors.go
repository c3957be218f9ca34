package statemachine

import "github.com/fizzball/controller/internal/wire"

var (
	colorOff       = wire.RGBColor{R: 0, G: 0, B: 0}
	colorGreen     = wire.RGBColor{R: 0, G: 255, B: 0}
	colorYellowGrn = wire.RGBColor{R: 154, G: 205, B: 50}
	colorAqua      = wire.RGBColor{R: 0, G: 255, B: 255}
	colorDimAqua   = wire.RGBColor{R: 0, G: 40, B: 40}
	colorRed       = wire.RGBColor{R: 255, G: 0, B: 0}
	colorDimRed    = wire.RGBColor{R: 40, G: 0, B: 0}
)

const flashHz = 8.0
