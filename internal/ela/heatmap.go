package ela

import (
	"math"

	"github.com/humanmark/forensics/internal/imaging"
)

// RenderHeatmap maps the difference field onto a blue to green to red palette.
// Differences are normalised to [0,255] against the field maximum, multiplied
// by amplification and clamped before the palette lookup.
func RenderHeatmap(f *DifferenceField, amplification float64) *imaging.PixelBuffer {
	out := imaging.NewPixelBuffer(f.Width, f.Height)

	scale := 1.0
	if f.Max > 0 {
		scale = 255 / f.Max
	}

	for i, d := range f.Values {
		r, g, b := HeatColor(d * scale * amplification)
		out.Pix[4*i] = r
		out.Pix[4*i+1] = g
		out.Pix[4*i+2] = b
		out.Pix[4*i+3] = 255
	}

	return out
}

// HeatColor maps an intensity to RGB. Values are clamped to [0,255]; below 128
// the colour fades blue to green, from 128 on green to red.
func HeatColor(v float64) (r, g, b uint8) {
	v = math.Max(0, math.Min(255, v))
	if v < 128 {
		return 0, toByte(v * 2), toByte(255 - v*2)
	}
	return toByte((v - 128) * 2), toByte(255 - (v-128)*2), 0
}

// toByte clamps and rounds half to even, like a clamped 8-bit canvas store.
func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
