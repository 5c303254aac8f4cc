package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// WorkingSize is the side of the square grid every spectral analysis runs on.
const WorkingSize = 256

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// GrayscaleField is a width x height grid of luminance scalars, row-major.
type GrayscaleField struct {
	Width  int
	Height int
	Values []float64
}

// At returns the luminance at (x, y).
func (f *GrayscaleField) At(x, y int) float64 {
	return f.Values[y*f.Width+x]
}

// Luminance projects one RGB sample to luma.
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Grayscale reduces a buffer to its luminance field. Alpha is ignored.
func Grayscale(b *PixelBuffer) *GrayscaleField {
	if b.Empty() {
		return &GrayscaleField{}
	}

	values := make([]float64, b.Width*b.Height)
	for i := range values {
		p := b.Pix[4*i : 4*i+3 : 4*i+3]
		values[i] = Luminance(p[0], p[1], p[2])
	}

	return &GrayscaleField{
		Width:  b.Width,
		Height: b.Height,
		Values: values,
	}
}

// Resample scales a buffer to size x size with bilinear interpolation.
// Inputs that already have the target size are copied exactly. An empty
// input yields a transparent black buffer.
func Resample(b *PixelBuffer, size int) *PixelBuffer {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if !b.Empty() {
		src := b.Image()
		if b.Width == size && b.Height == size {
			draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
		} else {
			draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
	}

	return &PixelBuffer{
		Width:  size,
		Height: size,
		Pix:    dst.Pix,
	}
}

// WorkingField resamples the buffer onto the size x size grid and projects it
// to luminance. The result always holds exactly size*size samples.
func WorkingField(b *PixelBuffer, size int) *GrayscaleField {
	return Grayscale(Resample(b, size))
}
