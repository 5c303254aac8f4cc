// Package imaging holds the pixel-level building blocks shared by the
// forensic analyzers: the decoded pixel buffer, the codec capability used to
// produce and re-encode it, the luminance projection and the resampler that
// normalises every input to a fixed working grid.
//
// Buffers are never mutated in place by downstream stages. Every stage
// allocates and returns a new buffer.
package imaging

import (
	"image"

	dimaging "github.com/disintegration/imaging"
)

// PixelBuffer is a width x height grid of non-premultiplied RGBA samples,
// 8 bits per channel, row-major with a stride of 4*Width.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// FromImage copies any decoded image into a new PixelBuffer anchored at (0,0).
func FromImage(img image.Image) *PixelBuffer {
	if img == nil {
		return NewPixelBuffer(0, 0)
	}
	// Clone converts every color model to NRGBA with a tight stride.
	nrgba := dimaging.Clone(img)
	b := nrgba.Bounds()
	return &PixelBuffer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// Empty reports whether the buffer holds no pixels.
func (b *PixelBuffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

// Len returns the number of pixels.
func (b *PixelBuffer) Len() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// RGBA returns the channels of the pixel at (x, y).
func (b *PixelBuffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := 4 * (y*b.Width + x)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Set writes the pixel at (x, y).
func (b *PixelBuffer) Set(x, y int, r, g, bl, a uint8) {
	i := 4 * (y*b.Width + x)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = r, g, bl, a
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixel slice.
// Callers must treat the result as read-only.
func (b *PixelBuffer) Image() *image.NRGBA {
	if b.Empty() {
		return image.NewNRGBA(image.Rectangle{})
	}
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: 4 * b.Width,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	if b == nil {
		return nil
	}
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}
