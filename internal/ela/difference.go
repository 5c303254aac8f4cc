package ela

import (
	"errors"
	"fmt"

	"github.com/humanmark/forensics/internal/imaging"
)

// ErrDimensionMismatch is returned when the recompressed image does not have
// the original's dimensions.
var ErrDimensionMismatch = errors.New("recompressed image dimensions differ from original")

// DifferenceField holds, per pixel, the mean absolute RGB difference between
// an image and its recompression. Alpha is ignored.
type DifferenceField struct {
	Width  int
	Height int
	Values []float64
	Max    float64
}

// Difference builds the field. Both buffers must have the same dimensions.
func Difference(original, recompressed *imaging.PixelBuffer) (*DifferenceField, error) {
	if original.Width != recompressed.Width || original.Height != recompressed.Height {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			original.Width, original.Height, recompressed.Width, recompressed.Height)
	}

	n := original.Len()
	field := &DifferenceField{
		Width:  original.Width,
		Height: original.Height,
		Values: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		a := original.Pix[4*i : 4*i+3 : 4*i+3]
		b := recompressed.Pix[4*i : 4*i+3 : 4*i+3]
		d := float64(absDiff(a[0], b[0])+absDiff(a[1], b[1])+absDiff(a[2], b[2])) / 3
		field.Values[i] = d
		if d > field.Max {
			field.Max = d
		}
	}

	return field, nil
}

// At returns the difference at (x, y).
func (f *DifferenceField) At(x, y int) float64 {
	return f.Values[y*f.Width+x]
}

// Mean returns the average difference, 0 for an empty field.
func (f *DifferenceField) Mean() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range f.Values {
		sum += v
	}
	return sum / float64(len(f.Values))
}

// HighDiffRatio returns the fraction of pixels whose difference is strictly
// greater than factor times the mean.
func (f *DifferenceField) HighDiffRatio(factor float64) float64 {
	if len(f.Values) == 0 {
		return 0
	}
	limit := f.Mean() * factor
	high := 0
	for _, v := range f.Values {
		if v > limit {
			high++
		}
	}
	return float64(high) / float64(len(f.Values))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
