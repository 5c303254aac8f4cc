package spectral

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/humanmark/forensics/internal/imaging"
)

// ErrNotSquare is returned when the field handed to a Transformer is not square.
var ErrNotSquare = errors.New("spectral transform requires a square field")

// Spectrum is an N x N grid of non-negative magnitudes, row-major, stored
// with zero frequency at (N/2, N/2).
type Spectrum struct {
	Size      int
	Magnitude []float64
}

// At returns the magnitude at column x, row y.
func (s *Spectrum) At(x, y int) float64 {
	return s.Magnitude[y*s.Size+x]
}

// Transformer computes the separable magnitude spectrum of a square field.
//
// Each row is transformed and reduced to magnitudes; each column of that
// magnitude field is then transformed again. Both passes divide by N.
// Implementations must agree to within floating-point rounding so the
// calibrated thresholds hold regardless of the engine.
type Transformer interface {
	Transform(ctx context.Context, field *imaging.GrayscaleField) (*Spectrum, error)
}

// NewTransformer returns the engine registered under name ("fft" or "dft").
func NewTransformer(name string) (Transformer, error) {
	switch name {
	case "", "fft":
		return FFT{}, nil
	case "dft":
		return DFT{}, nil
	default:
		return nil, fmt.Errorf("unknown spectral transform %q (want fft or dft)", name)
	}
}

// FFT runs both passes with gonum's real-input fast Fourier transform.
type FFT struct{}

// Transform implements Transformer.
func (FFT) Transform(ctx context.Context, field *imaging.GrayscaleField) (*Spectrum, error) {
	if err := checkSquare(field); err != nil {
		return nil, err
	}
	if field.Width == 0 {
		return &Spectrum{}, nil
	}
	return separable(ctx, field.Values, field.Width, newFFTKernel(field.Width))
}

// DFT is the direct O(N^2)-per-line transform. It is slow (O(N^3) overall)
// and serves as the reference the FFT engine is checked against.
type DFT struct{}

// Transform implements Transformer.
func (DFT) Transform(ctx context.Context, field *imaging.GrayscaleField) (*Spectrum, error) {
	if err := checkSquare(field); err != nil {
		return nil, err
	}
	if field.Width == 0 {
		return &Spectrum{}, nil
	}
	return separable(ctx, field.Values, field.Width, newDFTKernel(field.Width))
}

func checkSquare(field *imaging.GrayscaleField) error {
	if field.Width != field.Height {
		return fmt.Errorf("%w: %dx%d", ErrNotSquare, field.Width, field.Height)
	}
	if len(field.Values) != field.Width*field.Height {
		return fmt.Errorf("spectral transform: field holds %d samples, want %d", len(field.Values), field.Width*field.Height)
	}
	return nil
}

// kernel writes |X[k]|/N for k in [0,N) into dst.
type kernel interface {
	magnitudes(dst, src []float64)
}

func separable(ctx context.Context, values []float64, n int, k kernel) (*Spectrum, error) {
	rows := make([]float64, n*n)
	for y := 0; y < n; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k.magnitudes(rows[y*n:(y+1)*n], values[y*n:(y+1)*n])
	}

	half := n / 2
	out := make([]float64, n*n)
	col := make([]float64, n)
	mag := make([]float64, n)
	for x := 0; x < n; x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < n; y++ {
			col[y] = rows[y*n+x]
		}
		k.magnitudes(mag, col)

		// Quadrant swap: frequency (x, v) lands at ((x+N/2)%N, (v+N/2)%N).
		cx := (x + half) % n
		for v := 0; v < n; v++ {
			out[((v+half)%n)*n+cx] = mag[v]
		}
	}

	return &Spectrum{Size: n, Magnitude: out}, nil
}

type fftKernel struct {
	fft   *fourier.FFT
	coeff []complex128
}

func newFFTKernel(n int) *fftKernel {
	return &fftKernel{
		fft:   fourier.NewFFT(n),
		coeff: make([]complex128, n/2+1),
	}
}

func (k *fftKernel) magnitudes(dst, src []float64) {
	n := len(src)
	k.coeff = k.fft.Coefficients(k.coeff, src)
	scale := float64(n)
	for i, c := range k.coeff {
		dst[i] = cmplx.Abs(c) / scale
	}
	// Real input: |X[N-k]| == |X[k]|.
	for i := len(k.coeff); i < n; i++ {
		dst[i] = dst[n-i]
	}
}

type dftKernel struct {
	cos []float64
	sin []float64
}

func newDFTKernel(n int) *dftKernel {
	k := &dftKernel{
		cos: make([]float64, n),
		sin: make([]float64, n),
	}
	for j := 0; j < n; j++ {
		angle := -2 * math.Pi * float64(j) / float64(n)
		k.cos[j] = math.Cos(angle)
		k.sin[j] = math.Sin(angle)
	}
	return k
}

func (k *dftKernel) magnitudes(dst, src []float64) {
	n := len(src)
	for u := 0; u < n; u++ {
		var re, im float64
		for x := 0; x < n; x++ {
			j := (u * x) % n
			re += src[x] * k.cos[j]
			im += src[x] * k.sin[j]
		}
		dst[u] = math.Sqrt(re*re+im*im) / float64(n)
	}
}
