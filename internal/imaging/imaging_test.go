package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / max(w-1, 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: uint8(y % 256), B: 255 - v, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// TestDetectFormat tests format detection from magic bytes.
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, FormatJPEG},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, FormatPNG},
		{"GIF", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x00, 0x00}, FormatGIF},
		{"WebP", []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50}, FormatWebP},
		{"TIFF little endian", []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}, FormatTIFF},
		{"TIFF big endian", []byte{'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08}, FormatTIFF},
		{"BMP", []byte{0x42, 0x4D, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, FormatBMP},
		{"RIFF without WEBP", []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x57, 0x41, 0x56, 0x45}, FormatUnknown},
		{"Unknown", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, FormatUnknown},
		{"Too short", []byte{0xFF, 0xD8}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.data))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJPEG, ParseFormat("jpeg"))
	assert.Equal(t, FormatJPEG, ParseFormat(".JPG"))
	assert.Equal(t, FormatTIFF, ParseFormat("tif"))
	assert.Equal(t, FormatUnknown, ParseFormat("heic"))
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, Luminance(0, 0, 0), 1e-12)
	assert.InDelta(t, 255.0, Luminance(255, 255, 255), 1e-9)
	assert.InDelta(t, 0.299*255, Luminance(255, 0, 0), 1e-9)
	assert.InDelta(t, 0.587*255, Luminance(0, 255, 0), 1e-9)
	assert.InDelta(t, 0.114*255, Luminance(0, 0, 255), 1e-9)
}

func TestGrayscale(t *testing.T) {
	buf := NewPixelBuffer(2, 1)
	buf.Set(0, 0, 10, 20, 30, 255)
	buf.Set(1, 0, 200, 100, 50, 0)

	field := Grayscale(buf)
	require.Equal(t, 2, field.Width)
	require.Equal(t, 1, field.Height)
	assert.InDelta(t, 0.299*10+0.587*20+0.114*30, field.At(0, 0), 1e-9)
	// Alpha does not take part in the projection.
	assert.InDelta(t, 0.299*200+0.587*100+0.114*50, field.At(1, 0), 1e-9)

	// The source is left untouched.
	r, g, b, a := buf.RGBA(1, 0)
	assert.Equal(t, []uint8{200, 100, 50, 0}, []uint8{r, g, b, a})
}

func TestResample(t *testing.T) {
	t.Run("always yields the working size", func(t *testing.T) {
		for _, dims := range [][2]int{{1, 1}, {17, 300}, {640, 480}, {256, 256}} {
			buf := FromImage(gradientImage(dims[0], dims[1]))
			out := Resample(buf, WorkingSize)
			assert.Equal(t, WorkingSize, out.Width)
			assert.Equal(t, WorkingSize, out.Height)
			assert.Len(t, out.Pix, 4*WorkingSize*WorkingSize)

			field := WorkingField(buf, WorkingSize)
			assert.Len(t, field.Values, WorkingSize*WorkingSize)
		}
	})

	t.Run("copies exact-size input verbatim", func(t *testing.T) {
		buf := FromImage(gradientImage(WorkingSize, WorkingSize))
		out := Resample(buf, WorkingSize)
		assert.Equal(t, buf.Pix, out.Pix)
		assert.NotSame(t, &buf.Pix[0], &out.Pix[0])
	})

	t.Run("is deterministic", func(t *testing.T) {
		buf := FromImage(gradientImage(333, 171))
		a := WorkingField(buf, WorkingSize)
		b := WorkingField(buf, WorkingSize)
		assert.Equal(t, a.Values, b.Values)
	})

	t.Run("empty input yields zero field", func(t *testing.T) {
		field := WorkingField(NewPixelBuffer(0, 0), WorkingSize)
		require.Len(t, field.Values, WorkingSize*WorkingSize)
		for _, v := range field.Values {
			if v != 0 {
				t.Fatalf("expected zero field, got %f", v)
			}
		}
	})
}

func TestStdCodec(t *testing.T) {
	ctx := context.Background()
	codec := NewStdCodec(0)

	t.Run("decodes PNG", func(t *testing.T) {
		img := gradientImage(40, 30)
		decoded, err := codec.Decode(ctx, encodePNG(t, img))
		require.NoError(t, err)
		assert.Equal(t, FormatPNG, decoded.Format)
		assert.Equal(t, 40, decoded.Buffer.Width)
		assert.Equal(t, 30, decoded.Buffer.Height)
		assert.Equal(t, img.Pix, decoded.Buffer.Pix)
	})

	t.Run("JPEG round trip keeps dimensions and is deterministic", func(t *testing.T) {
		buf := FromImage(gradientImage(50, 20))
		first, err := codec.Encode(ctx, buf, FormatJPEG, 0.95)
		require.NoError(t, err)
		second, err := codec.Encode(ctx, buf, FormatJPEG, 0.95)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		decoded, err := codec.Decode(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, FormatJPEG, decoded.Format)
		assert.Equal(t, 50, decoded.Buffer.Width)
		assert.Equal(t, 20, decoded.Buffer.Height)
	})

	t.Run("JPEG quality controls the size", func(t *testing.T) {
		buf := FromImage(gradientImage(64, 64))
		high, err := codec.Encode(ctx, buf, FormatJPEG, 0.95)
		require.NoError(t, err)
		low, err := codec.Encode(ctx, buf, FormatJPEG, 0.3)
		require.NoError(t, err)
		assert.Less(t, len(low), len(high))
		assert.Equal(t, FormatJPEG, DetectFormat(low))
	})

	t.Run("PNG encode is lossless", func(t *testing.T) {
		img := gradientImage(33, 17)
		data, err := codec.Encode(ctx, FromImage(img), FormatPNG, 1)
		require.NoError(t, err)
		assert.Equal(t, FormatPNG, DetectFormat(data))

		decoded, err := codec.Decode(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, img.Pix, decoded.Buffer.Pix)
	})

	t.Run("empty input is a decode failure", func(t *testing.T) {
		_, err := codec.Decode(ctx, nil)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("garbage is a decode failure", func(t *testing.T) {
		_, err := codec.Decode(ctx, []byte("definitely not an image"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("truncated PNG is a decode failure", func(t *testing.T) {
		data := encodePNG(t, gradientImage(64, 64))
		_, err := codec.Decode(ctx, data[:len(data)/2])
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("pixel budget is enforced", func(t *testing.T) {
		small := NewStdCodec(100)
		_, err := small.Decode(ctx, encodePNG(t, gradientImage(20, 20)))
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("unsupported encode format", func(t *testing.T) {
		_, err := codec.Encode(ctx, FromImage(gradientImage(4, 4)), FormatGIF, 1)
		assert.ErrorIs(t, err, ErrEncode)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty buffer cannot be encoded", func(t *testing.T) {
		_, err := codec.Encode(ctx, NewPixelBuffer(0, 0), FormatPNG, 1)
		assert.ErrorIs(t, err, ErrEncode)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := codec.Decode(cctx, encodePNG(t, gradientImage(4, 4)))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestJPEGQuality(t *testing.T) {
	assert.Equal(t, 95, JPEGQuality(0.95))
	assert.Equal(t, 100, JPEGQuality(1))
	assert.Equal(t, 100, JPEGQuality(3))
	assert.Equal(t, 1, JPEGQuality(0))
	assert.Equal(t, 1, JPEGQuality(-1))
}
