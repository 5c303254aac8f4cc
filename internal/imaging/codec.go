package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"

	dimaging "github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Codec errors
var (
	// ErrDecode means the input bytes could not be turned into a pixel buffer.
	ErrDecode = errors.New("image decode failed")

	// ErrEncode means a pixel buffer could not be re-encoded.
	ErrEncode = errors.New("image encode failed")

	// ErrUnsupportedFormat is returned when encoding to a format the codec
	// does not write.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrTooLarge is returned when the declared dimensions exceed the
	// configured pixel budget.
	ErrTooLarge = errors.New("image dimensions exceed limit")
)

// Decoded is the result of decoding an input file.
type Decoded struct {
	Buffer *PixelBuffer
	Format Format
}

// Codec is the narrow decode/encode capability the analyzers depend on.
// Implementations must be deterministic: the same input always yields the
// same output bytes.
type Codec interface {
	// Decode turns raw bytes into a pixel buffer.
	Decode(ctx context.Context, data []byte) (*Decoded, error)

	// Encode writes the buffer in the given format. Quality is in (0, 1]
	// and is ignored by lossless formats.
	Encode(ctx context.Context, buf *PixelBuffer, format Format, quality float64) ([]byte, error)
}

// StdCodec decodes JPEG, PNG, GIF, BMP, TIFF and WebP, and encodes JPEG and PNG.
type StdCodec struct {
	// MaxPixels bounds width*height of decoded images. Zero means unlimited.
	MaxPixels int
}

// NewStdCodec creates a codec that refuses images larger than maxPixels.
func NewStdCodec(maxPixels int) *StdCodec {
	return &StdCodec{MaxPixels: maxPixels}
}

// Decode implements Codec.
func (c *StdCodec) Decode(ctx context.Context, data []byte) (*Decoded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	// Check declared dimensions before allocating the full buffer.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if c.MaxPixels > 0 && cfg.Width*cfg.Height > c.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d pixels", ErrTooLarge, cfg.Width, cfg.Height, c.MaxPixels)
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &Decoded{
		Buffer: FromImage(img),
		Format: ParseFormat(name),
	}, nil
}

// Encode implements Codec.
func (c *StdCodec) Encode(ctx context.Context, buf *PixelBuffer, format Format, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty buffer", ErrEncode)
	}

	var (
		target dimaging.Format
		opts   []dimaging.EncodeOption
	)
	switch format {
	case FormatJPEG:
		target = dimaging.JPEG
		opts = append(opts, dimaging.JPEGQuality(JPEGQuality(quality)))
	case FormatPNG:
		target = dimaging.PNG
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrEncode, ErrUnsupportedFormat, format)
	}

	var out bytes.Buffer
	if err := dimaging.Encode(&out, buf.Image(), target, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out.Bytes(), nil
}

// JPEGQuality maps a (0, 1] quality factor to the encoder's 1..100 scale.
func JPEGQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
