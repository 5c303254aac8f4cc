package metadata

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNoMetadata means the reader found no metadata block it understands.
	ErrNoMetadata = errors.New("no metadata found")

	// ErrInvalidMetadata means a metadata block was found but could not be parsed.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// exifTimeLayout is the EXIF 2.3 date/time format. Values carry no zone.
const exifTimeLayout = "2006:01:02 15:04:05"

// Fields is the subset of embedded metadata the consistency rules look at.
// Zero values mean absent.
type Fields struct {
	Make     string
	Model    string
	Software string

	// DateTimeOriginal is the capture time, DateTime the last modification.
	DateTimeOriginal time.Time
	DateTime         time.Time

	HasGPS    bool
	Latitude  float64
	Longitude float64

	// History reports change-history entries (XMP stEvt / photoshop:History).
	History bool
}

// Empty reports whether no field was populated.
func (f *Fields) Empty() bool {
	return f.Make == "" && f.Model == "" && f.Software == "" &&
		f.DateTimeOriginal.IsZero() && f.DateTime.IsZero() &&
		!f.HasGPS && !f.History
}

// Reader extracts Fields from an encoded image. Implementations return
// ErrNoMetadata when the image carries nothing they can read.
type Reader interface {
	Read(ctx context.Context, data []byte) (*Fields, error)
}

// Chain tries readers in order and returns the first non-empty result.
// When every reader fails, the first error other than ErrNoMetadata wins.
type Chain []Reader

// Read implements Reader.
func (c Chain) Read(ctx context.Context, data []byte) (*Fields, error) {
	var firstErr error
	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := r.Read(ctx, data)
		if err == nil {
			return fields, nil
		}
		if firstErr == nil && !errors.Is(err, ErrNoMetadata) {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoMetadata
}

func parseExifTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) < len(exifTimeLayout) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(exifTimeLayout, s[:len(exifTimeLayout)], time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
