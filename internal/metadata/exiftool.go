package metadata

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/barasher/go-exiftool"
)

// exiftool tag names, as reported with print conversion disabled.
const (
	tagMake             = "Make"
	tagModel            = "Model"
	tagSoftware         = "Software"
	tagDateTimeOriginal = "DateTimeOriginal"
	tagModifyDate       = "ModifyDate"
	tagGPSLatitude      = "GPSLatitude"
	tagGPSLongitude     = "GPSLongitude"
	tagHistoryAction    = "HistoryAction"
	tagHistoryChanged   = "HistoryChanged"
)

// ExiftoolReader reads metadata through a long-running exiftool process.
// It understands containers the in-process reader does not (HEIC, camera RAW)
// and XMP history stored in any of them.
type ExiftoolReader struct {
	mu      sync.Mutex
	et      *exiftool.Exiftool
	tempDir string
}

// NewExiftoolReader starts exiftool. An empty binaryPath looks exiftool up on
// PATH.
func NewExiftoolReader(binaryPath string) (*ExiftoolReader, error) {
	opts := []func(*exiftool.Exiftool) error{exiftool.NoPrintConversion()}
	if binaryPath != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binaryPath))
	}

	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}

	return &ExiftoolReader{
		et:      et,
		tempDir: os.TempDir(),
	}, nil
}

// Close stops the exiftool process.
func (r *ExiftoolReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.et.Close()
}

// Read implements Reader. exiftool works on files, so data is spooled to a
// temporary file for the duration of the call.
func (r *ExiftoolReader) Read(ctx context.Context, data []byte) (*Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(r.tempDir, "forensics-*.img")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	r.mu.Lock()
	infos := r.et.ExtractMetadata(tmp.Name())
	r.mu.Unlock()

	if len(infos) == 0 {
		return nil, ErrNoMetadata
	}
	if infos[0].Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, infos[0].Err)
	}

	fields := fieldsFromExiftool(infos[0])
	if fields.Empty() {
		return nil, ErrNoMetadata
	}
	return fields, nil
}

func fieldsFromExiftool(fm exiftool.FileMetadata) *Fields {
	str := func(key string) string {
		s, err := fm.GetString(key)
		if err != nil {
			return ""
		}
		return s
	}

	fields := &Fields{
		Make:             str(tagMake),
		Model:            str(tagModel),
		Software:         str(tagSoftware),
		DateTimeOriginal: parseExifTime(str(tagDateTimeOriginal)),
		DateTime:         parseExifTime(str(tagModifyDate)),
	}

	lat, latErr := fm.GetFloat(tagGPSLatitude)
	long, longErr := fm.GetFloat(tagGPSLongitude)
	if latErr == nil && longErr == nil {
		fields.HasGPS = true
		fields.Latitude = lat
		fields.Longitude = long
	}

	_, action := fm.Fields[tagHistoryAction]
	_, changed := fm.Fields[tagHistoryChanged]
	fields.History = action || changed

	return fields
}
